package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/forgo/kinship/api/internal/middleware"
	"github.com/forgo/kinship/api/internal/model"
)

// maxBodyBytes caps request bodies; broadcast messages are the largest payload
const maxBodyBytes = 1 << 20

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response
type CollectionResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{Data: data, Links: links})
}

// WriteCollection writes a collection response. A nil slice is written as [].
func WriteCollection[T any](w http.ResponseWriter, items []T, links map[string]string) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, CollectionResponse{Data: items, Links: links})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// WriteServiceError maps a service error and writes it. Unexpected errors are
// logged with the request ID before the generic 500 goes out.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	pd := MapServiceError(err)
	if pd.Status >= http.StatusInternalServerError {
		slog.Error(operation+" failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		pd.Detail = operation + ": an unexpected error occurred"
	}
	WriteError(w, pd)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeBody decodes the request body, writing a 400 problem on failure.
// An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return false
	}
	return true
}

// principal returns the authenticated caller, writing a 401 when missing
func principal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return nil, false
	}
	return p, true
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
