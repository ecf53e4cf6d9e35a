package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable "code" extension of a problem response.
// The thousands digit groups codes by category.
type ErrorCode int

const (
	// 1xxx authentication
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004
	ErrCodeNotLinked    ErrorCode = 1005

	// 2xxx authorization
	ErrCodeForbidden    ErrorCode = 2001
	ErrCodeRoleRequired ErrorCode = 2002

	// 3xxx resource state
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003

	// 4xxx input
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeCapacity     ErrorCode = 4003

	// 5xxx server side
	ErrCodeInternal    ErrorCode = 5001
	ErrCodeDatabase    ErrorCode = 5002
	ErrCodeExternalAPI ErrorCode = 5003
)

const problemTypeBase = "https://kinship-api.forgo.software/errors/"

// ProblemDetails is the RFC 9457 error body returned by every failing endpoint
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Code     ErrorCode    `json:"code,omitempty"`
}

// FieldError names one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem with its status and problem+json content type
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func newProblem(slug, title string, status int, code ErrorCode, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

func NewUnauthorizedError(detail string) *ProblemDetails {
	return newProblem("unauthorized", "Unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized, detail)
}

// NewTokenExpiredError tells clients to sign in again rather than retry
func NewTokenExpiredError() *ProblemDetails {
	pd := NewUnauthorizedError("token expired")
	pd.Code = ErrCodeTokenExpired
	return pd
}

// NewAccountNotLinkedError is returned for a valid identity-provider token
// whose subject has no Kinship account yet.
func NewAccountNotLinkedError() *ProblemDetails {
	pd := NewUnauthorizedError("account not linked; call /api/auth/sync first")
	pd.Code = ErrCodeNotLinked
	return pd
}

func NewForbiddenError(detail string) *ProblemDetails {
	return newProblem("forbidden", "Forbidden", http.StatusForbidden, ErrCodeForbidden, detail)
}

// NewNotFoundError names the missing resource, e.g. "event"
func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", "Not Found", http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

// NewValidationError summarizes the first field error in Detail and carries
// all of them in Errors.
func NewValidationError(errors []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	switch n := len(errors); {
	case n == 1:
		detail = errors[0].Field + ": " + errors[0].Message
	case n > 1:
		detail = fmt.Sprintf("%s: %s (and %d more errors)", errors[0].Field, errors[0].Message, n-1)
	}
	pd := newProblem("validation", "Validation Error", http.StatusUnprocessableEntity, ErrCodeValidation, detail)
	pd.Errors = errors
	return pd
}

// NewCapacityError reports that an event has no room left for the request
func NewCapacityError(detail string) *ProblemDetails {
	return newProblem("capacity", "Capacity Reached", http.StatusUnprocessableEntity, ErrCodeCapacity, detail)
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", "Conflict", http.StatusConflict, ErrCodeConflict, detail)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", "Internal Server Error", http.StatusInternalServerError, ErrCodeInternal, detail)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, ErrCodeInvalidInput, detail)
}

// NewServiceUnavailableError is used when the storage backend cannot be reached
func NewServiceUnavailableError(detail string) *ProblemDetails {
	return newProblem("unavailable", "Service Unavailable", http.StatusServiceUnavailable, ErrCodeDatabase, detail)
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests, 0,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}
