package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// ProblemDetails rendering
// ============================================================================

func TestProblemDetails_Error_IncludesStatusTitleAndDetail(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("event")
	msg := pd.Error()

	for _, want := range []string{"404", "Not Found", "event not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error message, got %q", want, msg)
		}
	}
}

func TestProblemDetails_WriteJSON_UsesProblemContentType(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewConflictError("child already registered").WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected application/problem+json, got %q", ct)
	}
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}

	var body ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Detail != "child already registered" {
		t.Errorf("unexpected detail %q", body.Detail)
	}
}

func TestProblemDetails_JSON_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&ProblemDetails{Type: "t", Title: "T", Status: 400})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	s := string(data)
	for _, field := range []string{"detail", "instance", "errors", "code"} {
		if strings.Contains(s, `"`+field+`"`) {
			t.Errorf("expected %q to be omitted, got %s", field, s)
		}
	}
}

// ============================================================================
// Constructors
// ============================================================================

func TestConstructors_StatusAndCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		code   ErrorCode
		slug   string
	}{
		{"unauthorized", NewUnauthorizedError("missing token"), http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized"},
		{"token expired", NewTokenExpiredError(), http.StatusUnauthorized, ErrCodeTokenExpired, "unauthorized"},
		{"not linked", NewAccountNotLinkedError(), http.StatusUnauthorized, ErrCodeNotLinked, "unauthorized"},
		{"forbidden", NewForbiddenError("admin role required"), http.StatusForbidden, ErrCodeForbidden, "forbidden"},
		{"not found", NewNotFoundError("child"), http.StatusNotFound, ErrCodeNotFound, "not-found"},
		{"conflict", NewConflictError("dup"), http.StatusConflict, ErrCodeConflict, "conflict"},
		{"capacity", NewCapacityError("no volunteer slots left"), http.StatusUnprocessableEntity, ErrCodeCapacity, "capacity"},
		{"bad request", NewBadRequestError("invalid body"), http.StatusBadRequest, ErrCodeInvalidInput, "bad-request"},
		{"internal", NewInternalError(""), http.StatusInternalServerError, ErrCodeInternal, "internal"},
		{"unavailable", NewServiceUnavailableError("database unreachable"), http.StatusServiceUnavailable, ErrCodeDatabase, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if tt.pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.pd.Code)
			}
			if !strings.HasSuffix(tt.pd.Type, "/errors/"+tt.slug) {
				t.Errorf("expected type ending in %q, got %q", tt.slug, tt.pd.Type)
			}
		})
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	if pd := NewInternalError(""); pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected default detail, got %q", pd.Detail)
	}
}

func TestNewValidationError_SummarizesFirstField(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "subject", Message: "subject is required"},
		{Field: "channels", Message: "at least one channel is required"},
	})

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", pd.Status)
	}
	if !strings.HasPrefix(pd.Detail, "subject: subject is required") {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
	if !strings.Contains(pd.Detail, "and 1 more") {
		t.Errorf("expected remaining count in detail, got %q", pd.Detail)
	}
	if len(pd.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(pd.Errors))
	}
}

func TestNewValidationError_Empty_UsesGenericDetail(t *testing.T) {
	t.Parallel()

	pd := NewValidationError(nil)
	if pd.Detail != "One or more fields failed validation" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
}

func TestNewRateLimitError_MentionsRetry(t *testing.T) {
	t.Parallel()

	pd := NewRateLimitError(30)
	if pd.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", pd.Status)
	}
	if !strings.Contains(pd.Detail, "30") {
		t.Errorf("expected retry seconds in detail, got %q", pd.Detail)
	}
}

func TestErrorCodes_InExpectedRanges(t *testing.T) {
	t.Parallel()

	ranges := map[int][]ErrorCode{
		1000: {ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid, ErrCodeLoginFailed, ErrCodeNotLinked},
		2000: {ErrCodeForbidden, ErrCodeRoleRequired},
		3000: {ErrCodeNotFound, ErrCodeAlreadyExists, ErrCodeConflict},
		4000: {ErrCodeValidation, ErrCodeInvalidInput, ErrCodeCapacity},
		5000: {ErrCodeInternal, ErrCodeDatabase, ErrCodeExternalAPI},
	}
	seen := make(map[ErrorCode]bool)
	for base, codes := range ranges {
		for _, code := range codes {
			if int(code) < base || int(code) >= base+1000 {
				t.Errorf("code %d outside %dxxx range", code, base/1000)
			}
			if seen[code] {
				t.Errorf("duplicate code %d", code)
			}
			seen[code] = true
		}
	}
}
