package handler

import (
	"errors"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return model.NewValidationError(verr.Fields)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenInvalid):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrTokenExpired):
		return model.NewTokenExpiredError()
	case errors.Is(err, service.ErrAccountNotLinked):
		return model.NewAccountNotLinkedError()

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrParentRequired),
		errors.Is(err, service.ErrVolunteerRequired):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrChildNotFound):
		return model.NewNotFoundError("child")
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrParticipantNotFound):
		return model.NewNotFoundError("participant")
	case errors.Is(err, service.ErrVolunteerNotFound):
		return model.NewNotFoundError("volunteer signup")
	case errors.Is(err, service.ErrApplicationNotFound):
		return model.NewNotFoundError("team application")
	case errors.Is(err, service.ErrTeamMemberNotFound):
		return model.NewNotFoundError("team member")
	case errors.Is(err, service.ErrAnnouncementNotFound):
		return model.NewNotFoundError("announcement")
	case errors.Is(err, service.ErrMessageNotFound):
		return model.NewNotFoundError("message")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrExternalIDTaken),
		errors.Is(err, service.ErrEventHasRegistrations),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyVolunteered),
		errors.Is(err, service.ErrApplicationPending):
		return model.NewConflictError(err.Error())
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("resource already exists")

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "credentials", Message: err.Error()}})
	case errors.Is(err, service.ErrRoleNotSelectable):
		return model.NewValidationError([]model.FieldError{{Field: "role", Message: err.Error()}})
	case errors.Is(err, service.ErrCannotModifySelf):
		return model.NewValidationError([]model.FieldError{{Field: "user_id", Message: err.Error()}})
	case errors.Is(err, service.ErrAgeOutOfRange):
		return model.NewValidationError([]model.FieldError{{Field: "child_id", Message: err.Error()}})
	case errors.Is(err, service.ErrCapacityBelowRegistrations):
		return model.NewValidationError([]model.FieldError{{Field: "capacity", Message: err.Error()}})

	// Capacity errors → 422
	case errors.Is(err, service.ErrVolunteersNotNeeded),
		errors.Is(err, service.ErrVolunteerSlotsFull):
		return model.NewCapacityError(err.Error())

	// State errors → 422
	case errors.Is(err, service.ErrEventNotOpen),
		errors.Is(err, service.ErrEventAudienceMismatch),
		errors.Is(err, service.ErrEventAlreadyCancelled),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrApplicationNotPending):
		return model.NewValidationError([]model.FieldError{{Field: "state", Message: err.Error()}})

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrIdentityDisabled):
		return model.NewServiceUnavailableError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
