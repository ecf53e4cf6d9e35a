package service

import (
	"errors"
	"fmt"

	"github.com/forgo/kinship/api/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrRoleNotSelectable  = errors.New("role must be parent or volunteer")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountNotLinked   = errors.New("account not linked")
	ErrIdentityDisabled   = errors.New("identity provider not configured")
	ErrExternalIDTaken    = errors.New("account already linked to another identity")
)

// ===== Authorization Errors =====
var (
	ErrForbidden         = errors.New("not authorized to perform this action")
	ErrCannotModifySelf  = errors.New("admins cannot demote or delete their own account")
	ErrParentRequired    = errors.New("only parents can perform this action")
	ErrVolunteerRequired = errors.New("only volunteers can perform this action")
)

// ===== Child Errors =====
var (
	ErrChildNotFound = errors.New("child not found")
)

// ===== Event Errors =====
var (
	ErrEventNotFound              = errors.New("event not found")
	ErrEventNotOpen               = errors.New("event is not open for registration")
	ErrEventHasRegistrations      = errors.New("event has active registrations")
	ErrEventAudienceMismatch      = errors.New("event is not open to this audience")
	ErrEventAlreadyCancelled      = errors.New("event is already cancelled")
	ErrAgeOutOfRange              = errors.New("child's age is outside the event's age range")
	ErrCapacityBelowRegistrations = errors.New("capacity cannot be below current registrations")
)

// ===== Participant Errors =====
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyRegistered   = errors.New("child is already registered for this event")
	ErrAlreadyCancelled    = errors.New("registration is already cancelled")
)

// ===== Volunteer Errors =====
var (
	ErrVolunteerNotFound   = errors.New("volunteer signup not found")
	ErrAlreadyVolunteered  = errors.New("already signed up to volunteer for this event")
	ErrVolunteersNotNeeded = errors.New("event does not need volunteers")
	ErrVolunteerSlotsFull  = errors.New("no volunteer slots left for this event")
)

// ===== Team Errors =====
var (
	ErrApplicationNotFound   = errors.New("team application not found")
	ErrApplicationPending    = errors.New("a pending application for this team already exists")
	ErrApplicationNotPending = errors.New("application is no longer pending")
	ErrTeamMemberNotFound    = errors.New("team member not found")
)

// ===== Announcement Errors =====
var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

// ===== Inbox Errors =====
var (
	ErrMessageNotFound = errors.New("message not found")
)

// ===== Messaging Errors =====
var (
	ErrChannelNotConfigured = errors.New("channel not configured")
)

// ValidationError carries per-field validation failures
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// validationErr wraps field errors, returning nil when there are none
func validationErr(fields []model.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
