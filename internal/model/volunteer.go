package model

import (
	"strings"
	"time"
)

// VolunteerStatus represents a volunteer signup state
type VolunteerStatus string

const (
	VolunteerSignedUp  VolunteerStatus = "signed_up"
	VolunteerCancelled VolunteerStatus = "cancelled"
)

// Volunteer field limits
const (
	MaxVolunteerRoleLength  = 100
	MaxVolunteerNotesLength = 500
)

// Volunteer is a user signed up to help at an event
type Volunteer struct {
	ID         string          `json:"id" db:"id"`
	EventID    string          `json:"event_id" db:"event_id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Role       *string         `json:"role,omitempty" db:"role"` // e.g. "setup", "check-in"
	Notes      *string         `json:"notes,omitempty" db:"notes"`
	Status     VolunteerStatus `json:"status" db:"status"`
	SignedUpOn time.Time       `json:"signed_up_on" db:"signed_up_on"`
	UpdatedOn  time.Time       `json:"updated_on" db:"updated_on"`
}

// VolunteerSignupRequest represents a request to volunteer at an event
type VolunteerSignupRequest struct {
	Role  *string `json:"role,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// Validate validates the volunteer signup request
func (r *VolunteerSignupRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Role != nil && tooLong(strings.TrimSpace(*r.Role), MaxVolunteerRoleLength) {
		errors = append(errors, FieldError{Field: "role", Message: "role exceeds maximum length"})
	}
	if tooLongPtr(r.Notes, MaxVolunteerNotesLength) {
		errors = append(errors, FieldError{Field: "notes", Message: "notes exceeds maximum length"})
	}
	return errors
}
