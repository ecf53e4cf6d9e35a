package model

import (
	"strings"
	"time"
)

// ApplicationStatus represents the review state of a team application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid returns true if the status is known
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected, ApplicationWithdrawn:
		return true
	default:
		return false
	}
}

// Team application field limits
const (
	MaxTeamNameLength     = 100
	MaxMotivationLength   = 2000
	MaxAvailabilityLength = 500
	MaxReviewNoteLength   = 1000
	MaxMemberTitleLength  = 100
)

// TeamApplication is a request to join an internal volunteer team
type TeamApplication struct {
	ID           string            `json:"id" db:"id"`
	UserID       string            `json:"user_id" db:"user_id"`
	Team         string            `json:"team" db:"team"`
	Motivation   string            `json:"motivation" db:"motivation"`
	Availability *string           `json:"availability,omitempty" db:"availability"`
	Status       ApplicationStatus `json:"status" db:"status"`
	ReviewedBy   *string           `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewNote   *string           `json:"review_note,omitempty" db:"review_note"`
	ReviewedOn   *time.Time        `json:"reviewed_on,omitempty" db:"reviewed_on"`
	CreatedOn    time.Time         `json:"created_on" db:"created_on"`
	UpdatedOn    time.Time         `json:"updated_on" db:"updated_on"`
}

// CreateTeamApplicationRequest represents a request to apply to a team
type CreateTeamApplicationRequest struct {
	Team         string  `json:"team"`
	Motivation   string  `json:"motivation"`
	Availability *string `json:"availability,omitempty"`
}

// Validate validates the team application request
func (r *CreateTeamApplicationRequest) Validate() []FieldError {
	var errors []FieldError

	team := strings.TrimSpace(r.Team)
	if team == "" {
		errors = append(errors, FieldError{Field: "team", Message: "team is required"})
	} else if tooLong(team, MaxTeamNameLength) {
		errors = append(errors, FieldError{Field: "team", Message: "team exceeds maximum length"})
	}

	motivation := strings.TrimSpace(r.Motivation)
	if motivation == "" {
		errors = append(errors, FieldError{Field: "motivation", Message: "motivation is required"})
	} else if tooLong(motivation, MaxMotivationLength) {
		errors = append(errors, FieldError{Field: "motivation", Message: "motivation exceeds maximum length"})
	}

	if tooLongPtr(r.Availability, MaxAvailabilityLength) {
		errors = append(errors, FieldError{Field: "availability", Message: "availability exceeds maximum length"})
	}

	return errors
}

// ReviewDecision is an admin's verdict on an application
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// ReviewTeamApplicationRequest represents an admin review
type ReviewTeamApplicationRequest struct {
	Decision ReviewDecision `json:"decision"`
	Note     *string        `json:"note,omitempty"`
	Title    *string        `json:"title,omitempty"` // roster title on approval
}

// Validate validates the review request
func (r *ReviewTeamApplicationRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Decision != DecisionApprove && r.Decision != DecisionReject {
		errors = append(errors, FieldError{Field: "decision", Message: "decision must be approve or reject"})
	}
	if tooLongPtr(r.Note, MaxReviewNoteLength) {
		errors = append(errors, FieldError{Field: "note", Message: "note exceeds maximum length"})
	}
	if tooLongPtr(r.Title, MaxMemberTitleLength) {
		errors = append(errors, FieldError{Field: "title", Message: "title exceeds maximum length"})
	}
	return errors
}

// VolunteerEmployee is a roster entry for an approved team member
type VolunteerEmployee struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Team          string    `json:"team" db:"team"`
	ApplicationID *string   `json:"application_id,omitempty" db:"application_id"`
	Title         *string   `json:"title,omitempty" db:"title"`
	Active        bool      `json:"active" db:"active"`
	JoinedOn      time.Time `json:"joined_on" db:"joined_on"`
	UpdatedOn     time.Time `json:"updated_on" db:"updated_on"`
}
