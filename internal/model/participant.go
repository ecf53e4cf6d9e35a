package model

import "time"

// ParticipantStatus represents a child's registration state for an event
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantWaitlisted ParticipantStatus = "waitlisted"
	ParticipantCancelled  ParticipantStatus = "cancelled"
)

// IsActive returns true for registrations that still hold a seat or a waitlist spot
func (s ParticipantStatus) IsActive() bool {
	return s == ParticipantRegistered || s == ParticipantWaitlisted
}

// Participant is a child registered for an event
type Participant struct {
	ID           string            `json:"id" db:"id"`
	EventID      string            `json:"event_id" db:"event_id"`
	ChildID      string            `json:"child_id" db:"child_id"`
	ParentID     string            `json:"parent_id" db:"parent_id"`
	Status       ParticipantStatus `json:"status" db:"status"`
	RegisteredOn time.Time         `json:"registered_on" db:"registered_on"`
	UpdatedOn    time.Time         `json:"updated_on" db:"updated_on"`
}

// RegisterParticipantRequest represents a request to register a child
type RegisterParticipantRequest struct {
	ChildID string `json:"child_id"`
}

// Validate validates the register participant request
func (r *RegisterParticipantRequest) Validate() []FieldError {
	if r.ChildID == "" {
		return []FieldError{{Field: "child_id", Message: "child_id is required"}}
	}
	return nil
}
