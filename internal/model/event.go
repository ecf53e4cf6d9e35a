package model

import (
	"strings"
	"time"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Event field limits
const (
	MaxEventTitleLength       = 200
	MaxEventDescriptionLength = 5000
	MaxEventLocationLength    = 300
	MaxEventCapacity          = 10000
	MaxVolunteerSlots         = 1000
	MaxParticipantAge         = 18
)

// Event represents a scheduled organization event
type Event struct {
	ID             string      `json:"id" db:"id"`
	Title          string      `json:"title" db:"title"`
	Description    *string     `json:"description,omitempty" db:"description"`
	Location       *string     `json:"location,omitempty" db:"location"`
	StartTime      time.Time   `json:"start_time" db:"start_time"`
	EndTime        *time.Time  `json:"end_time,omitempty" db:"end_time"`
	Audience       Audience    `json:"audience" db:"audience"`
	Capacity       int         `json:"capacity" db:"capacity"`               // 0 = unlimited
	VolunteerSlots int         `json:"volunteer_slots" db:"volunteer_slots"` // 0 = no volunteers needed
	MinAge         *int        `json:"min_age,omitempty" db:"min_age"`
	MaxAge         *int        `json:"max_age,omitempty" db:"max_age"`
	Status         EventStatus `json:"status" db:"status"`
	CreatedBy      string      `json:"created_by" db:"created_by"`
	CreatedOn      time.Time   `json:"created_on" db:"created_on"`
	UpdatedOn      time.Time   `json:"updated_on" db:"updated_on"`
}

// IsOpenAt reports whether the event still accepts registrations and signups
func (e *Event) IsOpenAt(now time.Time) bool {
	return e.Status == EventStatusScheduled && e.StartTime.After(now)
}

// EndsAt returns the end time, falling back to the start time
func (e *Event) EndsAt() time.Time {
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime
}

// AcceptsAge reports whether a participant of the given age fits the event's range
func (e *Event) AcceptsAge(age int) bool {
	if e.MinAge != nil && age < *e.MinAge {
		return false
	}
	if e.MaxAge != nil && age > *e.MaxAge {
		return false
	}
	return true
}

// HasCapacityFor reports whether another registered participant fits
func (e *Event) HasCapacityFor(registered int) bool {
	return e.Capacity == 0 || registered < e.Capacity
}

// Validate checks the event's fields
func (e *Event) Validate() []FieldError {
	var errors []FieldError

	title := strings.TrimSpace(e.Title)
	if title == "" {
		errors = append(errors, FieldError{Field: "title", Message: "title is required"})
	} else if tooLong(title, MaxEventTitleLength) {
		errors = append(errors, FieldError{Field: "title", Message: "title exceeds maximum length"})
	}
	if tooLongPtr(e.Description, MaxEventDescriptionLength) {
		errors = append(errors, FieldError{Field: "description", Message: "description exceeds maximum length"})
	}
	if tooLongPtr(e.Location, MaxEventLocationLength) {
		errors = append(errors, FieldError{Field: "location", Message: "location exceeds maximum length"})
	}
	if e.StartTime.IsZero() {
		errors = append(errors, FieldError{Field: "start_time", Message: "start_time is required"})
	}
	if e.EndTime != nil && !e.EndTime.After(e.StartTime) {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if !e.Audience.IsValid() {
		errors = append(errors, FieldError{Field: "audience", Message: "audience must be all, parents, or volunteers"})
	}
	if e.Capacity < 0 || e.Capacity > MaxEventCapacity {
		errors = append(errors, FieldError{Field: "capacity", Message: "capacity must be between 0 and 10000"})
	}
	if e.VolunteerSlots < 0 || e.VolunteerSlots > MaxVolunteerSlots {
		errors = append(errors, FieldError{Field: "volunteer_slots", Message: "volunteer_slots must be between 0 and 1000"})
	}
	if e.MinAge != nil && (*e.MinAge < 0 || *e.MinAge > MaxParticipantAge) {
		errors = append(errors, FieldError{Field: "min_age", Message: "min_age must be between 0 and 18"})
	}
	if e.MaxAge != nil && (*e.MaxAge < 0 || *e.MaxAge > MaxParticipantAge) {
		errors = append(errors, FieldError{Field: "max_age", Message: "max_age must be between 0 and 18"})
	}
	if e.MinAge != nil && e.MaxAge != nil && *e.MinAge > *e.MaxAge {
		errors = append(errors, FieldError{Field: "min_age", Message: "min_age cannot exceed max_age"})
	}

	return errors
}

// EventDetail is an event with its registration tallies
type EventDetail struct {
	*Event
	ParticipantCount int `json:"participant_count"`
	WaitlistCount    int `json:"waitlist_count"`
	VolunteerCount   int `json:"volunteer_count"`
}

// EventFilter narrows event listings
type EventFilter struct {
	Audiences   []Audience // nil = every audience
	StartsAfter *time.Time
}

// CreateEventRequest represents a request to schedule an event
type CreateEventRequest struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Location       *string    `json:"location,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Audience       Audience   `json:"audience"`
	Capacity       int        `json:"capacity"`
	VolunteerSlots int        `json:"volunteer_slots"`
	MinAge         *int       `json:"min_age,omitempty"`
	MaxAge         *int       `json:"max_age,omitempty"`
}

// ToEvent builds a scheduled event created by createdBy
func (r *CreateEventRequest) ToEvent(createdBy string) *Event {
	audience := r.Audience
	if audience == "" {
		audience = AudienceAll
	}
	return &Event{
		Title:          strings.TrimSpace(r.Title),
		Description:    r.Description,
		Location:       r.Location,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Audience:       audience,
		Capacity:       r.Capacity,
		VolunteerSlots: r.VolunteerSlots,
		MinAge:         r.MinAge,
		MaxAge:         r.MaxAge,
		Status:         EventStatusScheduled,
		CreatedBy:      createdBy,
	}
}

// UpdateEventRequest represents a partial update to an event
type UpdateEventRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Location       *string    `json:"location,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Audience       *Audience  `json:"audience,omitempty"`
	Capacity       *int       `json:"capacity,omitempty"`
	VolunteerSlots *int       `json:"volunteer_slots,omitempty"`
	MinAge         *int       `json:"min_age,omitempty"`
	MaxAge         *int       `json:"max_age,omitempty"`
}

// ApplyTo copies the set fields onto event
func (r *UpdateEventRequest) ApplyTo(e *Event) {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = r.Description
	}
	if r.Location != nil {
		e.Location = r.Location
	}
	if r.StartTime != nil {
		e.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		e.EndTime = r.EndTime
	}
	if r.Audience != nil {
		e.Audience = *r.Audience
	}
	if r.Capacity != nil {
		e.Capacity = *r.Capacity
	}
	if r.VolunteerSlots != nil {
		e.VolunteerSlots = *r.VolunteerSlots
	}
	if r.MinAge != nil {
		e.MinAge = r.MinAge
	}
	if r.MaxAge != nil {
		e.MaxAge = r.MaxAge
	}
}
