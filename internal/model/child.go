package model

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates such as birth dates
const DateLayout = "2006-01-02"

// MaxChildNotesLength bounds free-text notes about a child (allergies, pickup)
const MaxChildNotesLength = 1000

// Child represents a child managed by a parent account
type Child struct {
	ID        string    `json:"id" db:"id"`
	ParentID  string    `json:"parent_id" db:"parent_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	BirthDate time.Time `json:"birth_date" db:"birth_date"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedOn time.Time `json:"created_on" db:"created_on"`
	UpdatedOn time.Time `json:"updated_on" db:"updated_on"`
}

// FullName joins first and last name
func (c *Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// AgeOn returns the child's age in whole years at the given moment
func (c *Child) AgeOn(at time.Time) int {
	at = at.UTC()
	born := c.BirthDate.UTC()
	age := at.Year() - born.Year()
	if at.Month() < born.Month() || (at.Month() == born.Month() && at.Day() < born.Day()) {
		age--
	}
	return age
}

// CreateChildRequest represents a request to add a child
type CreateChildRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BirthDate string  `json:"birth_date"` // YYYY-MM-DD
	Notes     *string `json:"notes,omitempty"`
}

// Validate validates the create child request against now
func (r *CreateChildRequest) Validate(now time.Time) []FieldError {
	var errors []FieldError
	errors = appendNameErrors(errors, "first_name", r.FirstName)
	errors = appendNameErrors(errors, "last_name", r.LastName)
	errors = appendBirthDateErrors(errors, r.BirthDate, now)
	if tooLongPtr(r.Notes, MaxChildNotesLength) {
		errors = append(errors, FieldError{Field: "notes", Message: "notes exceeds maximum length"})
	}
	return errors
}

// ToChild builds a child owned by parentID. Call Validate first.
func (r *CreateChildRequest) ToChild(parentID string) *Child {
	born, _ := time.Parse(DateLayout, r.BirthDate)
	return &Child{
		ParentID:  parentID,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		BirthDate: born,
		Notes:     r.Notes,
	}
}

// UpdateChildRequest represents a partial update to a child
type UpdateChildRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Validate validates the update child request against now
func (r *UpdateChildRequest) Validate(now time.Time) []FieldError {
	var errors []FieldError
	if r.FirstName != nil {
		errors = appendNameErrors(errors, "first_name", *r.FirstName)
	}
	if r.LastName != nil {
		errors = appendNameErrors(errors, "last_name", *r.LastName)
	}
	if r.BirthDate != nil {
		errors = appendBirthDateErrors(errors, *r.BirthDate, now)
	}
	if tooLongPtr(r.Notes, MaxChildNotesLength) {
		errors = append(errors, FieldError{Field: "notes", Message: "notes exceeds maximum length"})
	}
	return errors
}

// ApplyTo copies the set fields onto child. Call Validate first.
func (r *UpdateChildRequest) ApplyTo(c *Child) {
	if r.FirstName != nil {
		c.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		c.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.BirthDate != nil {
		if born, err := time.Parse(DateLayout, *r.BirthDate); err == nil {
			c.BirthDate = born
		}
	}
	if r.Notes != nil {
		if *r.Notes == "" {
			c.Notes = nil
		} else {
			c.Notes = r.Notes
		}
	}
}

func appendBirthDateErrors(errors []FieldError, value string, now time.Time) []FieldError {
	if value == "" {
		return append(errors, FieldError{Field: "birth_date", Message: "birth_date is required"})
	}
	born, err := time.Parse(DateLayout, value)
	if err != nil {
		return append(errors, FieldError{Field: "birth_date", Message: "birth_date must be formatted YYYY-MM-DD"})
	}
	if born.After(now) {
		return append(errors, FieldError{Field: "birth_date", Message: "birth_date cannot be in the future"})
	}
	return errors
}
