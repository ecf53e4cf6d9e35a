package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// UserRole represents the role of a user in the organization
type UserRole string

const (
	RoleParent    UserRole = "parent"    // Registers children for events
	RoleVolunteer UserRole = "volunteer" // Signs up to help at events
	RoleAdmin     UserRole = "admin"     // Manages events, people and broadcasts
)

// IsValid returns true if the role is known
func (r UserRole) IsValid() bool {
	switch r {
	case RoleParent, RoleVolunteer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Audience controls which roles can see an event or announcement
type Audience string

const (
	AudienceAll        Audience = "all"
	AudienceParents    Audience = "parents"
	AudienceVolunteers Audience = "volunteers"
)

// IsValid returns true if the audience is known
func (a Audience) IsValid() bool {
	switch a {
	case AudienceAll, AudienceParents, AudienceVolunteers:
		return true
	default:
		return false
	}
}

// VisibleTo reports whether content targeted at this audience is visible to role.
func (a Audience) VisibleTo(role UserRole) bool {
	switch {
	case role == RoleAdmin, a == AudienceAll:
		return true
	case a == AudienceParents:
		return role == RoleParent
	case a == AudienceVolunteers:
		return role == RoleVolunteer
	}
	return false
}

// AudiencesFor returns the audiences visible to role. A nil slice means every audience.
func AudiencesFor(role UserRole) []Audience {
	switch role {
	case RoleAdmin:
		return nil
	case RoleParent:
		return []Audience{AudienceAll, AudienceParents}
	case RoleVolunteer:
		return []Audience{AudienceAll, AudienceVolunteers}
	}
	return []Audience{AudienceAll}
}

// User represents a user account
type User struct {
	ID         string    `json:"id" db:"id"`
	ExternalID *string   `json:"external_id,omitempty" db:"external_id"` // identity provider subject
	Email      string    `json:"email" db:"email"`
	Hash       *string   `json:"-" db:"hash"` // Never expose password hash
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Role       UserRole  `json:"role" db:"role"`
	EmailOptIn bool      `json:"email_opt_in" db:"email_opt_in"`
	SMSOptIn   bool      `json:"sms_opt_in" db:"sms_opt_in"`
	CreatedOn  time.Time `json:"created_on" db:"created_on"`
	UpdatedOn  time.Time `json:"updated_on" db:"updated_on"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PhoneNumber returns the phone or an empty string
func (u *User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	Source string   `json:"source"` // "local" or "idp"
}

// IsAdmin returns true if the principal has admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Field limits for users
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// IsValidPhone reports whether phone is in E.164 format
func IsValidPhone(phone string) bool {
	return e164Pattern.MatchString(phone)
}

// NormalizePhone strips common separators so "+1 (555) 010-2000" becomes "+15550102000".
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs a structural check on an already normalized address
func IsValidEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.Index(email, "@")
	if at < 1 || at != strings.LastIndex(email, "@") {
		return false
	}
	dot := strings.LastIndex(email, ".")
	return dot > at+1 && dot < len(email)-1
}

// UpdateProfileRequest represents a self-service profile update
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	EmailOptIn *bool   `json:"email_opt_in,omitempty"`
	SMSOptIn   *bool   `json:"sms_opt_in,omitempty"`
}

// Validate validates the update profile request
func (r *UpdateProfileRequest) Validate() []FieldError {
	var errors []FieldError

	if r.FirstName != nil {
		errors = appendNameErrors(errors, "first_name", *r.FirstName)
	}
	if r.LastName != nil {
		errors = appendNameErrors(errors, "last_name", *r.LastName)
	}
	if r.Phone != nil && *r.Phone != "" && !IsValidPhone(NormalizePhone(*r.Phone)) {
		errors = append(errors, FieldError{Field: "phone", Message: "phone must be in E.164 format, e.g. +15550102000"})
	}
	if r.SMSOptIn != nil && *r.SMSOptIn && r.Phone != nil && *r.Phone == "" {
		errors = append(errors, FieldError{Field: "sms_opt_in", Message: "sms opt-in requires a phone number"})
	}

	return errors
}

// ApplyTo copies the set fields onto user
func (r *UpdateProfileRequest) ApplyTo(u *User) {
	if r.FirstName != nil {
		u.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		u.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Phone != nil {
		if *r.Phone == "" {
			u.Phone = nil
		} else {
			p := NormalizePhone(*r.Phone)
			u.Phone = &p
		}
	}
	if r.EmailOptIn != nil {
		u.EmailOptIn = *r.EmailOptIn
	}
	if r.SMSOptIn != nil {
		u.SMSOptIn = *r.SMSOptIn
	}
}

// SetRoleRequest represents an admin role change
type SetRoleRequest struct {
	Role UserRole `json:"role"`
}

// Validate validates the set role request
func (r *SetRoleRequest) Validate() []FieldError {
	if !r.Role.IsValid() {
		return []FieldError{{Field: "role", Message: "role must be parent, volunteer, or admin"}}
	}
	return nil
}

func appendNameErrors(errors []FieldError, field, value string) []FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return append(errors, FieldError{Field: field, Message: field + " is required"})
	}
	if tooLong(value, MaxNameLength) {
		return append(errors, FieldError{Field: field, Message: field + " exceeds maximum length"})
	}
	return errors
}

// tooLong reports whether s has more than limit characters
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func tooLongPtr(s *string, limit int) bool {
	return s != nil && tooLong(*s, limit)
}

// RegisterRequest represents an email/password sign-up
type RegisterRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     *string  `json:"phone,omitempty"`
	Role      UserRole `json:"role,omitempty"` // parent (default) or volunteer
}

// Validate validates the profile fields of the register request.
// Email and password rules are enforced by the auth service.
func (r *RegisterRequest) Validate() []FieldError {
	var errors []FieldError
	errors = appendNameErrors(errors, "first_name", r.FirstName)
	errors = appendNameErrors(errors, "last_name", r.LastName)
	if r.Phone != nil && *r.Phone != "" && !IsValidPhone(NormalizePhone(*r.Phone)) {
		errors = append(errors, FieldError{Field: "phone", Message: "phone must be in E.164 format, e.g. +15550102000"})
	}
	return errors
}

// LoginRequest represents an email/password sign-in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SyncRequest carries the profile used when an identity-provider account is first seen
type SyncRequest struct {
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Role      UserRole `json:"role,omitempty"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AccessToken is a locally issued bearer token
type AccessToken struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *User        `json:"user"`
	Token *AccessToken `json:"token"`
}

// SplitName splits a display name into first and last name
func SplitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
