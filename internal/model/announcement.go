package model

import (
	"strings"
	"time"
)

// Announcement field limits
const (
	MaxAnnouncementTitleLength = 200
	MaxAnnouncementBodyLength  = 10000
)

// Announcement is a notice shown to an audience
type Announcement struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Audience    Audience   `json:"audience" db:"audience"`
	Pinned      bool       `json:"pinned" db:"pinned"`
	PublishedOn time.Time  `json:"published_on" db:"published_on"`
	ExpiresOn   *time.Time `json:"expires_on,omitempty" db:"expires_on"`
	AuthorID    string     `json:"author_id" db:"author_id"`
	CreatedOn   time.Time  `json:"created_on" db:"created_on"`
	UpdatedOn   time.Time  `json:"updated_on" db:"updated_on"`
}

// IsActiveAt reports whether the announcement is published and not yet expired
func (a *Announcement) IsActiveAt(now time.Time) bool {
	if a.PublishedOn.After(now) {
		return false
	}
	return a.ExpiresOn == nil || a.ExpiresOn.After(now)
}

// Validate checks the announcement's fields
func (a *Announcement) Validate() []FieldError {
	var errors []FieldError

	title := strings.TrimSpace(a.Title)
	if title == "" {
		errors = append(errors, FieldError{Field: "title", Message: "title is required"})
	} else if tooLong(title, MaxAnnouncementTitleLength) {
		errors = append(errors, FieldError{Field: "title", Message: "title exceeds maximum length"})
	}

	body := strings.TrimSpace(a.Body)
	if body == "" {
		errors = append(errors, FieldError{Field: "body", Message: "body is required"})
	} else if tooLong(body, MaxAnnouncementBodyLength) {
		errors = append(errors, FieldError{Field: "body", Message: "body exceeds maximum length"})
	}

	if !a.Audience.IsValid() {
		errors = append(errors, FieldError{Field: "audience", Message: "audience must be all, parents, or volunteers"})
	}
	if a.ExpiresOn != nil && !a.ExpiresOn.After(a.PublishedOn) {
		errors = append(errors, FieldError{Field: "expires_on", Message: "expires_on must be after published_on"})
	}

	return errors
}

// CreateAnnouncementRequest represents a request to post an announcement
type CreateAnnouncementRequest struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Audience    Audience   `json:"audience"`
	Pinned      bool       `json:"pinned"`
	PublishedOn *time.Time `json:"published_on,omitempty"` // defaults to now
	ExpiresOn   *time.Time `json:"expires_on,omitempty"`
}

// ToAnnouncement builds an announcement authored by authorID
func (r *CreateAnnouncementRequest) ToAnnouncement(authorID string, now time.Time) *Announcement {
	audience := r.Audience
	if audience == "" {
		audience = AudienceAll
	}
	published := now
	if r.PublishedOn != nil {
		published = *r.PublishedOn
	}
	return &Announcement{
		Title:       strings.TrimSpace(r.Title),
		Body:        strings.TrimSpace(r.Body),
		Audience:    audience,
		Pinned:      r.Pinned,
		PublishedOn: published,
		ExpiresOn:   r.ExpiresOn,
		AuthorID:    authorID,
	}
}

// UpdateAnnouncementRequest represents a partial update to an announcement
type UpdateAnnouncementRequest struct {
	Title       *string    `json:"title,omitempty"`
	Body        *string    `json:"body,omitempty"`
	Audience    *Audience  `json:"audience,omitempty"`
	Pinned      *bool      `json:"pinned,omitempty"`
	PublishedOn *time.Time `json:"published_on,omitempty"`
	ExpiresOn   *time.Time `json:"expires_on,omitempty"`
}

// ApplyTo copies the set fields onto announcement
func (r *UpdateAnnouncementRequest) ApplyTo(a *Announcement) {
	if r.Title != nil {
		a.Title = strings.TrimSpace(*r.Title)
	}
	if r.Body != nil {
		a.Body = strings.TrimSpace(*r.Body)
	}
	if r.Audience != nil {
		a.Audience = *r.Audience
	}
	if r.Pinned != nil {
		a.Pinned = *r.Pinned
	}
	if r.PublishedOn != nil {
		a.PublishedOn = *r.PublishedOn
	}
	if r.ExpiresOn != nil {
		a.ExpiresOn = r.ExpiresOn
	}
}

// AnnouncementFilter narrows announcement listings
type AnnouncementFilter struct {
	Audiences []Audience // nil = every audience
	ActiveAt  *time.Time // nil = include scheduled and expired
}
