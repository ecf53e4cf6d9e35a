package model

import (
	"strings"
)

// Channel is a delivery path for broadcast messages
type Channel string

const (
	ChannelInbox Channel = "inbox"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// IsValid returns true if the channel is known
func (c Channel) IsValid() bool {
	switch c {
	case ChannelInbox, ChannelEmail, ChannelSMS:
		return true
	default:
		return false
	}
}

// RecipientCategory selects a group of accounts as broadcast recipients
type RecipientCategory string

const (
	CategoryAllUsers          RecipientCategory = "all_users"
	CategoryParents           RecipientCategory = "parents"
	CategoryVolunteers        RecipientCategory = "volunteers"
	CategoryAdmins            RecipientCategory = "admins"
	CategoryTeamMembers       RecipientCategory = "team_members"
	CategoryEventParticipants RecipientCategory = "event_participants"
	CategoryEventVolunteers   RecipientCategory = "event_volunteers"
)

// AllCategories lists categories in display order
var AllCategories = []RecipientCategory{
	CategoryAllUsers,
	CategoryParents,
	CategoryVolunteers,
	CategoryAdmins,
	CategoryTeamMembers,
	CategoryEventParticipants,
	CategoryEventVolunteers,
}

// IsValid returns true if the category is known
func (c RecipientCategory) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// RequiresEvent returns true for categories scoped to one event
func (c RecipientCategory) RequiresEvent() bool {
	return c == CategoryEventParticipants || c == CategoryEventVolunteers
}

// Count keys used in BroadcastMessageResponse.CategoryCounts besides the categories themselves
const (
	CountKeySelectedRecipients = "selected_recipients"
	CountKeyDirectContacts     = "direct_contacts"
)

// Broadcast limits
const (
	MaxBroadcastSubjectLength = 200
	MaxBroadcastMessageLength = 10000
	MaxDirectContacts         = 500
)

// BroadcastMessageRequest is an admin request to message many people at once
type BroadcastMessageRequest struct {
	Subject      string              `json:"subject"`
	Message      string              `json:"message"`
	Channels     []Channel           `json:"channels"`
	Categories   []RecipientCategory `json:"categories,omitempty"`
	EventID      *string             `json:"event_id,omitempty"`
	RecipientIDs []string            `json:"recipient_ids,omitempty"`
	DirectEmails []string            `json:"direct_emails,omitempty"`
	DirectPhones []string            `json:"direct_phones,omitempty"`
}

// Validate validates the broadcast request. Invalid direct contacts are not
// field errors; they are dropped with a warning during delivery.
func (r *BroadcastMessageRequest) Validate() []FieldError {
	var errors []FieldError

	subject := strings.TrimSpace(r.Subject)
	if subject == "" {
		errors = append(errors, FieldError{Field: "subject", Message: "subject is required"})
	} else if tooLong(subject, MaxBroadcastSubjectLength) {
		errors = append(errors, FieldError{Field: "subject", Message: "subject exceeds maximum length"})
	}

	message := strings.TrimSpace(r.Message)
	if message == "" {
		errors = append(errors, FieldError{Field: "message", Message: "message is required"})
	} else if tooLong(message, MaxBroadcastMessageLength) {
		errors = append(errors, FieldError{Field: "message", Message: "message exceeds maximum length"})
	}

	if len(r.Channels) == 0 {
		errors = append(errors, FieldError{Field: "channels", Message: "at least one channel is required"})
	}
	for _, ch := range r.Channels {
		if !ch.IsValid() {
			errors = append(errors, FieldError{Field: "channels", Message: "unknown channel " + string(ch)})
		}
	}

	needsEvent := false
	for _, c := range r.Categories {
		if !c.IsValid() {
			errors = append(errors, FieldError{Field: "categories", Message: "unknown category " + string(c)})
		}
		if c.RequiresEvent() {
			needsEvent = true
		}
	}
	if needsEvent && (r.EventID == nil || *r.EventID == "") {
		errors = append(errors, FieldError{Field: "event_id", Message: "event_id is required for event categories"})
	}

	if len(r.DirectEmails)+len(r.DirectPhones) > MaxDirectContacts {
		errors = append(errors, FieldError{Field: "direct_emails", Message: "too many direct contacts"})
	}

	if len(r.Categories) == 0 && len(r.RecipientIDs) == 0 && len(r.DirectEmails) == 0 && len(r.DirectPhones) == 0 {
		errors = append(errors, FieldError{Field: "categories", Message: "select at least one category, recipient, or direct contact"})
	}

	return errors
}

// DistinctChannels returns the requested channels without duplicates, in request order
func (r *BroadcastMessageRequest) DistinctChannels() []Channel {
	seen := make(map[Channel]bool, len(r.Channels))
	out := make([]Channel, 0, len(r.Channels))
	for _, ch := range r.Channels {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

// BroadcastStatus summarizes a broadcast outcome
type BroadcastStatus string

const (
	BroadcastSuccess BroadcastStatus = "success"
	BroadcastPartial BroadcastStatus = "partial"
	BroadcastFailed  BroadcastStatus = "failed"
)

// BroadcastFailure records one failed delivery
type BroadcastFailure struct {
	Channel       Channel `json:"channel"`
	Reason        string  `json:"reason"`
	RecipientID   *string `json:"recipient_id,omitempty"`
	RecipientName *string `json:"recipient_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
}

// BroadcastMessageResponse reports what a broadcast did on every channel
type BroadcastMessageResponse struct {
	BroadcastID       string             `json:"broadcast_id"`
	Subject           string             `json:"subject"`
	RequestedChannels []Channel          `json:"requested_channels"`
	TotalRecipients   int                `json:"total_recipients"`
	Sent              map[Channel]int    `json:"sent"`
	Skipped           map[Channel]int    `json:"skipped"`
	CategoryCounts    map[string]int     `json:"category_counts"`
	UnmatchedContacts []string           `json:"unmatched_contacts"`
	Warnings          []string           `json:"warnings"`
	Failures          []BroadcastFailure `json:"failures"`
	Status            BroadcastStatus    `json:"status"`
}

// CategorySummary is a category with its current recipient count
type CategorySummary struct {
	Category      RecipientCategory `json:"category"`
	Count         int               `json:"count"`
	RequiresEvent bool              `json:"requires_event"`
}
