// Package model defines domain entities and data structures for the Kinship API.
//
// The model package contains the struct definitions for domain objects,
// request/response types, and error definitions. Models are shared by the
// handler, service and repository layers.
//
// # Domain Entities
//
//   - User: account with a role of parent, volunteer or admin
//   - Child: a child managed by a parent account
//   - Event: scheduled activity visible to an Audience
//   - Participant: a child's registration (or waitlist spot) for an event
//   - Volunteer: a user's signup to help at an event
//   - TeamApplication / VolunteerEmployee: requests to join a team and the resulting roster
//   - Announcement: audience-scoped notice
//   - InboxMessage: in-app message, the inbox broadcast channel
//
// # Validation
//
// Request types expose Validate methods returning []FieldError, which the
// handler layer renders through NewValidationError:
//
//	if errs := req.Validate(); len(errs) > 0 {
//	    model.NewValidationError(errs).WriteJSON(w)
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
