// Package service implements the business logic layer for the Kinship API.
//
// The service package contains the domain rules of the application: who may
// see which events, how registrations fill and waitlist, how team applications
// are reviewed, and how admin broadcasts fan out across inbox, email and SMS.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods take the caller's *model.Principal where authorization depends on it
//   - Errors are sentinel values from errors.go, or *ValidationError for per-field problems
//   - Clocks are injectable through the config's Now field
//
// # Repository Interfaces
//
// Services define the repository interfaces they consume. Both storage
// backends (internal/repository and internal/repository/postgres) satisfy them.
//
// # Example Usage
//
//	svc := NewParticipantService(ParticipantServiceConfig{
//	    ParticipantRepo: participants,
//	    EventRepo:       events,
//	    ChildRepo:       children,
//	})
//	p, err := svc.Register(ctx, principal, eventID, model.RegisterParticipantRequest{ChildID: childID})
package service
