package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, endedBefore time.Time) (int, error)
}

// EventService handles event scheduling
type EventService struct {
	eventRepo       EventRepository
	participantRepo ParticipantRepository
	volunteerRepo   VolunteerRepository
	now             func() time.Time
}

// EventServiceConfig holds configuration for the event service
type EventServiceConfig struct {
	EventRepo       EventRepository
	ParticipantRepo ParticipantRepository
	VolunteerRepo   VolunteerRepository
	Now             func() time.Time
}

// NewEventService creates a new event service
func NewEventService(cfg EventServiceConfig) *EventService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EventService{
		eventRepo:       cfg.EventRepo,
		participantRepo: cfg.ParticipantRepo,
		volunteerRepo:   cfg.VolunteerRepo,
		now:             cfg.Now,
	}
}

// List returns events visible to the caller ordered by start time
func (s *EventService) List(ctx context.Context, p *model.Principal, upcoming bool) ([]*model.Event, error) {
	filter := model.EventFilter{Audiences: model.AudiencesFor(p.Role)}
	if upcoming {
		now := s.now()
		filter.StartsAfter = &now
	}
	return s.eventRepo.List(ctx, filter)
}

// Get returns an event with its registration tallies
func (s *EventService) Get(ctx context.Context, p *model.Principal, eventID string) (*model.EventDetail, error) {
	event, err := s.visibleEvent(ctx, p, eventID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, event)
}

// Create schedules a new event
func (s *EventService) Create(ctx context.Context, p *model.Principal, req model.CreateEventRequest) (*model.Event, error) {
	event := req.ToEvent(p.UserID)
	if err := validationErr(event.Validate()); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	slog.Info("event created", slog.String("event_id", event.ID), slog.String("by", p.UserID))
	return event, nil
}

// Update applies a partial update. Raising capacity promotes waitlisted participants.
func (s *EventService) Update(ctx context.Context, eventID string, req model.UpdateEventRequest) (*model.EventDetail, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(event)
	if err := validationErr(event.Validate()); err != nil {
		return nil, err
	}

	if req.Capacity != nil && event.Capacity > 0 {
		registered, err := s.participantRepo.CountByStatus(ctx, event.ID, model.ParticipantRegistered)
		if err != nil {
			return nil, err
		}
		if registered > event.Capacity {
			return nil, ErrCapacityBelowRegistrations
		}
	}
	if req.VolunteerSlots != nil {
		active, err := s.volunteerRepo.CountActive(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		if active > event.VolunteerSlots {
			return nil, ErrCapacityBelowRegistrations
		}
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	if req.Capacity != nil && event.Status == model.EventStatusScheduled {
		if _, err := fillFromWaitlist(ctx, s.participantRepo, event); err != nil {
			return nil, err
		}
	}
	return s.detail(ctx, event)
}

// Cancel marks a scheduled event cancelled
func (s *EventService) Cancel(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == model.EventStatusCancelled {
		return nil, ErrEventAlreadyCancelled
	}
	if event.Status == model.EventStatusCompleted {
		return nil, ErrEventNotOpen
	}

	event.Status = model.EventStatusCancelled
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	slog.Info("event cancelled", slog.String("event_id", event.ID))
	return event, nil
}

// Delete removes an event that has no active registrations
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}

	for _, status := range []model.ParticipantStatus{model.ParticipantRegistered, model.ParticipantWaitlisted} {
		n, err := s.participantRepo.CountByStatus(ctx, event.ID, status)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrEventHasRegistrations
		}
	}
	volunteers, err := s.volunteerRepo.CountActive(ctx, event.ID)
	if err != nil {
		return err
	}
	if volunteers > 0 {
		return ErrEventHasRegistrations
	}

	return s.eventRepo.Delete(ctx, event.ID)
}

// CompletePastEvents marks scheduled events that have ended as completed
func (s *EventService) CompletePastEvents(ctx context.Context) (int, error) {
	return s.eventRepo.MarkCompleted(ctx, s.now())
}

func (s *EventService) getEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) visibleEvent(ctx context.Context, p *model.Principal, eventID string) (*model.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Audience.VisibleTo(p.Role) {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) detail(ctx context.Context, event *model.Event) (*model.EventDetail, error) {
	registered, err := s.participantRepo.CountByStatus(ctx, event.ID, model.ParticipantRegistered)
	if err != nil {
		return nil, err
	}
	waitlisted, err := s.participantRepo.CountByStatus(ctx, event.ID, model.ParticipantWaitlisted)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.volunteerRepo.CountActive(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &model.EventDetail{
		Event:            event,
		ParticipantCount: registered,
		WaitlistCount:    waitlisted,
		VolunteerCount:   volunteers,
	}, nil
}
