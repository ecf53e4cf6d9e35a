package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// ParticipantRepository defines the interface for participant storage
type ParticipantRepository interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	GetActiveByEventAndChild(ctx context.Context, eventID, childID string) (*model.Participant, error)
	CountByStatus(ctx context.Context, eventID string, status model.ParticipantStatus) (int, error)
	NextWaitlisted(ctx context.Context, eventID string) (*model.Participant, error)
	UpdateStatus(ctx context.Context, id string, status model.ParticipantStatus) error
	ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error)
	ListByParent(ctx context.Context, parentID string) ([]*model.Participant, error)
	ListActiveByChild(ctx context.Context, childID string) ([]*model.Participant, error)
}

// ParticipantService registers children for events
type ParticipantService struct {
	participantRepo ParticipantRepository
	eventRepo       EventRepository
	childRepo       ChildRepository
	now             func() time.Time
}

// ParticipantServiceConfig holds configuration for the participant service
type ParticipantServiceConfig struct {
	ParticipantRepo ParticipantRepository
	EventRepo       EventRepository
	ChildRepo       ChildRepository
	Now             func() time.Time
}

// NewParticipantService creates a new participant service
func NewParticipantService(cfg ParticipantServiceConfig) *ParticipantService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ParticipantService{
		participantRepo: cfg.ParticipantRepo,
		eventRepo:       cfg.EventRepo,
		childRepo:       cfg.ChildRepo,
		now:             cfg.Now,
	}
}

// Register registers the caller's child for an event. When the event is at
// capacity the registration is waitlisted instead.
func (s *ParticipantService) Register(ctx context.Context, p *model.Principal, eventID string, req model.RegisterParticipantRequest) (*model.Participant, error) {
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	child, err := s.childRepo.GetByID(ctx, req.ChildID)
	if err != nil {
		return nil, err
	}
	if child == nil || child.ParentID != p.UserID {
		return nil, ErrChildNotFound
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil || !event.Audience.VisibleTo(p.Role) {
		return nil, ErrEventNotFound
	}
	if !event.IsOpenAt(s.now()) {
		return nil, ErrEventNotOpen
	}
	if event.Audience == model.AudienceVolunteers {
		return nil, ErrEventAudienceMismatch
	}
	if !event.AcceptsAge(child.AgeOn(event.StartTime)) {
		return nil, ErrAgeOutOfRange
	}

	existing, err := s.participantRepo.GetActiveByEventAndChild(ctx, event.ID, child.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	registered, err := s.participantRepo.CountByStatus(ctx, event.ID, model.ParticipantRegistered)
	if err != nil {
		return nil, err
	}
	status := model.ParticipantRegistered
	if !event.HasCapacityFor(registered) {
		status = model.ParticipantWaitlisted
	}

	participant := &model.Participant{
		EventID:  event.ID,
		ChildID:  child.ID,
		ParentID: p.UserID,
		Status:   status,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

// ListByEvent returns every registration for an event
func (s *ParticipantService) ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return s.participantRepo.ListByEvent(ctx, eventID)
}

// ListMine returns registrations made by the calling parent
func (s *ParticipantService) ListMine(ctx context.Context, p *model.Principal) ([]*model.Participant, error) {
	return s.participantRepo.ListByParent(ctx, p.UserID)
}

// Cancel cancels a registration owned by the caller (or any, for admins)
// and promotes from the waitlist when a seat frees up.
func (s *ParticipantService) Cancel(ctx context.Context, p *model.Principal, participantID string) error {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant == nil || (participant.ParentID != p.UserID && !p.IsAdmin()) {
		return ErrParticipantNotFound
	}
	if !participant.Status.IsActive() {
		return ErrAlreadyCancelled
	}
	return s.cancel(ctx, participant)
}

// CancelForChild cancels every active registration of a child
func (s *ParticipantService) CancelForChild(ctx context.Context, childID string) error {
	active, err := s.participantRepo.ListActiveByChild(ctx, childID)
	if err != nil {
		return err
	}
	for _, participant := range active {
		if err := s.cancel(ctx, participant); err != nil {
			return err
		}
	}
	return nil
}

func (s *ParticipantService) cancel(ctx context.Context, participant *model.Participant) error {
	wasRegistered := participant.Status == model.ParticipantRegistered
	if err := s.participantRepo.UpdateStatus(ctx, participant.ID, model.ParticipantCancelled); err != nil {
		return err
	}
	participant.Status = model.ParticipantCancelled

	if !wasRegistered {
		return nil
	}
	event, err := s.eventRepo.GetByID(ctx, participant.EventID)
	if err != nil {
		return err
	}
	if event == nil || event.Status != model.EventStatusScheduled {
		return nil
	}
	_, err = fillFromWaitlist(ctx, s.participantRepo, event)
	return err
}

// fillFromWaitlist promotes waitlisted participants in registration order
// until the event is full or the waitlist is empty.
func fillFromWaitlist(ctx context.Context, repo ParticipantRepository, event *model.Event) (int, error) {
	registered, err := repo.CountByStatus(ctx, event.ID, model.ParticipantRegistered)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for event.HasCapacityFor(registered) {
		next, err := repo.NextWaitlisted(ctx, event.ID)
		if err != nil {
			return promoted, err
		}
		if next == nil {
			break
		}
		if err := repo.UpdateStatus(ctx, next.ID, model.ParticipantRegistered); err != nil {
			return promoted, err
		}
		slog.Info("participant promoted from waitlist",
			slog.String("event_id", event.ID),
			slog.String("participant_id", next.ID),
		)
		registered++
		promoted++
	}
	return promoted, nil
}
