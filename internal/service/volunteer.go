package service

import (
	"context"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// VolunteerRepository defines the interface for volunteer signup storage
type VolunteerRepository interface {
	Create(ctx context.Context, volunteer *model.Volunteer) error
	GetActive(ctx context.Context, eventID, userID string) (*model.Volunteer, error)
	CountActive(ctx context.Context, eventID string) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Volunteer, error)
	UpdateStatus(ctx context.Context, id string, status model.VolunteerStatus) error
}

// VolunteerService handles volunteer signups for events
type VolunteerService struct {
	volunteerRepo VolunteerRepository
	eventRepo     EventRepository
	now           func() time.Time
}

// VolunteerServiceConfig holds configuration for the volunteer service
type VolunteerServiceConfig struct {
	VolunteerRepo VolunteerRepository
	EventRepo     EventRepository
	Now           func() time.Time
}

// NewVolunteerService creates a new volunteer service
func NewVolunteerService(cfg VolunteerServiceConfig) *VolunteerService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &VolunteerService{
		volunteerRepo: cfg.VolunteerRepo,
		eventRepo:     cfg.EventRepo,
		now:           cfg.Now,
	}
}

// SignUp registers the caller as a volunteer for an event
func (s *VolunteerService) SignUp(ctx context.Context, p *model.Principal, eventID string, req model.VolunteerSignupRequest) (*model.Volunteer, error) {
	if p.Role != model.RoleVolunteer && p.Role != model.RoleAdmin {
		return nil, ErrVolunteerRequired
	}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
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
	if event.Audience == model.AudienceParents {
		return nil, ErrEventAudienceMismatch
	}
	if event.VolunteerSlots == 0 {
		return nil, ErrVolunteersNotNeeded
	}

	existing, err := s.volunteerRepo.GetActive(ctx, event.ID, p.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyVolunteered
	}

	active, err := s.volunteerRepo.CountActive(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if active >= event.VolunteerSlots {
		return nil, ErrVolunteerSlotsFull
	}

	volunteer := &model.Volunteer{
		EventID: event.ID,
		UserID:  p.UserID,
		Role:    trimmedOrNil(req.Role),
		Notes:   req.Notes,
		Status:  model.VolunteerSignedUp,
	}
	if err := s.volunteerRepo.Create(ctx, volunteer); err != nil {
		return nil, err
	}
	return volunteer, nil
}

// Cancel withdraws the caller's active signup for an event
func (s *VolunteerService) Cancel(ctx context.Context, p *model.Principal, eventID string) error {
	volunteer, err := s.volunteerRepo.GetActive(ctx, eventID, p.UserID)
	if err != nil {
		return err
	}
	if volunteer == nil {
		return ErrVolunteerNotFound
	}
	return s.volunteerRepo.UpdateStatus(ctx, volunteer.ID, model.VolunteerCancelled)
}

// ListByEvent returns every signup for an event
func (s *VolunteerService) ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return s.volunteerRepo.ListByEvent(ctx, eventID)
}

// ListMine returns the caller's signups
func (s *VolunteerService) ListMine(ctx context.Context, p *model.Principal) ([]*model.Volunteer, error) {
	return s.volunteerRepo.ListByUser(ctx, p.UserID)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
