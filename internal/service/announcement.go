package service

import (
	"context"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// AnnouncementRepository defines the interface for announcement storage
type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	List(ctx context.Context, filter model.AnnouncementFilter) ([]*model.Announcement, error)
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService publishes notices to audiences
type AnnouncementService struct {
	repo AnnouncementRepository
	now  func() time.Time
}

// AnnouncementServiceConfig holds configuration for the announcement service
type AnnouncementServiceConfig struct {
	Repo AnnouncementRepository
	Now  func() time.Time
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(cfg AnnouncementServiceConfig) *AnnouncementService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AnnouncementService{repo: cfg.Repo, now: cfg.Now}
}

// List returns active announcements for the caller's audience, pinned first
// then newest. Admins may include scheduled and expired announcements.
func (s *AnnouncementService) List(ctx context.Context, p *model.Principal, includeInactive bool) ([]*model.Announcement, error) {
	filter := model.AnnouncementFilter{Audiences: model.AudiencesFor(p.Role)}
	if !includeInactive || !p.IsAdmin() {
		now := s.now()
		filter.ActiveAt = &now
	}
	return s.repo.List(ctx, filter)
}

// Get returns an announcement visible to the caller
func (s *AnnouncementService) Get(ctx context.Context, p *model.Principal, id string) (*model.Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || !a.Audience.VisibleTo(p.Role) {
		return nil, ErrAnnouncementNotFound
	}
	if !p.IsAdmin() && !a.IsActiveAt(s.now()) {
		return nil, ErrAnnouncementNotFound
	}
	return a, nil
}

// Create publishes an announcement
func (s *AnnouncementService) Create(ctx context.Context, p *model.Principal, req model.CreateAnnouncementRequest) (*model.Announcement, error) {
	a := req.ToAnnouncement(p.UserID, s.now())
	if err := validationErr(a.Validate()); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies a partial update
func (s *AnnouncementService) Update(ctx context.Context, id string, req model.UpdateAnnouncementRequest) (*model.Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAnnouncementNotFound
	}

	req.ApplyTo(a)
	if err := validationErr(a.Validate()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an announcement
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAnnouncementNotFound
	}
	return s.repo.Delete(ctx, id)
}
