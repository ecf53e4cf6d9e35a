package service

import (
	"context"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// ChildRepository defines the interface for child storage
type ChildRepository interface {
	Create(ctx context.Context, child *model.Child) error
	GetByID(ctx context.Context, id string) (*model.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]*model.Child, error)
	Update(ctx context.Context, child *model.Child) error
	Delete(ctx context.Context, id string) error
}

// RegistrationCanceller cancels a child's active event registrations
type RegistrationCanceller interface {
	CancelForChild(ctx context.Context, childID string) error
}

// ChildService manages a parent's children
type ChildService struct {
	childRepo     ChildRepository
	registrations RegistrationCanceller
	now           func() time.Time
}

// ChildServiceConfig holds configuration for the child service
type ChildServiceConfig struct {
	ChildRepo     ChildRepository
	Registrations RegistrationCanceller
	Now           func() time.Time
}

// NewChildService creates a new child service
func NewChildService(cfg ChildServiceConfig) *ChildService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ChildService{
		childRepo:     cfg.ChildRepo,
		registrations: cfg.Registrations,
		now:           cfg.Now,
	}
}

// List returns the caller's children
func (s *ChildService) List(ctx context.Context, p *model.Principal) ([]*model.Child, error) {
	return s.childRepo.ListByParent(ctx, p.UserID)
}

// Create adds a child to the calling parent's account
func (s *ChildService) Create(ctx context.Context, p *model.Principal, req model.CreateChildRequest) (*model.Child, error) {
	if p.Role != model.RoleParent {
		return nil, ErrParentRequired
	}
	if err := validationErr(req.Validate(s.now())); err != nil {
		return nil, err
	}

	child := req.ToChild(p.UserID)
	if err := s.childRepo.Create(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// Get returns a child visible to the caller: the owning parent or an admin
func (s *ChildService) Get(ctx context.Context, p *model.Principal, childID string) (*model.Child, error) {
	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil || (child.ParentID != p.UserID && !p.IsAdmin()) {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// Update applies a partial update to a child
func (s *ChildService) Update(ctx context.Context, p *model.Principal, childID string, req model.UpdateChildRequest) (*model.Child, error) {
	if err := validationErr(req.Validate(s.now())); err != nil {
		return nil, err
	}
	child, err := s.Get(ctx, p, childID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(child)
	if err := s.childRepo.Update(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// Delete removes a child after cancelling their active registrations
func (s *ChildService) Delete(ctx context.Context, p *model.Principal, childID string) error {
	child, err := s.Get(ctx, p, childID)
	if err != nil {
		return err
	}
	if s.registrations != nil {
		if err := s.registrations.CancelForChild(ctx, child.ID); err != nil {
			return err
		}
	}
	return s.childRepo.Delete(ctx, child.ID)
}
