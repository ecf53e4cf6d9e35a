package service

import (
	"context"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// InboxRepository defines the interface for in-app message storage
type InboxRepository interface {
	Create(ctx context.Context, msg *model.InboxMessage) error
	GetByID(ctx context.Context, id string) (*model.InboxMessage, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.InboxMessage, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// InboxService exposes a user's in-app messages
type InboxService struct {
	repo InboxRepository
	now  func() time.Time
}

// InboxServiceConfig holds configuration for the inbox service
type InboxServiceConfig struct {
	Repo InboxRepository
	Now  func() time.Time
}

// NewInboxService creates a new inbox service
func NewInboxService(cfg InboxServiceConfig) *InboxService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &InboxService{repo: cfg.Repo, now: cfg.Now}
}

// List returns the caller's messages, newest first
func (s *InboxService) List(ctx context.Context, p *model.Principal, unreadOnly bool) ([]*model.InboxMessage, error) {
	return s.repo.ListByUser(ctx, p.UserID, unreadOnly)
}

// UnreadCount returns how many of the caller's messages are unread
func (s *InboxService) UnreadCount(ctx context.Context, p *model.Principal) (int, error) {
	return s.repo.CountUnread(ctx, p.UserID)
}

// MarkRead marks one of the caller's messages read. Already read messages keep their timestamp.
func (s *InboxService) MarkRead(ctx context.Context, p *model.Principal, id string) (*model.InboxMessage, error) {
	msg, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if msg.IsRead() {
		return msg, nil
	}

	now := s.now()
	if err := s.repo.MarkRead(ctx, msg.ID, now); err != nil {
		return nil, err
	}
	msg.ReadOn = &now
	return msg, nil
}

// Delete removes one of the caller's messages
func (s *InboxService) Delete(ctx context.Context, p *model.Principal, id string) error {
	msg, err := s.owned(ctx, p, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, msg.ID)
}

func (s *InboxService) owned(ctx context.Context, p *model.Principal, id string) (*model.InboxMessage, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.UserID != p.UserID {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}
