package service

import (
	"context"
	"log/slog"

	"github.com/forgo/kinship/api/internal/model"
)

// UserService handles admin management of accounts
type UserService struct {
	userRepo UserRepository
}

// UserServiceConfig holds configuration for the user service
type UserServiceConfig struct {
	UserRepo UserRepository
}

// NewUserService creates a new user service
func NewUserService(cfg UserServiceConfig) *UserService {
	return &UserService{userRepo: cfg.UserRepo}
}

// List returns accounts, optionally filtered by role
func (s *UserService) List(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	if role != "" && !role.IsValid() {
		return nil, validationErr([]model.FieldError{{Field: "role", Message: "role must be parent, volunteer, or admin"}})
	}
	return s.userRepo.List(ctx, role)
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetRole changes an account's role. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actor *model.Principal, userID string, req model.SetRoleRequest) (*model.User, error) {
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}
	if actor.UserID == userID && req.Role != model.RoleAdmin {
		return nil, ErrCannotModifySelf
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}

	if err := s.userRepo.SetRole(ctx, userID, req.Role); err != nil {
		return nil, err
	}
	slog.Info("user role changed",
		slog.String("user_id", userID),
		slog.String("from", string(user.Role)),
		slog.String("to", string(req.Role)),
		slog.String("by", actor.UserID),
	)
	user.Role = req.Role
	return user, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *model.Principal, userID string) error {
	if actor.UserID == userID {
		return ErrCannotModifySelf
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	slog.Info("user deleted", slog.String("user_id", userID), slog.String("by", actor.UserID))
	return nil
}
