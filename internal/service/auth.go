package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/identity"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 8
	maxPasswordLength = 128
)

// Principal sources
const (
	SourceLocal = "local"
	SourceIdP   = "idp"
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	List(ctx context.Context, role model.UserRole) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	SetRole(ctx context.Context, userID string, role model.UserRole) error
	LinkExternalID(ctx context.Context, userID, externalID string) error
	Delete(ctx context.Context, id string) error
}

// TokenIssuer signs and validates local access tokens
type TokenIssuer interface {
	Sign(claims jwt.Claims) (string, error)
	Validate(token string) (*jwt.Claims, error)
	GetExpiration() time.Duration
}

// IdentityVerifier validates identity-provider ID tokens
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Token, error)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo    UserRepository
	tokens      TokenIssuer
	verifier    IdentityVerifier
	adminEmails map[string]bool
	now         func() time.Time
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo    UserRepository
	Tokens      TokenIssuer
	Verifier    IdentityVerifier // optional; nil disables identity-provider sign-in
	AdminEmails []string         // promoted to admin on first sign-up
	Now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = model.NormalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		userRepo:    cfg.UserRepo,
		tokens:      cfg.Tokens,
		verifier:    cfg.Verifier,
		adminEmails: admins,
		now:         cfg.Now,
	}
}

// Register creates a new user account with email/password
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	email := model.NormalizeEmail(req.Email)
	if !model.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}
	role, err := s.selfSelectedRole(email, req.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:      email,
		Hash:       &hash,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      normalizedPhone(req.Phone),
		Role:       role,
		EmailOptIn: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: user, Token: token}, nil
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	email := model.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Identity-provider accounts have no password
	if user.Hash == nil || *user.Hash == "" {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(req.Password, *user.Hash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: user, Token: token}, nil
}

// SyncResult is the outcome of an identity-provider sync
type SyncResult struct {
	User    *model.User
	Created bool
}

// Sync resolves the local account for a verified identity-provider token.
// Lookup order is external ID, then email (linking the account), then a new account.
func (s *AuthService) Sync(ctx context.Context, rawToken string, req model.SyncRequest) (*SyncResult, error) {
	tok, err := s.verifyIdentity(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByExternalID(ctx, tok.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return &SyncResult{User: user}, nil
	}

	if tok.Email == "" || !model.IsValidEmail(tok.Email) {
		return nil, ErrInvalidEmail
	}

	user, err = s.userRepo.GetByEmail(ctx, tok.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.ExternalID != nil && *user.ExternalID != tok.Subject {
			return nil, ErrExternalIDTaken
		}
		if err := s.userRepo.LinkExternalID(ctx, user.ID, tok.Subject); err != nil {
			return nil, err
		}
		user.ExternalID = &tok.Subject
		return &SyncResult{User: user}, nil
	}

	role, err := s.selfSelectedRole(tok.Email, req.Role)
	if err != nil {
		return nil, err
	}

	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" && last == "" {
		first, last = model.SplitName(tok.Name)
	}
	if first == "" {
		first = strings.SplitN(tok.Email, "@", 2)[0]
	}
	if req.Phone != nil && *req.Phone != "" && !model.IsValidPhone(model.NormalizePhone(*req.Phone)) {
		return nil, validationErr([]model.FieldError{{Field: "phone", Message: "phone must be in E.164 format, e.g. +15550102000"}})
	}

	subject := tok.Subject
	user = &model.User{
		ExternalID: &subject,
		Email:      tok.Email,
		FirstName:  first,
		LastName:   last,
		Phone:      normalizedPhone(req.Phone),
		Role:       role,
		EmailOptIn: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &SyncResult{User: user, Created: true}, nil
}

// Authenticate resolves a bearer token into a principal. Local tokens are
// tried first, then identity-provider tokens. The role always comes from the
// stored account so role changes apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*model.Principal, error) {
	claims, err := s.tokens.Validate(rawToken)
	if err == nil {
		user, err := s.userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrTokenInvalid
		}
		return principalFor(user, SourceLocal), nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if s.verifier == nil {
		return nil, ErrTokenInvalid
	}

	tok, err := s.verifyIdentity(ctx, rawToken)
	if errors.Is(err, ErrIdentityDisabled) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByExternalID(ctx, tok.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotLinked
	}
	return principalFor(user, SourceIdP), nil
}

// VerifyIdentity validates an identity-provider token without resolving an account.
// It backs the sync endpoint, which must accept tokens for accounts not yet linked.
func (s *AuthService) VerifyIdentity(ctx context.Context, rawToken string) error {
	_, err := s.verifyIdentity(ctx, rawToken)
	return err
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a self-service profile update
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error) {
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(user)
	if user.SMSOptIn && user.Phone == nil {
		return nil, validationErr([]model.FieldError{{Field: "sms_opt_in", Message: "sms opt-in requires a phone number"}})
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	// Verify old password if user has one
	if user.Hash != nil && *user.Hash != "" {
		if !checkPassword(req.OldPassword, *user.Hash) {
			return ErrInvalidCredentials
		}
	}

	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) verifyIdentity(ctx context.Context, rawToken string) (*identity.Token, error) {
	if s.verifier == nil {
		return nil, ErrIdentityDisabled
	}
	tok, err := s.verifier.Verify(ctx, rawToken)
	switch {
	case err == nil:
		return tok, nil
	case errors.Is(err, identity.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, identity.ErrNotEnabled):
		return nil, ErrIdentityDisabled
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrUnknownKey):
		return nil, ErrTokenInvalid
	default:
		return nil, err
	}
}

// selfSelectedRole applies sign-up role rules: admin cannot be chosen, and
// configured admin emails are promoted.
func (s *AuthService) selfSelectedRole(email string, requested model.UserRole) (model.UserRole, error) {
	if s.adminEmails[email] {
		return model.RoleAdmin, nil
	}
	switch requested {
	case "":
		return model.RoleParent, nil
	case model.RoleParent, model.RoleVolunteer:
		return requested, nil
	default:
		return "", ErrRoleNotSelectable
	}
}

func (s *AuthService) issueToken(user *model.User) (*model.AccessToken, error) {
	signed, err := s.tokens.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}
	return &model.AccessToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.GetExpiration().Seconds()),
	}, nil
}

func principalFor(user *model.User, source string) *model.Principal {
	return &model.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Source: source,
	}
}

// Helper functions

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func normalizedPhone(phone *string) *string {
	if phone == nil || *phone == "" {
		return nil
	}
	p := model.NormalizePhone(*phone)
	return &p
}
