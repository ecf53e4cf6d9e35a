package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/forgo/kinship/api/internal/identity"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (*identity.Token, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*identity.Token, error) {
	return m.verifyFunc(ctx, token)
}

func idpTokens(tokens map[string]*identity.Token) *mockVerifier {
	return &mockVerifier{verifyFunc: func(ctx context.Context, token string) (*identity.Token, error) {
		if tok, ok := tokens[token]; ok {
			return tok, nil
		}
		if token == "idp-expired" {
			return nil, identity.ErrTokenExpired
		}
		return nil, identity.ErrInvalidToken
	}}
}

func newTestAuth(t *testing.T, verifier IdentityVerifier, tokenTTL time.Duration) (*AuthService, *memStore, *jwt.Service) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewTestService(key, "kinship-test", tokenTTL)

	store := newMemStore(time.Now)
	svc := NewAuthService(AuthServiceConfig{
		UserRepo:    memUsers{store},
		Tokens:      tokens,
		Verifier:    verifier,
		AdminEmails: []string{" Boss@Example.org "},
	})
	return svc, store, tokens
}

func validRegistration(email string) model.RegisterRequest {
	return model.RegisterRequest{
		Email:     email,
		Password:  "correct horse battery",
		FirstName: "Pat",
		LastName:  "Parent",
	}
}

// ============================================================================
// Register / Login
// ============================================================================

func TestRegister_CreatesParentWithHashedPassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)

	res, err := svc.Register(context.Background(), validRegistration("  Pat@Example.ORG "))

	require.NoError(t, err)
	assert.Equal(t, "pat@example.org", res.User.Email)
	assert.Equal(t, model.RoleParent, res.User.Role)
	require.NotNil(t, res.User.Hash)
	assert.NotEqual(t, "correct horse battery", *res.User.Hash)
	assert.True(t, checkPassword("correct horse battery", *res.User.Hash))
	assert.Equal(t, "Bearer", res.Token.TokenType)
	assert.Equal(t, 3600, res.Token.ExpiresIn)
}

func TestRegister_AdminEmailPromoted(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)

	res, err := svc.Register(context.Background(), validRegistration("boss@example.org"))

	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
}

func TestRegister_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *model.RegisterRequest)
		want   error
	}{
		{"bad email", func(r *model.RegisterRequest) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"no password", func(r *model.RegisterRequest) { r.Password = "" }, ErrPasswordRequired},
		{"short password", func(r *model.RegisterRequest) { r.Password = "short" }, ErrPasswordTooShort},
		{"admin self-selected", func(r *model.RegisterRequest) { r.Role = model.RoleAdmin }, ErrRoleNotSelectable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newTestAuth(t, nil, time.Hour)
			req := validRegistration("someone@example.org")
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req)

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_MissingNames_ValidationError(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)
	req := validRegistration("someone@example.org")
	req.FirstName = ""

	_, err := svc.Register(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "first_name", verr.Fields[0].Field)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)
	_, err := svc.Register(context.Background(), validRegistration("dup@example.org"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration("DUP@example.org"))

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t, nil, time.Hour)
	_, err := svc.Register(context.Background(), validRegistration("pat@example.org"))
	require.NoError(t, err)
	store.seedUser(model.RoleParent, "idp-only@example.org")

	res, err := svc.Login(context.Background(), model.LoginRequest{Email: "PAT@example.org", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token.Token)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "pat@example.org", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.org", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "idp-only@example.org", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ============================================================================
// Authenticate
// ============================================================================

func TestAuthenticate_LocalToken_UsesStoredRole(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t, nil, time.Hour)
	res, err := svc.Register(context.Background(), validRegistration("pat@example.org"))
	require.NoError(t, err)

	// Role changes after the token was issued apply immediately
	require.NoError(t, memUsers{store}.SetRole(context.Background(), res.User.ID, model.RoleVolunteer))

	p, err := svc.Authenticate(context.Background(), res.Token.Token)

	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
	assert.Equal(t, model.RoleVolunteer, p.Role)
	assert.Equal(t, SourceLocal, p.Source)
}

func TestAuthenticate_ExpiredLocalToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, -time.Minute)
	res, err := svc.Register(context.Background(), validRegistration("pat@example.org"))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), res.Token.Token)

	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticate_DeletedUser_Invalid(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t, nil, time.Hour)
	res, err := svc.Register(context.Background(), validRegistration("pat@example.org"))
	require.NoError(t, err)
	require.NoError(t, memUsers{store}.Delete(context.Background(), res.User.ID))

	_, err = svc.Authenticate(context.Background(), res.Token.Token)

	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthenticate_IdPToken(t *testing.T) {
	t.Parallel()
	verifier := idpTokens(map[string]*identity.Token{
		"idp-linked":   {Subject: "uid-1", Email: "linked@example.org"},
		"idp-unlinked": {Subject: "uid-2", Email: "new@example.org"},
	})
	svc, store, _ := newTestAuth(t, verifier, time.Hour)
	linked := store.seedUser(model.RoleVolunteer, "linked@example.org", func(u *model.User) { u.ExternalID = strPtr("uid-1") })

	p, err := svc.Authenticate(context.Background(), "idp-linked")
	require.NoError(t, err)
	assert.Equal(t, linked.ID, p.UserID)
	assert.Equal(t, SourceIdP, p.Source)

	_, err = svc.Authenticate(context.Background(), "idp-unlinked")
	assert.ErrorIs(t, err, ErrAccountNotLinked)

	_, err = svc.Authenticate(context.Background(), "idp-expired")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthenticate_NoVerifier_GarbageInvalid(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)

	_, err := svc.Authenticate(context.Background(), "garbage")

	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// ============================================================================
// Sync
// ============================================================================

func TestSync_FindsLinksOrCreates(t *testing.T) {
	t.Parallel()
	verifier := idpTokens(map[string]*identity.Token{
		"tok-known":   {Subject: "uid-known", Email: "known@example.org"},
		"tok-by-mail": {Subject: "uid-mail", Email: "local@example.org"},
		"tok-new":     {Subject: "uid-new", Email: "fresh@example.org", Name: "Vera Volunteer"},
	})
	svc, store, _ := newTestAuth(t, verifier, time.Hour)
	known := store.seedUser(model.RoleParent, "known@example.org", func(u *model.User) { u.ExternalID = strPtr("uid-known") })
	local := store.seedUser(model.RoleParent, "local@example.org")

	res, err := svc.Sync(context.Background(), "tok-known", model.SyncRequest{})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, known.ID, res.User.ID)

	res, err = svc.Sync(context.Background(), "tok-by-mail", model.SyncRequest{})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, local.ID, res.User.ID)
	stored, _ := memUsers{store}.GetByID(context.Background(), local.ID)
	require.NotNil(t, stored.ExternalID)
	assert.Equal(t, "uid-mail", *stored.ExternalID)

	res, err = svc.Sync(context.Background(), "tok-new", model.SyncRequest{Role: model.RoleVolunteer})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, model.RoleVolunteer, res.User.Role)
	assert.Equal(t, "Vera", res.User.FirstName)
	assert.Equal(t, "Volunteer", res.User.LastName)
	assert.Nil(t, res.User.Hash)
}

func TestSync_EmailLinkedToOtherIdentity(t *testing.T) {
	t.Parallel()
	verifier := idpTokens(map[string]*identity.Token{"tok": {Subject: "uid-b", Email: "taken@example.org"}})
	svc, store, _ := newTestAuth(t, verifier, time.Hour)
	store.seedUser(model.RoleParent, "taken@example.org", func(u *model.User) { u.ExternalID = strPtr("uid-a") })

	_, err := svc.Sync(context.Background(), "tok", model.SyncRequest{})

	assert.ErrorIs(t, err, ErrExternalIDTaken)
}

func TestSync_NoVerifier(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)

	_, err := svc.Sync(context.Background(), "tok", model.SyncRequest{})

	assert.ErrorIs(t, err, ErrIdentityDisabled)
}

// ============================================================================
// Profile / password
// ============================================================================

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t, nil, time.Hour)
	u := store.seedUser(model.RoleParent, "pat@example.org")

	updated, err := svc.UpdateProfile(context.Background(), u.ID, model.UpdateProfileRequest{
		Phone:    strPtr("+1 (555) 010-2000"),
		SMSOptIn: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "+15550102000", updated.PhoneNumber())
	assert.True(t, updated.SMSOptIn)

	_, err = svc.UpdateProfile(context.Background(), u.ID, model.UpdateProfileRequest{Phone: strPtr("")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr, "clearing the phone while opted in to SMS must fail")
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t, nil, time.Hour)
	res, err := svc.Register(context.Background(), validRegistration("pat@example.org"))
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), res.User.ID, model.ChangePasswordRequest{OldPassword: "nope nope nope", NewPassword: "another long one"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), res.User.ID, model.ChangePasswordRequest{OldPassword: "correct horse battery", NewPassword: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = svc.ChangePassword(context.Background(), res.User.ID, model.ChangePasswordRequest{OldPassword: "correct horse battery", NewPassword: "another long one"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "pat@example.org", Password: "another long one"})
	assert.NoError(t, err)
}

func boolPtr(b bool) *bool { return &b }
