package main

// End-to-end tests for the wired application. They run against a real
// SurrealDB instance and are skipped when TEST_DB_HOST is unset.
//
//  1. Start SurrealDB: surreal start memory -A --user root --pass root
//  2. Run: TEST_DB_HOST=localhost go test ./cmd/server/...

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/kinship/api/internal/metrics"
	"github.com/forgo/kinship/api/internal/middleware"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/testing/fixtures"
	"github.com/forgo/kinship/api/internal/testing/helpers"
	"github.com/forgo/kinship/api/internal/testing/testdb"
	"github.com/forgo/kinship/api/pkg/jwt"
)

type testServer struct {
	handler  http.Handler
	fixtures *fixtures.Factory
	tokens   *jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testdb.New(t)
	tokens := helpers.NewTestJWTService(t)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Rate: 1000, Window: time.Minute})
	t.Cleanup(rateLimiter.Stop)
	idempotency := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	t.Cleanup(idempotency.Stop)

	a := newApp(newSurrealStore(tdb.DB), appConfig{
		tokens:         tokens,
		allowedOrigins: []string{"http://localhost:3000"},
		rateLimiter:    rateLimiter,
		idempotency:    idempotency,
		metrics:        metrics.New(),
	})

	return &testServer{
		handler:  a.handler,
		fixtures: fixtures.New(tdb.DB),
		tokens:   tokens,
	}
}

func (s *testServer) as(t *testing.T, user *model.User, method, path string) *helpers.RequestBuilder {
	t.Helper()
	return helpers.NewRequest(t, method, path).WithToken(helpers.TokenFor(t, s.tokens, user))
}

// ============================================================================
// Infrastructure
// ============================================================================

func TestServer_Health_DatabaseReachable_OK(t *testing.T) {
	s := newTestServer(t)

	resp := helpers.NewRequest(t, http.MethodGet, "/health").Do(s.handler)

	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Contains(t, resp.Body.String(), `"ok"`)
}

func TestServer_Metrics_Exposed(t *testing.T) {
	s := newTestServer(t)

	helpers.NewRequest(t, http.MethodGet, "/health").Do(s.handler)
	resp := helpers.NewRequest(t, http.MethodGet, "/metrics").Do(s.handler)

	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "kinship_http_requests_total")
}

// ============================================================================
// Auth
// ============================================================================

func TestServer_RegisterThenMe_ReturnsSameAccount(t *testing.T) {
	s := newTestServer(t)

	resp := helpers.NewRequest(t, http.MethodPost, "/api/auth/register").
		WithBody(model.RegisterRequest{
			Email:     "Parent@Example.com",
			Password:  "correct-horse",
			FirstName: "Pat",
			LastName:  "Parent",
		}).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	var auth model.AuthResponse
	helpers.DecodeData(t, resp, &auth)
	require.NotNil(t, auth.Token)
	require.NotNil(t, auth.User)
	assert.Equal(t, "parent@example.com", auth.User.Email)
	assert.Equal(t, model.RoleParent, auth.User.Role)

	resp = helpers.NewRequest(t, http.MethodGet, "/api/auth/me").
		WithToken(auth.Token.Token).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusOK)

	var me model.User
	helpers.DecodeData(t, resp, &me)
	assert.Equal(t, auth.User.ID, me.ID)
	assert.Equal(t, "Pat", me.FirstName)
}

func TestServer_Login_WrongPassword_Unauthorized(t *testing.T) {
	s := newTestServer(t)
	user := s.fixtures.CreateUser(t)

	resp := helpers.NewRequest(t, http.MethodPost, "/api/auth/login").
		WithBody(model.LoginRequest{Email: user.Email, Password: "not-the-password"}).
		Do(s.handler)

	helpers.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestServer_ProtectedRoute_NoToken_Unauthorized(t *testing.T) {
	s := newTestServer(t)

	resp := helpers.NewRequest(t, http.MethodGet, "/api/children").Do(s.handler)

	helpers.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestServer_AdminRoute_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	parent := s.fixtures.CreateUser(t)
	admin := s.fixtures.CreateAdmin(t)

	resp := s.as(t, parent, http.MethodGet, "/api/admin/users").Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusForbidden)

	resp = s.as(t, admin, http.MethodGet, "/api/admin/users").Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusOK)

	var users []*model.User
	helpers.DecodeData(t, resp, &users)
	assert.Len(t, users, 2)
}

// ============================================================================
// Registration
// ============================================================================

func TestServer_FullEvent_WaitlistsThenPromotes(t *testing.T) {
	s := newTestServer(t)
	admin := s.fixtures.CreateAdmin(t)
	parent := s.fixtures.CreateUser(t)
	first := s.fixtures.CreateChild(t, parent, 8)
	second := s.fixtures.CreateChild(t, parent, 9)
	event := s.fixtures.CreateEvent(t, admin, fixtures.WithCapacity(1))

	path := "/api/events/" + event.ID + "/participants"

	resp := s.as(t, parent, http.MethodPost, path).
		WithBody(model.RegisterParticipantRequest{ChildID: first.ID}).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var registered model.Participant
	helpers.DecodeData(t, resp, &registered)
	assert.Equal(t, model.ParticipantRegistered, registered.Status)

	resp = s.as(t, parent, http.MethodPost, path).
		WithBody(model.RegisterParticipantRequest{ChildID: second.ID}).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var waitlisted model.Participant
	helpers.DecodeData(t, resp, &waitlisted)
	assert.Equal(t, model.ParticipantWaitlisted, waitlisted.Status)

	resp = s.as(t, parent, http.MethodPost, path).
		WithBody(model.RegisterParticipantRequest{ChildID: first.ID}).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusConflict)

	resp = s.as(t, parent, http.MethodDelete, "/api/participants/"+registered.ID).Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusNoContent)

	promoted, err := s.fixtures.Participants.GetByID(t.Context(), waitlisted.ID)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, model.ParticipantRegistered, promoted.Status)
}

func TestServer_DeleteEvent_WithRegistrations_Conflict(t *testing.T) {
	s := newTestServer(t)
	admin := s.fixtures.CreateAdmin(t)
	parent := s.fixtures.CreateUser(t)
	child := s.fixtures.CreateChild(t, parent, 7)
	event := s.fixtures.CreateEvent(t, admin)
	s.fixtures.Register(t, event, child, model.ParticipantRegistered)

	resp := s.as(t, admin, http.MethodDelete, "/api/events/"+event.ID).Do(s.handler)

	helpers.AssertStatus(t, resp, http.StatusConflict)
}

// ============================================================================
// Idempotency
// ============================================================================

func TestServer_IdempotencyKey_ReplaysCreate(t *testing.T) {
	s := newTestServer(t)
	parent := s.fixtures.CreateUser(t)

	body := model.CreateChildRequest{FirstName: "Sam", LastName: "Parent", BirthDate: "2017-04-02"}

	first := s.as(t, parent, http.MethodPost, "/api/children").
		WithBody(body).
		WithHeader("Idempotency-Key", "create-sam").
		Do(s.handler)
	helpers.AssertStatus(t, first, http.StatusCreated)

	second := s.as(t, parent, http.MethodPost, "/api/children").
		WithBody(body).
		WithHeader("Idempotency-Key", "create-sam").
		Do(s.handler)
	helpers.AssertStatus(t, second, http.StatusCreated)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	children, err := s.fixtures.Children.ListByParent(t.Context(), parent.ID)
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

// ============================================================================
// Messaging
// ============================================================================

func TestServer_BroadcastToParents_LandsInInbox(t *testing.T) {
	s := newTestServer(t)
	admin := s.fixtures.CreateAdmin(t)
	parent := s.fixtures.CreateUser(t)
	volunteer := s.fixtures.CreateVolunteer(t)

	resp := s.as(t, admin, http.MethodPost, "/api/admin/broadcast").
		WithBody(model.BroadcastMessageRequest{
			Subject:    "Picnic moved",
			Message:    "The picnic is now on Sunday.",
			Channels:   []model.Channel{model.ChannelInbox, model.ChannelEmail},
			Categories: []model.RecipientCategory{model.CategoryParents},
		}).
		Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusOK)

	var report model.BroadcastMessageResponse
	helpers.DecodeData(t, resp, &report)
	assert.Equal(t, 1, report.TotalRecipients)
	assert.Equal(t, 1, report.Sent[model.ChannelInbox])
	assert.Equal(t, 1, report.Skipped[model.ChannelEmail], "email channel is not configured")

	resp = s.as(t, parent, http.MethodGet, "/api/inbox/unread-count").Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var unread model.UnreadCount
	helpers.DecodeData(t, resp, &unread)
	assert.Equal(t, 1, unread.Unread)

	resp = s.as(t, volunteer, http.MethodGet, "/api/inbox/unread-count").Do(s.handler)
	helpers.AssertStatus(t, resp, http.StatusOK)
	helpers.DecodeData(t, resp, &unread)
	assert.Equal(t, 0, unread.Unread)
}
