package main

import (
	"net/http"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/handler"
	"github.com/forgo/kinship/api/internal/metrics"
	"github.com/forgo/kinship/api/internal/middleware"
)

type routeDeps struct {
	authenticator middleware.Authenticator
	rateLimiter   *middleware.RateLimiter
	idempotency   middleware.IdempotencyBackend
	metrics       *metrics.Metrics
	pinger        database.Pinger

	auth          *handler.AuthHandler
	users         *handler.UsersHandler
	children      *handler.ChildHandler
	events        *handler.EventHandler
	participants  *handler.ParticipantHandler
	volunteers    *handler.VolunteerHandler
	teams         *handler.TeamHandler
	announcements *handler.AnnouncementHandler
	inbox         *handler.InboxHandler
	broadcast     *handler.BroadcastHandler
}

func registerRoutes(mux *http.ServeMux, d routeDeps) {
	// Public and sync routes are limited per client IP; protected routes per user
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RateLimit(d.rateLimiter),
			middleware.Idempotency(d.idempotency),
		)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.Auth(d.authenticator),
			middleware.RateLimit(d.rateLimiter),
			middleware.Idempotency(d.idempotency),
		)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.Auth(d.authenticator),
			middleware.AdminAuth(),
			middleware.RateLimit(d.rateLimiter),
			middleware.Idempotency(d.idempotency),
		)
	}

	// Operational endpoints
	mux.HandleFunc("GET /health", handler.Health(d.pinger))
	mux.Handle("GET /metrics", d.metrics.Handler())

	// Auth
	mux.Handle("POST /api/auth/register", public(d.auth.Register))
	mux.Handle("POST /api/auth/login", public(d.auth.Login))
	mux.Handle("POST /api/auth/sync", public(d.auth.Sync))
	mux.Handle("GET /api/auth/me", protected(d.auth.Me))
	mux.Handle("PATCH /api/auth/me", protected(d.auth.UpdateMe))
	mux.Handle("POST /api/auth/password", protected(d.auth.ChangePassword))

	// User administration
	mux.Handle("GET /api/admin/users", admin(d.users.List))
	mux.Handle("GET /api/admin/users/{userId}", admin(d.users.Get))
	mux.Handle("PATCH /api/admin/users/{userId}/role", admin(d.users.SetRole))
	mux.Handle("DELETE /api/admin/users/{userId}", admin(d.users.Delete))

	// Children
	mux.Handle("GET /api/children", protected(d.children.List))
	mux.Handle("POST /api/children", protected(d.children.Create))
	mux.Handle("GET /api/children/{childId}", protected(d.children.Get))
	mux.Handle("PATCH /api/children/{childId}", protected(d.children.Update))
	mux.Handle("DELETE /api/children/{childId}", protected(d.children.Delete))

	// Events
	mux.Handle("GET /api/events", protected(d.events.List))
	mux.Handle("GET /api/events/{eventId}", protected(d.events.Get))
	mux.Handle("POST /api/events", admin(d.events.Create))
	mux.Handle("PATCH /api/events/{eventId}", admin(d.events.Update))
	mux.Handle("POST /api/events/{eventId}/cancel", admin(d.events.Cancel))
	mux.Handle("DELETE /api/events/{eventId}", admin(d.events.Delete))

	// Participants
	mux.Handle("POST /api/events/{eventId}/participants", protected(d.participants.Register))
	mux.Handle("GET /api/events/{eventId}/participants", admin(d.participants.ListByEvent))
	mux.Handle("GET /api/participants/mine", protected(d.participants.ListMine))
	mux.Handle("DELETE /api/participants/{participantId}", protected(d.participants.Cancel))

	// Volunteers
	mux.Handle("POST /api/events/{eventId}/volunteers", protected(d.volunteers.SignUp))
	mux.Handle("GET /api/events/{eventId}/volunteers", admin(d.volunteers.ListByEvent))
	mux.Handle("DELETE /api/events/{eventId}/volunteers/me", protected(d.volunteers.CancelMine))
	mux.Handle("GET /api/volunteers/mine", protected(d.volunteers.ListMine))

	// Teams
	mux.Handle("POST /api/team-applications", protected(d.teams.Apply))
	mux.Handle("GET /api/team-applications/mine", protected(d.teams.ListMine))
	mux.Handle("POST /api/team-applications/{id}/withdraw", protected(d.teams.Withdraw))
	mux.Handle("GET /api/admin/team-applications", admin(d.teams.List))
	mux.Handle("POST /api/admin/team-applications/{id}/review", admin(d.teams.Review))
	mux.Handle("GET /api/admin/team-members", admin(d.teams.Members))
	mux.Handle("DELETE /api/admin/team-members/{id}", admin(d.teams.RemoveMember))

	// Announcements
	mux.Handle("GET /api/announcements", protected(d.announcements.List))
	mux.Handle("GET /api/announcements/{id}", protected(d.announcements.Get))
	mux.Handle("POST /api/announcements", admin(d.announcements.Create))
	mux.Handle("PATCH /api/announcements/{id}", admin(d.announcements.Update))
	mux.Handle("DELETE /api/announcements/{id}", admin(d.announcements.Delete))

	// Inbox
	mux.Handle("GET /api/inbox", protected(d.inbox.List))
	mux.Handle("GET /api/inbox/unread-count", protected(d.inbox.UnreadCount))
	mux.Handle("POST /api/inbox/{messageId}/read", protected(d.inbox.MarkRead))
	mux.Handle("DELETE /api/inbox/{messageId}", protected(d.inbox.Delete))

	// Broadcast
	mux.Handle("POST /api/admin/broadcast", admin(d.broadcast.Send))
	mux.Handle("GET /api/admin/broadcast/categories", admin(d.broadcast.Categories))
}
