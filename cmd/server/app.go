package main

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/forgo/kinship/api/internal/handler"
	"github.com/forgo/kinship/api/internal/metrics"
	"github.com/forgo/kinship/api/internal/middleware"
	"github.com/forgo/kinship/api/internal/service"
	"github.com/forgo/kinship/api/pkg/jwt"
)

// appConfig carries the infrastructure the HTTP application is built from
type appConfig struct {
	tokens           *jwt.Service
	verifier         service.IdentityVerifier // nil disables identity-provider sign-in
	email            service.EmailSender      // nil = channel not configured
	sms              service.SMSSender        // nil = channel not configured
	broadcastLimiter *rate.Limiter
	adminEmails      []string
	allowedOrigins   []string
	rateLimiter      *middleware.RateLimiter
	idempotency      middleware.IdempotencyBackend
	metrics          *metrics.Metrics
}

// app is the wired HTTP application
type app struct {
	handler http.Handler
	events  *service.EventService
}

func newApp(st *store, cfg appConfig) *app {
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:    st.users,
		Tokens:      cfg.tokens,
		Verifier:    cfg.verifier,
		AdminEmails: cfg.adminEmails,
	})
	userService := service.NewUserService(service.UserServiceConfig{
		UserRepo: st.users,
	})
	participantService := service.NewParticipantService(service.ParticipantServiceConfig{
		ParticipantRepo: st.participants,
		EventRepo:       st.events,
		ChildRepo:       st.children,
	})
	childService := service.NewChildService(service.ChildServiceConfig{
		ChildRepo:     st.children,
		Registrations: participantService,
	})
	eventService := service.NewEventService(service.EventServiceConfig{
		EventRepo:       st.events,
		ParticipantRepo: st.participants,
		VolunteerRepo:   st.volunteers,
	})
	volunteerService := service.NewVolunteerService(service.VolunteerServiceConfig{
		VolunteerRepo: st.volunteers,
		EventRepo:     st.events,
	})
	teamService := service.NewTeamService(service.TeamServiceConfig{
		AppRepo:    st.applications,
		MemberRepo: st.members,
	})
	announcementService := service.NewAnnouncementService(service.AnnouncementServiceConfig{
		Repo: st.announcements,
	})
	inboxService := service.NewInboxService(service.InboxServiceConfig{
		Repo: st.inbox,
	})
	messagingService := service.NewMessagingService(service.MessagingServiceConfig{
		UserRepo:        st.users,
		EventRepo:       st.events,
		ParticipantRepo: st.participants,
		VolunteerRepo:   st.volunteers,
		MemberRepo:      st.members,
		InboxRepo:       st.inbox,
		Email:           cfg.email,
		SMS:             cfg.sms,
		Limiter:         cfg.broadcastLimiter,
		Recorder:        cfg.metrics,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, routeDeps{
		authenticator: authService,
		rateLimiter:   cfg.rateLimiter,
		idempotency:   cfg.idempotency,
		metrics:       cfg.metrics,
		pinger:        st.pinger,

		auth:          handler.NewAuthHandler(authService),
		users:         handler.NewUsersHandler(userService),
		children:      handler.NewChildHandler(childService),
		events:        handler.NewEventHandler(eventService),
		participants:  handler.NewParticipantHandler(participantService),
		volunteers:    handler.NewVolunteerHandler(volunteerService),
		teams:         handler.NewTeamHandler(teamService),
		announcements: handler.NewAnnouncementHandler(announcementService),
		inbox:         handler.NewInboxHandler(inboxService),
		broadcast:     handler.NewBroadcastHandler(messagingService),
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.allowedOrigins),
		cfg.metrics.Middleware,
		middleware.Compress,
	)

	return &app{handler: wrapped, events: eventService}
}
