package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/forgo/kinship/api/internal/config"
	"github.com/forgo/kinship/api/internal/identity"
	"github.com/forgo/kinship/api/internal/jobs"
	"github.com/forgo/kinship/api/internal/metrics"
	"github.com/forgo/kinship/api/internal/middleware"
	"github.com/forgo/kinship/api/internal/notify"
	"github.com/forgo/kinship/api/internal/service"
	"github.com/forgo/kinship/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize storage
	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = st.close() }()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Identity provider sign-in is optional
	var verifier service.IdentityVerifier
	if cfg.Identity.Enabled() {
		verifier = identity.NewVerifier(identity.Config{
			ProjectID: cfg.Identity.ProjectID,
			CertsURL:  cfg.Identity.CertsURL,
			Issuer:    cfg.Identity.Issuer,
		})
		slog.Info("identity provider sign-in enabled", slog.String("project_id", cfg.Identity.ProjectID))
	}

	// Outbound channels
	var emailSender service.EmailSender
	if cfg.Email.Enabled() {
		sender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			StartTLS: cfg.Email.StartTLS,
			Timeout:  cfg.Email.Timeout,
		})
		if err != nil {
			slog.Error("failed to initialize email channel", slog.String("error", err.Error()))
			os.Exit(1)
		}
		emailSender = sender
	}

	var smsSender service.SMSSender
	if cfg.SMS.Enabled() {
		sender, err := notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.From,
			BaseURL:    cfg.SMS.BaseURL,
			Timeout:    cfg.SMS.Timeout,
		})
		if err != nil {
			slog.Error("failed to initialize SMS channel", slog.String("error", err.Error()))
			os.Exit(1)
		}
		smsSender = sender
	}

	var broadcastLimiter *rate.Limiter
	if cfg.Broadcast.RatePerSec > 0 {
		broadcastLimiter = rate.NewLimiter(rate.Limit(cfg.Broadcast.RatePerSec), max(cfg.Broadcast.Burst, 1))
	}

	m := metrics.New()

	// HTTP rate limiting
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Requests,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	// Idempotency keys are shared through Redis when configured
	var idempotency middleware.IdempotencyBackend
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, idempotency will fail open until it recovers",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		}
		idempotency = middleware.NewRedisIdempotencyStore(client, middleware.RedisIdempotencyConfig{})
	} else {
		memStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
			TTL:     24 * time.Hour,
			Cleanup: time.Hour,
		})
		defer memStore.Stop()
		idempotency = memStore
	}

	a := newApp(st, appConfig{
		tokens:           jwtService,
		verifier:         verifier,
		email:            emailSender,
		sms:              smsSender,
		broadcastLimiter: broadcastLimiter,
		adminEmails:      cfg.Admin.Emails,
		allowedOrigins:   cfg.Server.AllowedOrigins,
		rateLimiter:      rateLimiter,
		idempotency:      idempotency,
		metrics:          m,
	})

	// Scheduled jobs
	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{
		Timeout:  cfg.Jobs.Timeout,
		Recorder: m,
	})
	if err := scheduler.Add(cfg.Jobs.EventCompletionSchedule, jobs.NewEventCompletionJob(a.events)); err != nil {
		slog.Error("invalid job schedule", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("storage", cfg.Storage.Backend),
			slog.Bool("email", emailSender != nil),
			slog.Bool("sms", smsSender != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	scheduler.Stop(shutdownCtx)

	slog.Info("server exited")
}
