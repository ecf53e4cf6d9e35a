package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/kinship/api/internal/config"
	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/repository"
	"github.com/forgo/kinship/api/internal/repository/postgres"
	"github.com/forgo/kinship/api/internal/service"
)

// store is the persistence layer selected by STORAGE_BACKEND
type store struct {
	users         service.UserRepository
	children      service.ChildRepository
	events        service.EventRepository
	participants  service.ParticipantRepository
	volunteers    service.VolunteerRepository
	applications  service.TeamApplicationRepository
	members       service.VolunteerEmployeeRepository
	announcements service.AnnouncementRepository
	inbox         service.InboxRepository

	pinger database.Pinger
	close  func() error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		return openPostgresStore(ctx, cfg.Postgres)
	default:
		return openSurrealStore(ctx, cfg.Database)
	}
}

func openSurrealStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if err := db.ApplySchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	slog.Info("connected to database",
		slog.String("backend", config.BackendSurreal),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)

	return newSurrealStore(db), nil
}

// newSurrealStore builds the document-store repositories over an open connection
func newSurrealStore(db database.Database) *store {
	return &store{
		users:         repository.NewUserRepository(db),
		children:      repository.NewChildRepository(db),
		events:        repository.NewEventRepository(db),
		participants:  repository.NewParticipantRepository(db),
		volunteers:    repository.NewVolunteerRepository(db),
		applications:  repository.NewTeamApplicationRepository(db),
		members:       repository.NewVolunteerEmployeeRepository(db),
		announcements: repository.NewAnnouncementRepository(db),
		inbox:         repository.NewInboxRepository(db),
		pinger:        db,
		close:         db.Close,
	}
}

func openPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*store, error) {
	pg, err := database.OpenPostgres(ctx, database.PostgresConfig{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(pg.DB.DB); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	slog.Info("connected to database",
		slog.String("backend", config.BackendPostgres),
		slog.Bool("migrated", cfg.AutoMigrate),
	)

	return &store{
		users:         postgres.NewUserRepository(pg.DB),
		children:      postgres.NewChildRepository(pg.DB),
		events:        postgres.NewEventRepository(pg.DB),
		participants:  postgres.NewParticipantRepository(pg.DB),
		volunteers:    postgres.NewVolunteerRepository(pg.DB),
		applications:  postgres.NewTeamApplicationRepository(pg.DB),
		members:       postgres.NewVolunteerEmployeeRepository(pg.DB),
		announcements: postgres.NewAnnouncementRepository(pg.DB),
		inbox:         postgres.NewInboxRepository(pg.DB),
		pinger:        pg,
		close:         pg.Close,
	}, nil
}
