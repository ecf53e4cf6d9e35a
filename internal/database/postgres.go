package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres is an open PostgreSQL pool
type Postgres struct {
	*sqlx.DB
}

// OpenPostgres opens and pings a PostgreSQL pool
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pg := &Postgres{DB: db}
	if err := pg.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return pg, nil
}

// Ping checks the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// MapPostgresError maps driver errors onto the package sentinels
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}
