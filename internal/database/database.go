package database

import (
	"context"
	"errors"
)

// Backend-neutral failures. Both the SurrealDB and Postgres layers wrap their
// driver errors in one of these so services can match with errors.Is.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record") // unique index, e.g. user email or one registration per child
	ErrConnection = errors.New("database connection error")
	ErrQuery      = errors.New("query error")
)

// Pinger is implemented by every backend and used by health checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database is the SurrealQL connection the document-store repositories run on.
// Query returns one {status, result} envelope per statement. QueryOne returns
// the first record of the first statement, or ErrNotFound. Execute discards
// results.
type Database interface {
	Pinger
	Connect(ctx context.Context) error
	Close() error

	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config addresses a SurrealDB namespace and database
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
