// Package database provides storage connectivity for the Kinship API.
//
// Two backends are supported. The document store path talks to SurrealDB
// through the Database interface; the relational path opens PostgreSQL with
// sqlx and applies the embedded schema migrations with golang-migrate.
//
// # Database Interface
//
//	type Database interface {
//	    Ping(ctx context.Context) error
//	    Connect(ctx context.Context) error
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    Close() error
//	}
//
// QueryOne returns ErrNotFound for an empty result. Repositories translate
// that into a (nil, nil) read.
//
// # Atomic batches
//
// SurrealDB statements that must succeed together are collected in an
// AtomicBatch and sent as one BEGIN/COMMIT block:
//
//	database.NewAtomicBatch().
//	    Add("DELETE child WHERE parent_id = $user", vars).
//	    Add("DELETE type::record($user)", vars).
//	    Execute(ctx, db)
//
// # PostgreSQL
//
//	pg, err := database.OpenPostgres(ctx, database.PostgresConfig{DSN: dsn})
//	if err := database.Migrate(pg.DB.DB); err != nil { ... }
//
// Unique violations (SQLSTATE 23505) are reported as ErrDuplicate by
// MapPostgresError.
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
package database
