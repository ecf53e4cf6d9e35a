// Package postgres implements the service storage interfaces on PostgreSQL.
//
// Repositories wrap an *sqlx.DB and scan rows straight into the model
// structs through their db tags. Record IDs are random UUIDs generated on
// insert. Lookups that find nothing return (nil, nil), matching the
// SurrealDB repositories, and driver errors are mapped onto the database
// package sentinels with database.MapPostgresError.
//
// The schema lives in internal/database/migrations and is applied by
// database.Migrate at startup.
package postgres
