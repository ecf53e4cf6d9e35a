package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// getOne scans a single row into T. No row is (nil, nil).
func getOne[T any](ctx context.Context, db sqlx.QueryerContext, query string, args ...interface{}) (*T, error) {
	var out T
	if err := sqlx.GetContext(ctx, db, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.MapPostgresError(err)
	}
	return &out, nil
}

// getList scans every row into a slice of T
func getList[T any](ctx context.Context, db sqlx.QueryerContext, query string, args ...interface{}) ([]*T, error) {
	out := []*T{}
	if err := sqlx.SelectContext(ctx, db, &out, query, args...); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return out, nil
}

// count runs a SELECT COUNT(*) query
func count(ctx context.Context, db sqlx.QueryerContext, query string, args ...interface{}) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, db, &n, query, args...); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return n, nil
}

// exec runs a statement and returns the affected row count
func exec(ctx context.Context, db sqlx.ExecerContext, query string, args ...interface{}) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return n, nil
}

// namedExec runs a statement with :name parameters bound from arg's db tags
func namedExec(ctx context.Context, db sqlx.ExtContext, query string, arg interface{}) error {
	if _, err := sqlx.NamedExecContext(ctx, db, query, arg); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func utcNow() time.Time {
	return time.Now().UTC()
}
