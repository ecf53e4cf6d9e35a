package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

//go:embed schema/kinship.surql
var surrealSchema string

// SurrealDB is the document-store backend
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB returns an unconnected handle; call Connect before use
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

func (s *SurrealDB) endpoint() string {
	return fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)
}

// Connect dials the websocket endpoint, signs in as the configured root user
// and selects the namespace and database.
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.endpoint())
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, s.endpoint(), err)
	}

	if err := s.prepare(ctx, db); err != nil {
		_ = db.Close(ctx)
		return err
	}

	s.db = db
	return nil
}

func (s *SurrealDB) prepare(ctx context.Context, db *surrealdb.DB) error {
	auth := &surrealdb.Auth{Username: s.config.User, Password: s.config.Password}
	if _, err := db.SignIn(ctx, auth); err != nil {
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}
	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}
	return nil
}

// ApplySchema defines the Kinship tables and indexes. Every statement is
// idempotent so it runs on each start.
func (s *SurrealDB) ApplySchema(ctx context.Context) error {
	return s.Execute(ctx, surrealSchema, nil)
}

// Close is a no-op on a handle that never connected
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} entry per statement
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifyError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord unwraps the {status: "OK", result: [...]} envelope of the
// first statement and returns its first record.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	if resp, ok := first.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, ErrNotFound
				}
				return resultData[0], nil
			}
			// Scalar results such as count()
			if resp["result"] == nil {
				return nil, ErrNotFound
			}
			return resp["result"], nil
		}
	}

	return first, nil
}

// classifyError maps SurrealDB error text onto the package sentinels
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "already contains") || strings.Contains(lower, "already exists") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
