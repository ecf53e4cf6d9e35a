package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/forgo/kinship/api/internal/database"
)

// TestDB provides an isolated SurrealDB environment for testing.
// Each TestDB instance gets a unique namespace to ensure test isolation.
type TestDB struct {
	DB        *database.SurrealDB
	Namespace string
	Database  string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

// getTestConfig returns database config from the environment. ok is false
// when TEST_DB_HOST is unset, in which case database tests are skipped.
func getTestConfig() (cfg database.Config, ok bool) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return database.Config{}, false
	}

	port := os.Getenv("TEST_DB_PORT")
	if port == "" {
		port = "8000"
	}

	user := os.Getenv("TEST_DB_USER")
	if user == "" {
		user = "root"
	}

	password := os.Getenv("TEST_DB_PASSWORD")
	if password == "" {
		password = "root"
	}

	return database.Config{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
	}, true
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New creates an isolated test database with the Kinship schema applied and
// registers cleanup with t. The test is skipped when TEST_DB_HOST is unset.
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg, ok := getTestConfig()
	if !ok {
		t.Skip("testdb: TEST_DB_HOST not set; skipping SurrealDB test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}
	if err := db.ApplySchema(ctx); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: failed to apply schema: %v", err)
	}

	tdb := &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close removes the test namespace and closes the connection. Safe to call twice.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Reset clears every Kinship table while preserving the schema
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	for _, table := range Tables {
		tdb.MustExec(fmt.Sprintf("DELETE FROM %s", table), nil)
	}
}

// Tables lists the tables defined by the Kinship schema
var Tables = []string{
	"user",
	"child",
	"event",
	"participant",
	"volunteer",
	"team_application",
	"volunteer_employee",
	"announcement",
	"inbox_message",
}

// Ctx returns a context with a reasonable timeout for test operations
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// Shared creates a TestDB that can be shared across subtests
type Shared struct {
	*TestDB
}

// NewShared creates a shared test database for use across multiple subtests
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest resets the database and returns the TestDB for use in a subtest.
// Call this at the start of each t.Run() block.
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
