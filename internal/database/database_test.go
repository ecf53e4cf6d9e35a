package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ============================================================================
// TxBuilder / AtomicBatch
// ============================================================================

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	tb.Add("UPDATE type::record($id) SET status = $status", map[string]interface{}{"id": "participant:1", "status": "cancelled"})
	tb.Add("UPDATE type::record($id) SET status = $status;", map[string]interface{}{"id": "participant:2", "status": "registered"})

	query, vars := tb.Build()

	if !strings.HasPrefix(query, "BEGIN TRANSACTION;") || !strings.HasSuffix(query, "COMMIT TRANSACTION;") {
		t.Fatalf("expected transaction block, got %q", query)
	}
	if strings.Contains(query, ";;") {
		t.Errorf("expected single terminators, got %q", query)
	}
	if vars["v1_id"] != "participant:1" || vars["v2_id"] != "participant:2" {
		t.Errorf("unexpected vars %v", vars)
	}
	if !strings.Contains(query, "$v2_status") {
		t.Errorf("expected namespaced variable in %q", query)
	}
}

func TestTxBuilder_LongerNamesReplacedFirst(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	tb.Add("SELECT * FROM user WHERE id = $id OR id IN $id_list", map[string]interface{}{"id": "a", "id_list": []string{"b"}})
	query, _ := tb.Build()

	if !strings.Contains(query, "$v1_id_list") || strings.Contains(query, "$v1_v1_") {
		t.Errorf("unexpected rewrite %q", query)
	}
}

func TestTxBuilder_EmptyBuild(t *testing.T) {
	t.Parallel()

	if query, vars := NewTxBuilder().Build(); query != "" || vars != nil {
		t.Errorf("expected empty build, got %q %v", query, vars)
	}
}

type recordingDB struct {
	Database
	queries []string
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	r.queries = append(r.queries, query)
	return nil
}

func TestAtomicBatch_ExecutesOnce(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	batch := NewAtomicBatch().
		Add("DELETE child WHERE parent_id = $user", map[string]interface{}{"user": "user:1"}).
		Add("DELETE type::record($user)", map[string]interface{}{"user": "user:1"})

	if batch.Len() != 2 {
		t.Errorf("expected 2 queries, got %d", batch.Len())
	}
	if err := batch.Execute(context.Background(), db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.queries) != 1 {
		t.Fatalf("expected one round trip, got %d", len(db.queries))
	}

	if err := NewAtomicBatch().Execute(context.Background(), db); err != nil || len(db.queries) != 1 {
		t.Errorf("empty batch should be a no-op")
	}
}

// ============================================================================
// SurrealDB result handling
// ============================================================================

func TestFirstRecord(t *testing.T) {
	t.Parallel()

	record := map[string]interface{}{"id": "user:1"}
	tests := []struct {
		name    string
		in      []interface{}
		want    interface{}
		wantErr error
	}{
		{"no statements", nil, nil, ErrNotFound},
		{"empty result", []interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{}}}, nil, ErrNotFound},
		{"first record", []interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{record}}}, record, nil},
		{"scalar", []interface{}{map[string]interface{}{"status": "OK", "result": float64(3)}}, float64(3), nil},
		{"null scalar", []interface{}{map[string]interface{}{"status": "OK", "result": nil}}, nil, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FirstRecord(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil {
				if m, ok := tt.want.(map[string]interface{}); ok {
					if got.(map[string]interface{})["id"] != m["id"] {
						t.Errorf("unexpected record %v", got)
					}
				} else if got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	if err := classifyError("Database index `user_email` already contains 'a@b.c'"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := classifyError("Parse error"); !errors.Is(err, ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestSurrealDB_NotConnected(t *testing.T) {
	t.Parallel()

	db := NewSurrealDB(Config{})
	if err := db.Ping(context.Background()); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
	if _, err := db.Query(context.Background(), "INFO FOR DB", nil); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("close without connect should succeed, got %v", err)
	}
}

// ============================================================================
// PostgreSQL
// ============================================================================

func TestMapPostgresError(t *testing.T) {
	t.Parallel()

	if MapPostgresError(nil) != nil {
		t.Error("expected nil")
	}
	if err := MapPostgresError(&pq.Error{Code: "23505", Constraint: "users_email_key"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := MapPostgresError(&pq.Error{Code: "42P01"}); !errors.Is(err, ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestPostgres_Ping(t *testing.T) {
	t.Parallel()

	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer raw.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("gone"))

	pg := &Postgres{DB: sqlx.NewDb(raw, "postgres")}
	if err := pg.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := pg.Ping(context.Background()); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("expected paired migrations, got %d up / %d down", up, down)
	}
	if !strings.Contains(surrealSchema, "DEFINE INDEX IF NOT EXISTS user_email") {
		t.Error("expected unique email index in surreal schema")
	}
}
