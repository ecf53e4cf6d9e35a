// Package testdb provides isolated SurrealDB databases for tests.
//
// Each TestDB gets its own namespace with the Kinship schema applied, and the
// namespace is removed when the test finishes:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    results := tdb.MustQuery("SELECT * FROM user", nil)
//	}
//
// Tests are skipped unless TEST_DB_HOST is set. TEST_DB_PORT, TEST_DB_USER
// and TEST_DB_PASSWORD default to 8000, root and root.
//
// For subtests that can share a schema, NewShared plus SetupSubtest clears
// every table between runs.
package testdb
