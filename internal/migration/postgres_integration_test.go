package migration

import (
	"database/sql"
	"os"
	"testing"
	"testing/fstest"

	_ "github.com/lib/pq"
)

// Set POSTGRES_TEST_URL to run, e.g.
// POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func TestPostgresApplyMigrations(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping postgres database: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Exec("DROP TABLE IF EXISTS migration_probe")
		db.Close()
	})

	runner, err := NewRunner(db, fstest.MapFS{
		"001_probe.sql": {Data: []byte("CREATE TABLE migration_probe (id SERIAL PRIMARY KEY);")},
	}, DriverPostgres)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if err := runner.SetVersion(1); err != nil {
		t.Fatalf("SetVersion with $1 placeholder failed: %v", err)
	}
	version, err := runner.GetCurrentVersion()
	if err != nil || version != 1 {
		t.Errorf("expected version 1, got %d (%v)", version, err)
	}
}
