package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", DSN(":memory:"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expectedTables is the sorted list of tables after all migrations.
var expectedTables = []string{
	"donation",
	"event_occurrence",
	"event_template",
	"milestone",
	"registration",
	"schema_version",
	"survey",
	"user",
	"user_milestone",
}

// TestMigrateDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}

	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if len(tables) != len(expectedTables) {
		t.Fatalf("got %d tables, want %d\ngot:  %v\nwant: %v", len(tables), len(expectedTables), tables, expectedTables)
	}
	for i, want := range expectedTables {
		if tables[i] != want {
			t.Errorf("table[%d] = %q, want %q", i, tables[i], want)
		}
	}
}

// TestMigrateDB_Idempotent verifies that running MigrateDB twice produces no errors
// and the version remains the same.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	version1, _ := SchemaVersion(db)

	if err := MigrateDB(db); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}
	version2, _ := SchemaVersion(db)
	if version1 != version2 {
		t.Errorf("version changed after idempotent run: %d -> %d", version1, version2)
	}
}

// TestCascadeAndUnique verifies foreign keys are enforced through the DSN and
// that the registration pair is unique.
func TestCascadeAndUnique(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	now := FormatTime(time.Now())
	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	mustExec(`INSERT INTO user (id, email, first_name, last_name, created_at) VALUES (1, 'a@example.org', 'A', 'B', ?)`, now)
	mustExec(`INSERT INTO event_template (id, name) VALUES (1, 'Workshop')`)
	mustExec(`INSERT INTO event_occurrence (id, template_id, name, start_at) VALUES (1, 1, 'Workshop', ?)`, now)
	mustExec(`INSERT INTO registration (user_id, event_occurrence_id, created_at) VALUES (1, 1, ?)`, now)

	_, err := db.Exec(`INSERT INTO registration (user_id, event_occurrence_id, created_at) VALUES (1, 1, ?)`, now)
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate registration error = %v, want unique violation", err)
	}

	_, err = db.Exec(`INSERT INTO registration (user_id, event_occurrence_id, created_at) VALUES (1, 99, ?)`, now)
	if err == nil {
		t.Error("expected foreign key failure for unknown occurrence")
	}

	mustExec(`DELETE FROM event_template WHERE id = 1`)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM registration`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("registrations after template delete = %d, want 0 (cascade)", n)
	}
}

// TestOpen_File verifies Open migrates a file database and enables WAL.
func TestOpen_File(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "outreach.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

// TestTimeHelpers verifies UTC storage and null handling.
func TestTimeHelpers(t *testing.T) {
	loc := time.FixedZone("NZDT", 13*3600)
	in := time.Date(2026, 1, 2, 9, 0, 0, 0, loc)
	if got := FormatTime(in); got != "2026-01-01T20:00:00Z" {
		t.Errorf("FormatTime = %q", got)
	}
	if NullTime(nil) != nil {
		t.Error("NullTime(nil) should be nil")
	}
	p, err := ParseNullTime(sql.NullString{})
	if err != nil || p != nil {
		t.Errorf("ParseNullTime(null) = %v, %v", p, err)
	}
	p, err = ParseNullTime(sql.NullString{String: "2026-01-01T20:00:00Z", Valid: true})
	if err != nil || !p.Equal(in) {
		t.Errorf("ParseNullTime = %v, %v", p, err)
	}
	if IsUniqueViolation(nil) || IsUniqueViolation(errors.New("other")) {
		t.Error("IsUniqueViolation false positive")
	}
}
