package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{1, "baseline", []string{
		`CREATE TABLE IF NOT EXISTS user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth TEXT,
			role TEXT NOT NULL DEFAULT 'participant' CHECK (role IN ('participant', 'admin')),
			phone TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			zip TEXT NOT NULL DEFAULT '',
			school TEXT NOT NULL DEFAULT '',
			employer TEXT NOT NULL DEFAULT '',
			field_of_interest TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS event_template (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			recurrence_pattern TEXT NOT NULL DEFAULT '',
			default_capacity INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS event_occurrence (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id INTEGER NOT NULL REFERENCES event_template(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT,
			location TEXT NOT NULL DEFAULT '',
			capacity INTEGER,
			registration_deadline TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_occurrence_start ON event_occurrence(start_at)`,
		`CREATE TABLE IF NOT EXISTS registration (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			event_occurrence_id INTEGER NOT NULL REFERENCES event_occurrence(id) ON DELETE CASCADE,
			status TEXT,
			attended INTEGER NOT NULL DEFAULT 0,
			checked_in_at TEXT,
			created_at TEXT NOT NULL,
			UNIQUE (user_id, event_occurrence_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_registration_occurrence ON registration(event_occurrence_id)`,
		`CREATE TABLE IF NOT EXISTS survey (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			registration_id INTEGER NOT NULL UNIQUE REFERENCES registration(id) ON DELETE CASCADE,
			satisfaction INTEGER NOT NULL,
			usefulness INTEGER NOT NULL,
			instructor INTEGER NOT NULL,
			recommendation INTEGER NOT NULL,
			overall_score REAL NOT NULL,
			nps_bucket TEXT NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			submitted_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS milestone (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_milestone (
			user_id INTEGER NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			milestone_id INTEGER NOT NULL REFERENCES milestone(id) ON DELETE CASCADE,
			achieved_at TEXT NOT NULL,
			PRIMARY KEY (user_id, milestone_id)
		)`,
		`CREATE TABLE IF NOT EXISTS donation (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
			donated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_donation_donated_at ON donation(donated_at)`,
	}},
	{2, "login_lockout", []string{
		`ALTER TABLE user ADD COLUMN failed_logins INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE user ADD COLUMN locked_until TEXT`,
	}},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version (0 for a fresh database).
// PRE: db is a valid database connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion
// INVARIANT: Migrations are applied in version order and never re-applied
func MigrateDB(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_event", "event", "migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
