package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// DSN builds the SQLite connection string used in production and tests.
// WAL for concurrent readers, a busy timeout so writers queue instead of
// failing, and immediate transactions so a read-then-write transaction
// holds the write lock from BEGIN.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)&_txlock=immediate"
}

// schema is the baseline (version 1) schema.
const schema = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	created_at TEXT NOT NULL,
	failed_logins INTEGER NOT NULL DEFAULT 0,
	locked_until TEXT
);

CREATE TABLE IF NOT EXISTS listing (
	id TEXT PRIMARY KEY,
	region TEXT NOT NULL,
	venue TEXT NOT NULL,
	competition TEXT NOT NULL DEFAULT '',
	day INTEGER NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	registration_time TEXT NOT NULL DEFAULT '',
	late_registration_time TEXT NOT NULL DEFAULT '',
	buy_in TEXT NOT NULL DEFAULT '',
	re_buy TEXT NOT NULL DEFAULT '',
	starting_stack TEXT NOT NULL DEFAULT '',
	is_one_off INTEGER NOT NULL DEFAULT 0,
	event_date TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listing_region_day ON listing(region, day);

CREATE TABLE IF NOT EXISTS favorite (
	account_id TEXT NOT NULL,
	venue TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (account_id, venue),
	FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS confirmation_aggregate (
	key TEXT PRIMARY KEY,
	identity TEXT NOT NULL,
	week_bucket TEXT NOT NULL,
	listing_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	last_confirmed_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS confirmation_entry (
	aggregate_key TEXT NOT NULL,
	user_id TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	confirmed_at TEXT NOT NULL,
	PRIMARY KEY (aggregate_key, user_id),
	FOREIGN KEY (aggregate_key) REFERENCES confirmation_aggregate(key)
);
`

// migrations lists schema changes after the baseline, in order.
// Index i upgrades the database to version i+2.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_confirmation_identity ON confirmation_aggregate(identity, week_bucket)`,
}

// LatestSchemaVersion returns the schema version MigrateDB upgrades to.
func LatestSchemaVersion() int {
	return len(migrations) + 1
}

// InitDB creates the baseline schema.
// PRE: db is a valid database connection
// POST: All baseline tables exist
func InitDB(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// MigrateDB brings the database to LatestSchemaVersion.
// PRE: db is a valid database connection
// POST: schema_version holds LatestSchemaVersion; re-running is a no-op
func MigrateDB(db *sql.DB) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if current == 0 {
		if err := InitDB(db); err != nil {
			return err
		}
		if err := setVersion(ctx, db, 1); err != nil {
			return err
		}
		current = 1
	}

	for v := current + 1; v <= LatestSchemaVersion(); v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v-2]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", v)
	}
	return nil
}

func setVersion(ctx context.Context, db *sql.DB, v int) error {
	_, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", v)
	return err
}

// SchemaVersion returns the highest applied schema version, 0 for a blank database.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}
