package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// Migrator applies schema migrations in order
type Migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// getMigrations returns all available migrations in order
func getMigrations() []migration {
	return []migration{
		{
			version: 1,
			name:    "initial_schema",
			up:      initialSchema,
		},
	}
}

const initialSchema = `
CREATE TABLE IF NOT EXISTS personas (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	display_name TEXT NOT NULL,
	archetype TEXT NOT NULL,
	specialization TEXT NOT NULL DEFAULT '',
	voice TEXT NOT NULL DEFAULT '',
	intervention_style TEXT NOT NULL DEFAULT '',
	focus_area TEXT NOT NULL DEFAULT '',
	domain_knowledge TEXT NOT NULL DEFAULT '[]',
	domain_metrics TEXT NOT NULL DEFAULT '[]',
	custom_instructions TEXT NOT NULL DEFAULT '',
	preferences TEXT,
	collaborators TEXT NOT NULL DEFAULT '[]',
	primary_focus TEXT NOT NULL DEFAULT '',
	defer_to TEXT NOT NULL DEFAULT '{}',
	active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_personas_project ON personas(project_id, active);

CREATE TABLE IF NOT EXISTS conversation_messages (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	conversation_id TEXT NOT NULL,
	sender_id TEXT NOT NULL DEFAULT '',
	sender_type TEXT NOT NULL,
	content TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	confidence REAL,
	reply_to TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON conversation_messages(conversation_id, seq);

CREATE TABLE IF NOT EXISTS conversation_summaries (
	conversation_id TEXT PRIMARY KEY,
	summary TEXT NOT NULL DEFAULT '',
	last_summary_at TIMESTAMP,
	message_count_at_summary INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS project_memory (
	id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	type TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	importance INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at TIMESTAMP,
	PRIMARY KEY (project_id, key)
);

CREATE INDEX IF NOT EXISTS idx_project_memory_type ON project_memory(project_id, type);
`

// Migrate applies all pending migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.version <= currentVersion {
			continue
		}

		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// CurrentVersion returns the current schema version
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var version int
	query := "SELECT COALESCE(MAX(version), 0) FROM migrations"
	if err := m.db.conn.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}

	return version, nil
}

// ensureMigrationsTable creates the migrations table if it doesn't exist
func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := m.db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// applyMigration applies a single migration within a transaction
func (m *Migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitSQL(mig.up) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("statement failed: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name) VALUES (?, ?)",
			mig.version, mig.name,
		)
		return err
	})
}

// splitSQL splits a migration script into individual statements
func splitSQL(script string) []string {
	return strings.Split(script, ";")
}
