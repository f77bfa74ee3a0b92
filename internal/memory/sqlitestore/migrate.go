package sqlitestore

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE missions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		planned_start_date TEXT,
		deadline_date TEXT,
		estimated_total_minutes INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',
		graph_links TEXT NOT NULL DEFAULT '[]',
		constraints TEXT NOT NULL DEFAULT '{}',
		preferences TEXT NOT NULL DEFAULT '{}',
		archived INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX idx_missions_user ON missions(user_id, status);`,

	`CREATE TABLE blocks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		mission_id TEXT NOT NULL DEFAULT '',
		sequence_index INTEGER NOT NULL DEFAULT 0,
		scheduled_start TEXT,
		scheduled_end TEXT,
		planned_duration_minutes INTEGER NOT NULL DEFAULT 0,
		actual_start TEXT,
		actual_end TEXT,
		status TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		plan_note TEXT NOT NULL DEFAULT '',
		outcome_note TEXT NOT NULL DEFAULT '',
		completion_ratio REAL,
		location_hint TEXT NOT NULL DEFAULT '',
		device_hint TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX idx_blocks_user_status ON blocks(user_id, status);
	CREATE INDEX idx_blocks_mission ON blocks(mission_id);
	CREATE INDEX idx_blocks_scheduled ON blocks(user_id, scheduled_start);`,

	`CREATE TABLE episodes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL,
		mission_id TEXT NOT NULL DEFAULT '',
		block_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL,
		reflection TEXT NOT NULL DEFAULT '',
		mood_before TEXT NOT NULL DEFAULT '',
		mood_after TEXT NOT NULL DEFAULT '',
		focus_score INTEGER,
		energy_score INTEGER,
		time_focused_minutes INTEGER NOT NULL DEFAULT 0,
		time_leaked_minutes INTEGER NOT NULL DEFAULT 0,
		leaks TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		meta TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX idx_episodes_user_created ON episodes(user_id, created_at);
	CREATE INDEX idx_episodes_mission ON episodes(mission_id);`,

	`CREATE TABLE profiles (
		user_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		preferences TEXT NOT NULL DEFAULT '{}',
		stats TEXT NOT NULL DEFAULT '{}',
		persona_notes TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1
	);`,
}

// Migrate brings the schema up to date. Applied versions are tracked in
// schema_migrations so reopening an existing database is a no-op.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("sqlitestore: create schema_migrations: %w", err)
	}
	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("sqlitestore: read schema version: %w", err)
	}
	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("sqlitestore: begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlitestore: apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlitestore: record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("sqlitestore: commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
