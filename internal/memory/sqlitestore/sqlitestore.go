// Package sqlitestore provides SQLite-backed implementations of the
// repository contracts in internal/memory. A single database file holds
// all four entity tables; nested structures are stored as JSON text and
// timestamps as RFC3339Nano UTC text.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/emberfocus/ember/internal/memory"
)

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlitestore: path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// modernc's driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent graph runs.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: set pragmas: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewBundle wires all SQLite repositories over one database handle. The
// semantic memory and graph repositories stay in-memory; only durable
// entities live in SQLite.
func NewBundle(db *sql.DB, clock func() time.Time) (memory.Bundle, error) {
	if db == nil {
		return memory.Bundle{}, fmt.Errorf("sqlitestore: db is nil")
	}
	if clock == nil {
		clock = time.Now
	}
	return memory.Bundle{
		Missions: &MissionStore{db: db},
		Blocks:   &BlockStore{db: db},
		Episodes: &EpisodeStore{db: db},
		Profiles: &ProfileStore{db: db, clock: clock},
		Semantic: memory.NewInMemorySemantic(),
		Graph:    memory.NewInMemoryGraph(),
	}, nil
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: marshal: %w", err)
	}
	return string(raw), nil
}

func unmarshalJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("sqlitestore: unmarshal: %w", err)
	}
	return nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlitestore: parse time %q: %w", value.String, err)
	}
	return t.UTC(), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

// dayBounds returns the UTC day of t as an inclusive start and exclusive
// end in RFC3339Nano text, for range scans over timestamp columns.
func dayBounds(t time.Time) (string, string) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start.Format(time.RFC3339Nano), start.AddDate(0, 0, 1).Format(time.RFC3339Nano)
}
