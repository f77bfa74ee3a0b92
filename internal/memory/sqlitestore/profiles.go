package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

// ProfileStore implements memory.Profiles over SQLite.
type ProfileStore struct {
	db    *sql.DB
	clock func() time.Time
}

var _ memory.Profiles = (*ProfileStore)(nil)

const profileColumns = `user_id, created_at, updated_at, display_name,
	preferences, stats, persona_notes, version`

func (s *ProfileStore) Get(ctx context.Context, userID string) (*schema.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileStore) Create(ctx context.Context, profile schema.UserProfile) (schema.UserProfile, error) {
	if profile.Version == 0 {
		profile.Version = 1
	}
	prefs, err := marshalJSON(profile.Preferences)
	if err != nil {
		return schema.UserProfile{}, err
	}
	stats, err := marshalJSON(profile.Stats)
	if err != nil {
		return schema.UserProfile{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID, formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt),
		profile.DisplayName, prefs, stats, profile.PersonaNotes, profile.Version)
	if err != nil {
		return schema.UserProfile{}, fmt.Errorf("sqlitestore: insert profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileStore) Update(ctx context.Context, profile schema.UserProfile) (schema.UserProfile, error) {
	prefs, err := marshalJSON(profile.Preferences)
	if err != nil {
		return schema.UserProfile{}, err
	}
	stats, err := marshalJSON(profile.Stats)
	if err != nil {
		return schema.UserProfile{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET
		created_at = ?, updated_at = ?, display_name = ?, preferences = ?,
		stats = ?, persona_notes = ?, version = version + 1
		WHERE user_id = ? AND version = ?`,
		formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt),
		profile.DisplayName, prefs, stats, profile.PersonaNotes,
		profile.UserID, profile.Version)
	if err != nil {
		return schema.UserProfile{}, fmt.Errorf("sqlitestore: update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return schema.UserProfile{}, fmt.Errorf("sqlitestore: update profile: %w", err)
	}
	if affected == 0 {
		existing, err := s.Get(ctx, profile.UserID)
		if err != nil {
			return schema.UserProfile{}, err
		}
		if existing == nil {
			return schema.UserProfile{}, serviceerr.New(serviceerr.CodeNotFound, "profile for user %s not found", profile.UserID)
		}
		return schema.UserProfile{}, serviceerr.New(serviceerr.CodeConflict, "profile for user %s version %d is stale (stored %d)", profile.UserID, profile.Version, existing.Version)
	}
	profile.Version++
	return profile, nil
}

func (s *ProfileStore) GetOrCreate(ctx context.Context, userID string) (schema.UserProfile, error) {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return schema.UserProfile{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	now := s.clock().UTC()
	profile := schema.UserProfile{
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Preferences: schema.DefaultUserPreferences(),
		Version:     1,
	}
	return s.Create(ctx, profile)
}

func scanProfile(row rowScanner) (schema.UserProfile, error) {
	var (
		p                    schema.UserProfile
		createdAt, updatedAt sql.NullString
		prefs, stats         string
	)
	err := row.Scan(&p.UserID, &createdAt, &updatedAt, &p.DisplayName,
		&prefs, &stats, &p.PersonaNotes, &p.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.UserProfile{}, err
		}
		return schema.UserProfile{}, fmt.Errorf("sqlitestore: scan profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return schema.UserProfile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return schema.UserProfile{}, err
	}
	if err := unmarshalJSON(prefs, &p.Preferences); err != nil {
		return schema.UserProfile{}, err
	}
	if err := unmarshalJSON(stats, &p.Stats); err != nil {
		return schema.UserProfile{}, err
	}
	return p, nil
}
