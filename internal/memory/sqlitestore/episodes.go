package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

// EpisodeStore implements memory.Episodes over SQLite. Episodes are
// append-only; the table has no update path.
type EpisodeStore struct {
	db *sql.DB
}

var _ memory.Episodes = (*EpisodeStore)(nil)

const episodeColumns = `id, user_id, kind, created_at, mission_id, block_id,
	title, summary, reflection, mood_before, mood_after,
	focus_score, energy_score, time_focused_minutes, time_leaked_minutes,
	leaks, tags, meta`

func (s *EpisodeStore) Create(ctx context.Context, episode schema.Episode) (schema.Episode, error) {
	if err := episode.Validate(); err != nil {
		return schema.Episode{}, serviceerr.Wrap(serviceerr.CodeValidation, err, "create episode")
	}
	leaks, err := marshalJSON(episode.Leaks)
	if err != nil {
		return schema.Episode{}, err
	}
	tags, err := marshalJSON(episode.Tags)
	if err != nil {
		return schema.Episode{}, err
	}
	meta, err := marshalJSON(episode.Meta)
	if err != nil {
		return schema.Episode{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO episodes (`+episodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.ID, episode.UserID, string(episode.Kind),
		formatTime(episode.CreatedAt), episode.MissionID, episode.BlockID,
		episode.Title, episode.Summary, episode.Reflection,
		string(episode.MoodBefore), string(episode.MoodAfter),
		episode.FocusScore, episode.EnergyScore,
		episode.TimeFocusedMinutes, episode.TimeLeakedMinutes,
		leaks, tags, meta)
	if err != nil {
		return schema.Episode{}, fmt.Errorf("sqlitestore: insert episode: %w", err)
	}
	return episode, nil
}

func (s *EpisodeStore) Get(ctx context.Context, id string) (*schema.Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &episode, nil
}

func (s *EpisodeStore) ListForUser(ctx context.Context, userID string, filter memory.EpisodeFilter) ([]schema.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE user_id = ?`
	args := []any{userID}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.MissionID != "" {
		query += ` AND mission_id = ?`
		args = append(args, filter.MissionID)
	}
	if !filter.StartDate.IsZero() {
		start, _ := dayBounds(filter.StartDate)
		query += ` AND created_at >= ?`
		args = append(args, start)
	}
	if !filter.EndDate.IsZero() {
		_, end := dayBounds(filter.EndDate)
		query += ` AND created_at < ?`
		args = append(args, end)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit, 50))
	return s.queryEpisodes(ctx, query, args...)
}

func (s *EpisodeStore) GetRecent(ctx context.Context, userID string, limit int) ([]schema.Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+` FROM episodes
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limitOr(limit, 50))
}

func (s *EpisodeStore) queryEpisodes(ctx context.Context, query string, args ...any) ([]schema.Episode, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []schema.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list episodes: %w", err)
	}
	return episodes, nil
}

func scanEpisode(row rowScanner) (schema.Episode, error) {
	var (
		e                           schema.Episode
		kind, moodBefore, moodAfter string
		createdAt                   sql.NullString
		leaks, tags, meta           string
	)
	err := row.Scan(&e.ID, &e.UserID, &kind, &createdAt, &e.MissionID,
		&e.BlockID, &e.Title, &e.Summary, &e.Reflection, &moodBefore,
		&moodAfter, &e.FocusScore, &e.EnergyScore, &e.TimeFocusedMinutes,
		&e.TimeLeakedMinutes, &leaks, &tags, &meta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Episode{}, err
		}
		return schema.Episode{}, fmt.Errorf("sqlitestore: scan episode: %w", err)
	}
	e.Kind = schema.EpisodeKind(kind)
	e.MoodBefore = schema.EmotionLabel(moodBefore)
	e.MoodAfter = schema.EmotionLabel(moodAfter)
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return schema.Episode{}, err
	}
	if err := unmarshalJSON(leaks, &e.Leaks); err != nil {
		return schema.Episode{}, err
	}
	if err := unmarshalJSON(tags, &e.Tags); err != nil {
		return schema.Episode{}, err
	}
	if err := unmarshalJSON(meta, &e.Meta); err != nil {
		return schema.Episode{}, err
	}
	return e, nil
}
