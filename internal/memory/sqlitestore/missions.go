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

// MissionStore implements memory.Missions over SQLite.
type MissionStore struct {
	db *sql.DB
}

var _ memory.Missions = (*MissionStore)(nil)

const missionColumns = `id, user_id, title, description, kind, status, priority,
	created_at, updated_at, planned_start_date, deadline_date,
	estimated_total_minutes, tags, graph_links, constraints, preferences,
	archived, version`

func (s *MissionStore) Create(ctx context.Context, mission schema.Mission) (schema.Mission, error) {
	if mission.Version == 0 {
		mission.Version = 1
	}
	tags, err := marshalJSON(mission.Tags)
	if err != nil {
		return schema.Mission{}, err
	}
	links, err := marshalJSON(mission.GraphLinks)
	if err != nil {
		return schema.Mission{}, err
	}
	constraints, err := marshalJSON(mission.Constraints)
	if err != nil {
		return schema.Mission{}, err
	}
	prefs, err := marshalJSON(mission.Preferences)
	if err != nil {
		return schema.Mission{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO missions (`+missionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mission.ID, mission.UserID, mission.Title, mission.Description,
		string(mission.Kind), string(mission.Status), string(mission.Priority),
		formatTime(mission.CreatedAt), formatTime(mission.UpdatedAt),
		formatTime(mission.PlannedStartDate), formatTime(mission.DeadlineDate),
		mission.EstimatedTotalMinutes, tags, links, constraints, prefs,
		mission.Archived, mission.Version)
	if err != nil {
		return schema.Mission{}, fmt.Errorf("sqlitestore: insert mission: %w", err)
	}
	return mission, nil
}

func (s *MissionStore) Get(ctx context.Context, id string) (*schema.Mission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = ?`, id)
	mission, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mission, nil
}

func (s *MissionStore) Update(ctx context.Context, mission schema.Mission) (schema.Mission, error) {
	tags, err := marshalJSON(mission.Tags)
	if err != nil {
		return schema.Mission{}, err
	}
	links, err := marshalJSON(mission.GraphLinks)
	if err != nil {
		return schema.Mission{}, err
	}
	constraints, err := marshalJSON(mission.Constraints)
	if err != nil {
		return schema.Mission{}, err
	}
	prefs, err := marshalJSON(mission.Preferences)
	if err != nil {
		return schema.Mission{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE missions SET
		user_id = ?, title = ?, description = ?, kind = ?, status = ?, priority = ?,
		created_at = ?, updated_at = ?, planned_start_date = ?, deadline_date = ?,
		estimated_total_minutes = ?, tags = ?, graph_links = ?, constraints = ?,
		preferences = ?, archived = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		mission.UserID, mission.Title, mission.Description,
		string(mission.Kind), string(mission.Status), string(mission.Priority),
		formatTime(mission.CreatedAt), formatTime(mission.UpdatedAt),
		formatTime(mission.PlannedStartDate), formatTime(mission.DeadlineDate),
		mission.EstimatedTotalMinutes, tags, links, constraints, prefs,
		mission.Archived, mission.ID, mission.Version)
	if err != nil {
		return schema.Mission{}, fmt.Errorf("sqlitestore: update mission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return schema.Mission{}, fmt.Errorf("sqlitestore: update mission: %w", err)
	}
	if affected == 0 {
		existing, err := s.Get(ctx, mission.ID)
		if err != nil {
			return schema.Mission{}, err
		}
		if existing == nil {
			return schema.Mission{}, serviceerr.New(serviceerr.CodeNotFound, "mission %s not found", mission.ID)
		}
		return schema.Mission{}, serviceerr.New(serviceerr.CodeConflict, "mission %s version %d is stale (stored %d)", mission.ID, mission.Version, existing.Version)
	}
	mission.Version++
	return mission, nil
}

func (s *MissionStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM missions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete mission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete mission: %w", err)
	}
	return affected > 0, nil
}

func (s *MissionStore) ListForUser(ctx context.Context, userID string, opts memory.MissionListOptions) ([]schema.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE user_id = ?`
	args := []any{userID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limitOr(opts.Limit, 50), opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list missions: %w", err)
	}
	defer rows.Close()

	var missions []schema.Mission
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list missions: %w", err)
	}
	return missions, nil
}

func (s *MissionStore) GetActiveMission(ctx context.Context, userID string) (*schema.Mission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions
		WHERE user_id = ? AND status = ? ORDER BY updated_at DESC, id DESC LIMIT 1`,
		userID, string(schema.MissionStatusActive))
	mission, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mission, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMission(row rowScanner) (schema.Mission, error) {
	var (
		m                                 schema.Mission
		kind, status, priority            string
		createdAt, updatedAt              sql.NullString
		plannedStart, deadline            sql.NullString
		tags, links, constraints, prefs   string
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Description, &kind, &status,
		&priority, &createdAt, &updatedAt, &plannedStart, &deadline,
		&m.EstimatedTotalMinutes, &tags, &links, &constraints, &prefs,
		&m.Archived, &m.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Mission{}, err
		}
		return schema.Mission{}, fmt.Errorf("sqlitestore: scan mission: %w", err)
	}
	m.Kind = schema.MissionKind(kind)
	m.Status = schema.MissionStatus(status)
	m.Priority = schema.MissionPriority(priority)
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return schema.Mission{}, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return schema.Mission{}, err
	}
	if m.PlannedStartDate, err = parseTime(plannedStart); err != nil {
		return schema.Mission{}, err
	}
	if m.DeadlineDate, err = parseTime(deadline); err != nil {
		return schema.Mission{}, err
	}
	if err := unmarshalJSON(tags, &m.Tags); err != nil {
		return schema.Mission{}, err
	}
	if err := unmarshalJSON(links, &m.GraphLinks); err != nil {
		return schema.Mission{}, err
	}
	if err := unmarshalJSON(constraints, &m.Constraints); err != nil {
		return schema.Mission{}, err
	}
	if err := unmarshalJSON(prefs, &m.Preferences); err != nil {
		return schema.Mission{}, err
	}
	return m, nil
}
