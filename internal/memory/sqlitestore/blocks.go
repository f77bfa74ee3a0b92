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

// BlockStore implements memory.Blocks over SQLite.
type BlockStore struct {
	db *sql.DB
}

var _ memory.Blocks = (*BlockStore)(nil)

const blockColumns = `id, user_id, mission_id, sequence_index,
	scheduled_start, scheduled_end, planned_duration_minutes,
	actual_start, actual_end, status, title, plan_note, outcome_note,
	completion_ratio, location_hint, device_hint, version`

func (s *BlockStore) Create(ctx context.Context, block schema.Block) (schema.Block, error) {
	if block.Version == 0 {
		block.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO blocks (`+blockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		block.ID, block.UserID, block.MissionID, block.SequenceIndex,
		formatTime(block.ScheduledStart), formatTime(block.ScheduledEnd),
		block.PlannedDurationMinutes,
		formatTime(block.ActualStart), formatTime(block.ActualEnd),
		string(block.Status), block.Title, block.PlanNote, block.OutcomeNote,
		block.CompletionRatio, block.LocationHint, block.DeviceHint, block.Version)
	if err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: insert block: %w", err)
	}
	return block, nil
}

func (s *BlockStore) Get(ctx context.Context, id string) (*schema.Block, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id)
	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *BlockStore) Update(ctx context.Context, block schema.Block) (schema.Block, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE blocks SET
		user_id = ?, mission_id = ?, sequence_index = ?,
		scheduled_start = ?, scheduled_end = ?, planned_duration_minutes = ?,
		actual_start = ?, actual_end = ?, status = ?, title = ?,
		plan_note = ?, outcome_note = ?, completion_ratio = ?,
		location_hint = ?, device_hint = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		block.UserID, block.MissionID, block.SequenceIndex,
		formatTime(block.ScheduledStart), formatTime(block.ScheduledEnd),
		block.PlannedDurationMinutes,
		formatTime(block.ActualStart), formatTime(block.ActualEnd),
		string(block.Status), block.Title, block.PlanNote, block.OutcomeNote,
		block.CompletionRatio, block.LocationHint, block.DeviceHint,
		block.ID, block.Version)
	if err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: update block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: update block: %w", err)
	}
	if affected == 0 {
		existing, err := s.Get(ctx, block.ID)
		if err != nil {
			return schema.Block{}, err
		}
		if existing == nil {
			return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", block.ID)
		}
		return schema.Block{}, serviceerr.New(serviceerr.CodeConflict, "block %s version %d is stale (stored %d)", block.ID, block.Version, existing.Version)
	}
	block.Version++
	return block, nil
}

func (s *BlockStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete block: %w", err)
	}
	return affected > 0, nil
}

func (s *BlockStore) ListForMission(ctx context.Context, missionID string, opts memory.BlockListOptions) ([]schema.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE mission_id = ?`
	args := []any{missionID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY sequence_index ASC, scheduled_start ASC LIMIT ?`
	args = append(args, limitOr(opts.Limit, 100))
	return s.queryBlocks(ctx, query, args...)
}

func (s *BlockStore) ListForUserDate(ctx context.Context, userID string, day time.Time) ([]schema.Block, error) {
	start, end := dayBounds(day)
	return s.queryBlocks(ctx, `SELECT `+blockColumns+` FROM blocks
		WHERE user_id = ? AND scheduled_start >= ? AND scheduled_start < ?
		ORDER BY scheduled_start ASC`, userID, start, end)
}

func (s *BlockStore) GetCurrentBlock(ctx context.Context, userID string) (*schema.Block, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks
		WHERE user_id = ? AND status = ? ORDER BY actual_start DESC LIMIT 1`,
		userID, string(schema.BlockStatusInProgress))
	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *BlockStore) StartExclusive(ctx context.Context, blockID string, at time.Time) (schema.Block, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: start block: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, blockID)
	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", blockID)
	}
	if err != nil {
		return schema.Block{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE blocks SET status = ?, version = version + 1
		WHERE user_id = ? AND status = ? AND id != ?`,
		string(schema.BlockStatusPlanned), block.UserID,
		string(schema.BlockStatusInProgress), blockID); err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: demote blocks: %w", err)
	}

	block.Status = schema.BlockStatusInProgress
	block.ActualStart = at.UTC()
	block.Version++
	if _, err := tx.ExecContext(ctx, `UPDATE blocks SET status = ?, actual_start = ?, version = ?
		WHERE id = ?`,
		string(block.Status), formatTime(block.ActualStart), block.Version, blockID); err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: start block: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return schema.Block{}, fmt.Errorf("sqlitestore: start block: %w", err)
	}
	return block, nil
}

func (s *BlockStore) queryBlocks(ctx context.Context, query string, args ...any) ([]schema.Block, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []schema.Block
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list blocks: %w", err)
	}
	return blocks, nil
}

func scanBlock(row rowScanner) (schema.Block, error) {
	var (
		b                                schema.Block
		status                           string
		schedStart, schedEnd             sql.NullString
		actualStart, actualEnd           sql.NullString
		ratio                            sql.NullFloat64
	)
	err := row.Scan(&b.ID, &b.UserID, &b.MissionID, &b.SequenceIndex,
		&schedStart, &schedEnd, &b.PlannedDurationMinutes,
		&actualStart, &actualEnd, &status, &b.Title, &b.PlanNote,
		&b.OutcomeNote, &ratio, &b.LocationHint, &b.DeviceHint, &b.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Block{}, err
		}
		return schema.Block{}, fmt.Errorf("sqlitestore: scan block: %w", err)
	}
	b.Status = schema.BlockStatus(status)
	if b.ScheduledStart, err = parseTime(schedStart); err != nil {
		return schema.Block{}, err
	}
	if b.ScheduledEnd, err = parseTime(schedEnd); err != nil {
		return schema.Block{}, err
	}
	if b.ActualStart, err = parseTime(actualStart); err != nil {
		return schema.Block{}, err
	}
	if b.ActualEnd, err = parseTime(actualEnd); err != nil {
		return schema.Block{}, err
	}
	if ratio.Valid {
		v := ratio.Float64
		b.CompletionRatio = &v
	}
	return b, nil
}
