package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

const (
	// defaultBlockMinutes is used when neither the mission nor the
	// request supplies a block length.
	defaultBlockMinutes = 25
	// proposalStartHour is the naive anchor for proposed sessions.
	proposalStartHour = 9
)

// TimelineTools manages blocks on the user's timeline.
type TimelineTools struct {
	blocks memory.Blocks
	clock  func() time.Time
}

func NewTimelineTools(blocks memory.Blocks, opts ...Option) *TimelineTools {
	s := newSettings(opts)
	return &TimelineTools{blocks: blocks, clock: s.clock}
}

// ProposeBlocks drafts up to count sessions for the mission, one per day
// starting today at 09:00 UTC. Days the mission marks off are skipped,
// not rescheduled, so the proposal shrinks when they collide.
func (t *TimelineTools) ProposeBlocks(mission schema.Mission, count int) []schema.ProposedBlock {
	if count <= 0 {
		count = 5
	}
	duration := defaultBlockMinutes
	if len(mission.Preferences.PreferredBlockLengths) > 0 {
		duration = mission.Preferences.PreferredBlockLengths[0]
	}

	now := t.clock().UTC()
	proposals := make([]schema.ProposedBlock, 0, count)
	for i := 0; i < count; i++ {
		day := now.AddDate(0, 0, i)
		if isDayOff(day, mission.Constraints.DaysOff) {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), proposalStartHour, 0, 0, 0, time.UTC)
		proposals = append(proposals, schema.ProposedBlock{
			Title:                    fmt.Sprintf("%s - Session %d", mission.Title, len(proposals)+1),
			SuggestedDate:            start,
			SuggestedDurationMinutes: duration,
			SequenceIndex:            len(proposals),
		})
	}
	return proposals
}

// isDayOff checks the weekday against the mission's days-off list, which
// uses 0=Monday indices.
func isDayOff(day time.Time, daysOff []int) bool {
	weekday := (int(day.Weekday()) + 6) % 7
	for _, off := range daysOff {
		if off == weekday {
			return true
		}
	}
	return false
}

// CommitBlocks persists proposed blocks as planned blocks on the
// mission's timeline.
func (t *TimelineTools) CommitBlocks(ctx context.Context, mission schema.Mission, proposals []schema.ProposedBlock) ([]schema.Block, error) {
	committed := make([]schema.Block, 0, len(proposals))
	for _, p := range proposals {
		block := schema.Block{
			ID:                     schema.NewID(),
			UserID:                 mission.UserID,
			MissionID:              mission.ID,
			SequenceIndex:          p.SequenceIndex,
			ScheduledStart:         p.SuggestedDate,
			PlannedDurationMinutes: p.SuggestedDurationMinutes,
			Status:                 schema.BlockStatusPlanned,
			Title:                  p.Title,
			PlanNote:               p.PlanNote,
		}
		if !p.SuggestedDate.IsZero() && p.SuggestedDurationMinutes > 0 {
			block.ScheduledEnd = p.SuggestedDate.Add(time.Duration(p.SuggestedDurationMinutes) * time.Minute)
		}
		created, err := t.blocks.Create(ctx, block)
		if err != nil {
			return committed, err
		}
		committed = append(committed, created)
	}
	return committed, nil
}

// CreateBlock fills in id, status, and sequence and persists the block.
// The sequence index continues the mission's existing block ordering.
func (t *TimelineTools) CreateBlock(ctx context.Context, block schema.Block) (schema.Block, error) {
	if block.ID == "" {
		block.ID = schema.NewID()
	}
	if block.Status == "" {
		block.Status = schema.BlockStatusPlanned
	}
	if block.PlannedDurationMinutes <= 0 {
		block.PlannedDurationMinutes = defaultBlockMinutes
	}
	if block.MissionID != "" && block.SequenceIndex == 0 {
		existing, err := t.blocks.ListForMission(ctx, block.MissionID, memory.BlockListOptions{})
		if err != nil {
			return schema.Block{}, err
		}
		block.SequenceIndex = len(existing)
	}
	return t.blocks.Create(ctx, block)
}

// GetBlock returns (nil, nil) when the block does not exist.
func (t *TimelineTools) GetBlock(ctx context.Context, id string) (*schema.Block, error) {
	return t.blocks.Get(ctx, id)
}

// StartBlock moves the block to in_progress, demoting any other running
// block of the same user.
func (t *TimelineTools) StartBlock(ctx context.Context, blockID string) (schema.Block, error) {
	return t.blocks.StartExclusive(ctx, blockID, t.clock().UTC())
}

// CompleteBlock closes the block with an outcome. completionRatio may be
// nil when the user did not rate it.
func (t *TimelineTools) CompleteBlock(ctx context.Context, blockID, outcomeNote string, completionRatio *float64) (schema.Block, error) {
	return t.close(ctx, blockID, schema.BlockStatusCompleted, func(b *schema.Block) {
		b.OutcomeNote = outcomeNote
		b.CompletionRatio = completionRatio
		b.ActualEnd = t.clock().UTC()
	})
}

// CancelBlock marks the block cancelled.
func (t *TimelineTools) CancelBlock(ctx context.Context, blockID string) (schema.Block, error) {
	return t.close(ctx, blockID, schema.BlockStatusCancelled, nil)
}

// SkipBlock marks a planned block skipped.
func (t *TimelineTools) SkipBlock(ctx context.Context, blockID string) (schema.Block, error) {
	return t.close(ctx, blockID, schema.BlockStatusSkipped, nil)
}

func (t *TimelineTools) close(ctx context.Context, blockID string, status schema.BlockStatus, mutate func(*schema.Block)) (schema.Block, error) {
	stored, err := t.blocks.Get(ctx, blockID)
	if err != nil {
		return schema.Block{}, err
	}
	if stored == nil {
		return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", blockID)
	}
	updated := *stored
	updated.Status = status
	if mutate != nil {
		mutate(&updated)
	}
	return t.blocks.Update(ctx, updated)
}

// UpdatePlan rewrites the block's plan note.
func (t *TimelineTools) UpdatePlan(ctx context.Context, blockID, planNote string) (schema.Block, error) {
	stored, err := t.blocks.Get(ctx, blockID)
	if err != nil {
		return schema.Block{}, err
	}
	if stored == nil {
		return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", blockID)
	}
	updated := *stored
	updated.PlanNote = planNote
	return t.blocks.Update(ctx, updated)
}

// TodayBlocks lists the user's blocks scheduled for the current UTC day.
func (t *TimelineTools) TodayBlocks(ctx context.Context, userID string) ([]schema.Block, error) {
	return t.blocks.ListForUserDate(ctx, userID, t.clock().UTC())
}

// CurrentBlock returns the user's in-progress block, or nil.
func (t *TimelineTools) CurrentBlock(ctx context.Context, userID string) (*schema.Block, error) {
	return t.blocks.GetCurrentBlock(ctx, userID)
}

// NextPlannedBlock picks the next planned block. The scopes are
// exclusive: with a mission id only that mission's blocks are
// considered, by earliest scheduled start; without one the first
// planned block on today's timeline wins. Nil when nothing is planned
// in the chosen scope.
func (t *TimelineTools) NextPlannedBlock(ctx context.Context, userID, missionID string) (*schema.Block, error) {
	if missionID != "" {
		planned, err := t.blocks.ListForMission(ctx, missionID, memory.BlockListOptions{Status: schema.BlockStatusPlanned})
		if err != nil {
			return nil, err
		}
		var next *schema.Block
		for i := range planned {
			b := &planned[i]
			if next == nil || beforeScheduled(*b, *next) {
				next = b
			}
		}
		if next == nil {
			return nil, nil
		}
		out := *next
		return &out, nil
	}
	today, err := t.TodayBlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range today {
		if b.Status == schema.BlockStatusPlanned {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

// beforeScheduled orders blocks by scheduled start; unscheduled blocks
// sort last.
func beforeScheduled(a, b schema.Block) bool {
	if a.ScheduledStart.IsZero() {
		return false
	}
	if b.ScheduledStart.IsZero() {
		return true
	}
	return a.ScheduledStart.Before(b.ScheduledStart)
}
