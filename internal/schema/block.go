package schema

import "time"

// BlockStatus enumerates the block lifecycle states.
type BlockStatus string

const (
	BlockStatusPlanned    BlockStatus = "planned"
	BlockStatusInProgress BlockStatus = "in_progress"
	BlockStatusCompleted  BlockStatus = "completed"
	BlockStatusCancelled  BlockStatus = "cancelled"
	BlockStatusSkipped    BlockStatus = "skipped"
)

// Block is a single timeboxed focus session within a mission.
type Block struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	MissionID string `json:"mission_id"`

	// SequenceIndex orders blocks within their mission.
	SequenceIndex int `json:"sequence_index"`

	ScheduledStart         time.Time `json:"scheduled_start,omitzero"`
	ScheduledEnd           time.Time `json:"scheduled_end,omitzero"`
	PlannedDurationMinutes int       `json:"planned_duration_minutes,omitempty"`

	ActualStart time.Time `json:"actual_start,omitzero"`
	ActualEnd   time.Time `json:"actual_end,omitzero"`

	Status BlockStatus `json:"status"`

	Title    string `json:"title,omitempty"`
	PlanNote string `json:"plan_note,omitempty"`

	OutcomeNote string `json:"outcome_note,omitempty"`
	// CompletionRatio is 0-1 for how much of the planned work got done.
	// Nil means not recorded.
	CompletionRatio *float64 `json:"completion_ratio,omitempty"`

	LocationHint string `json:"location_hint,omitempty"`
	DeviceHint   string `json:"device_hint,omitempty"`

	Version int `json:"version"`
}
