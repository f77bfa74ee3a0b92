package schema

import "time"

// NudgeLevel controls how pushy reminders are allowed to be.
type NudgeLevel string

const (
	NudgeOff        NudgeLevel = "off"
	NudgeSoft       NudgeLevel = "soft"
	NudgeNormal     NudgeLevel = "normal"
	NudgeAggressive NudgeLevel = "aggressive"
)

// UserPreferences hold user-level defaults for scheduling and tracking.
type UserPreferences struct {
	Timezone              string     `json:"timezone"`
	PreferredBlockLengths []int      `json:"preferred_block_lengths"`
	TypicalWakeHour       int        `json:"typical_wake_hour,omitempty"`
	TypicalSleepHour      int        `json:"typical_sleep_hour,omitempty"`
	NudgeLevel            NudgeLevel `json:"nudge_level"`
	DockEnabled           bool       `json:"dock_enabled"`
	BrowserTracking       bool       `json:"browser_tracking"`
}

// DefaultUserPreferences returns the preferences applied to a fresh profile.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		Timezone:              "UTC",
		PreferredBlockLengths: []int{25, 40},
		NudgeLevel:            NudgeNormal,
		DockEnabled:           true,
		BrowserTracking:       true,
	}
}

// UserStats are rolling totals updated incrementally by the archivist.
// Windowing is a backend concern and not stored here.
type UserStats struct {
	TotalMissionsCreated int `json:"total_missions_created"`
	TotalBlocksCompleted int `json:"total_blocks_completed"`
	TotalFocusedMinutes  int `json:"total_focused_minutes"`

	// Derived hints for the planner and coach. Zero means unknown.
	AvgBlockLengthSuccessful   int     `json:"avg_block_length_successful,omitempty"`
	AvgStartHourSuccessful     float64 `json:"avg_start_hour_successful,omitempty"`
	NightSessionsFailureRate   float64 `json:"night_sessions_failure_rate,omitempty"`
	MorningSessionsSuccessRate float64 `json:"morning_sessions_success_rate,omitempty"`
}

// UserProfile is the single per-user record of preferences and stats.
type UserProfile struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DisplayName string `json:"display_name,omitempty"`

	Preferences UserPreferences `json:"preferences"`
	Stats       UserStats       `json:"stats"`

	// PersonaNotes are the companion's own notes about how to talk to
	// this user. Meta, never shown directly.
	PersonaNotes string `json:"persona_notes,omitempty"`

	Version int `json:"version"`
}
