package schema

import (
	"fmt"
	"time"
)

// EpisodeKind says what period an episode reflects on.
type EpisodeKind string

const (
	EpisodeKindSession EpisodeKind = "session"
	EpisodeKindDay     EpisodeKind = "day"
	EpisodeKindMission EpisodeKind = "mission"
	EpisodeKindMeta    EpisodeKind = "meta"
)

// EmotionLabel is a coarse mood bucket.
type EmotionLabel string

const (
	EmotionVeryLow  EmotionLabel = "very_low"
	EmotionLow      EmotionLabel = "low"
	EmotionNeutral  EmotionLabel = "neutral"
	EmotionHigh     EmotionLabel = "high"
	EmotionVeryHigh EmotionLabel = "very_high"
)

// LeakCategory classifies a distraction source.
type LeakCategory string

const (
	LeakSocial    LeakCategory = "social"
	LeakVideo     LeakCategory = "video"
	LeakChat      LeakCategory = "chat"
	LeakNews      LeakCategory = "news"
	LeakShopping  LeakCategory = "shopping"
	LeakEmail     LeakCategory = "email"
	LeakGaming    LeakCategory = "gaming"
	LeakRandomWeb LeakCategory = "random_web"
	LeakOther     LeakCategory = "other"
)

// LeakEvent records one distraction during a focus session.
type LeakEvent struct {
	Timestamp       time.Time    `json:"timestamp"`
	Category        LeakCategory `json:"category"`
	Source          string       `json:"source"`
	DurationSeconds int          `json:"duration_seconds,omitempty"`
	Note            string       `json:"note,omitempty"`
}

// Episode is an append-only memory unit about a session, day, or period.
// Episodes are never mutated after creation.
type Episode struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Kind      EpisodeKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`

	MissionID string `json:"mission_id,omitempty"`
	BlockID   string `json:"block_id,omitempty"`

	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary"`
	Reflection string `json:"reflection,omitempty"`

	MoodBefore EmotionLabel `json:"mood_before,omitempty"`
	MoodAfter  EmotionLabel `json:"mood_after,omitempty"`

	// Scores are 1-5 self ratings. Nil means not recorded; an explicit
	// 0 is invalid.
	FocusScore  *int `json:"focus_score,omitempty"`
	EnergyScore *int `json:"energy_score,omitempty"`

	TimeFocusedMinutes int `json:"time_focused_minutes,omitempty"`
	TimeLeakedMinutes  int `json:"time_leaked_minutes,omitempty"`

	Leaks []LeakEvent `json:"leaks,omitempty"`

	Tags []string `json:"tags,omitempty"`

	Meta map[string]any `json:"meta,omitempty"`
}

// Score builds a value for the optional 1-5 score fields.
func Score(n int) *int {
	return &n
}

// Validate checks the episode invariants: summary is required and scores,
// if present, sit within 1-5.
func (e Episode) Validate() error {
	if e.Summary == "" {
		return fmt.Errorf("episode: summary is required")
	}
	if err := validateScore("focus_score", e.FocusScore); err != nil {
		return err
	}
	if err := validateScore("energy_score", e.EnergyScore); err != nil {
		return err
	}
	return nil
}

func validateScore(name string, score *int) error {
	if score == nil {
		return nil
	}
	if *score < 1 || *score > 5 {
		return fmt.Errorf("episode: %s must be between 1 and 5, got %d", name, *score)
	}
	return nil
}
