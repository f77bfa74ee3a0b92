package schema

import "time"

// MissionKind categorizes what a mission is for.
type MissionKind string

const (
	MissionKindExam      MissionKind = "exam"
	MissionKindProject   MissionKind = "project"
	MissionKindHabit     MissionKind = "habit"
	MissionKindLifeAdmin MissionKind = "life_admin"
	MissionKindOther     MissionKind = "other"
)

// MissionStatus enumerates the mission lifecycle states.
type MissionStatus string

const (
	MissionStatusDraft     MissionStatus = "draft"
	MissionStatusActive    MissionStatus = "active"
	MissionStatusPaused    MissionStatus = "paused"
	MissionStatusCompleted MissionStatus = "completed"
	MissionStatusAbandoned MissionStatus = "abandoned"
)

// MissionPriority is a coarse priority band.
type MissionPriority string

const (
	MissionPriorityLow      MissionPriority = "low"
	MissionPriorityMedium   MissionPriority = "medium"
	MissionPriorityHigh     MissionPriority = "high"
	MissionPriorityCritical MissionPriority = "critical"
)

// GraphNodeRef points a mission at a node in a concept graph.
type GraphNodeRef struct {
	GraphID string  `json:"graph_id"`
	NodeID  string  `json:"node_id"`
	Weight  float64 `json:"weight"`
}

// MissionConstraints captures user/life constraints scoped to one mission.
type MissionConstraints struct {
	MaxDailyMinutes int `json:"max_daily_minutes,omitempty"`
	// NoNightsAfter is an hour in 24h time after which nothing should be
	// scheduled (e.g. 23). Zero means unset.
	NoNightsAfter int `json:"no_nights_after,omitempty"`
	// DaysOff holds weekday indices (0=Monday) the user prefers not to
	// work on this mission.
	DaysOff []int `json:"days_off,omitempty"`
}

// MissionPreferences are mission-scoped preferences that override the
// user-level defaults.
type MissionPreferences struct {
	PreferredBlockLengths []int  `json:"preferred_block_lengths,omitempty"`
	Intensity             string `json:"intensity,omitempty"`
	Notes                 string `json:"notes,omitempty"`
}

// Mission is a high-level goal or project the user is working toward.
type Mission struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Kind     MissionKind     `json:"kind"`
	Status   MissionStatus   `json:"status"`
	Priority MissionPriority `json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Date-only values, normalized to UTC midnight. Zero means unset.
	PlannedStartDate time.Time `json:"planned_start_date,omitzero"`
	DeadlineDate     time.Time `json:"deadline_date,omitzero"`

	EstimatedTotalMinutes int `json:"estimated_total_minutes,omitempty"`

	Tags       []string       `json:"tags,omitempty"`
	GraphLinks []GraphNodeRef `json:"graph_links,omitempty"`

	Constraints MissionConstraints `json:"constraints"`
	Preferences MissionPreferences `json:"preferences"`

	Archived bool `json:"archived,omitempty"`

	// Version supports optimistic concurrency in the repositories.
	Version int `json:"version"`
}

// CanTransitionTo reports whether the normal-flow status machine allows
// moving from the mission's current status to next.
func (m Mission) CanTransitionTo(next MissionStatus) bool {
	if m.Status == next {
		return true
	}
	switch m.Status {
	case MissionStatusDraft:
		return next == MissionStatusActive || next == MissionStatusAbandoned
	case MissionStatusActive:
		return next == MissionStatusPaused || next == MissionStatusCompleted || next == MissionStatusAbandoned
	case MissionStatusPaused:
		return next == MissionStatusActive || next == MissionStatusCompleted || next == MissionStatusAbandoned
	default:
		// completed and abandoned are terminal in normal flow
		return false
	}
}
