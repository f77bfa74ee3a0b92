package schema

import (
	"fmt"
	"time"
)

// Surface names the UI context a request originated from.
type Surface string

const (
	SurfaceFocusDock Surface = "focus_dock"
	SurfaceLibrary   Surface = "library"
	SurfaceSidecar   Surface = "sidecar"
	SurfaceMobile    Surface = "mobile"
	SurfaceOther     Surface = "other"
)

// EnergyLevel is the user's self-reported energy.
type EnergyLevel string

const (
	EnergyVeryLow  EnergyLevel = "very_low"
	EnergyLow      EnergyLevel = "low"
	EnergyMedium   EnergyLevel = "medium"
	EnergyHigh     EnergyLevel = "high"
	EnergyVeryHigh EnergyLevel = "very_high"
)

// AgentMessageRole is the speaker role in an agent conversation.
type AgentMessageRole string

const (
	RoleUser      AgentMessageRole = "user"
	RoleAssistant AgentMessageRole = "assistant"
	RoleSystem    AgentMessageRole = "system"
	RoleTool      AgentMessageRole = "tool"
)

// AgentMessage is a single message in an agent conversation.
type AgentMessage struct {
	Role       AgentMessageRole `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// PlanMissionRequest asks the planner to turn messy input into a mission.
type PlanMissionRequest struct {
	// RawInput is the user's unstructured description of what they want
	// to accomplish.
	RawInput string `json:"raw_input"`

	// Optional structured hints.
	Kind           MissionKind `json:"kind,omitempty"`
	Deadline       time.Time   `json:"deadline,omitzero"`
	EstimatedHours float64     `json:"estimated_hours,omitempty"`

	Constraints *MissionConstraints `json:"constraints,omitempty"`
	Preferences *MissionPreferences `json:"preferences,omitempty"`

	Surface      Surface  `json:"surface,omitempty"`
	GraphContext []string `json:"graph_context,omitempty"`
}

// Validate checks the request against the router boundary contract.
func (r PlanMissionRequest) Validate() error {
	if r.RawInput == "" {
		return fmt.Errorf("plan mission request: raw_input is required")
	}
	if r.Kind != "" {
		switch r.Kind {
		case MissionKindExam, MissionKindProject, MissionKindHabit, MissionKindLifeAdmin, MissionKindOther:
		default:
			return fmt.Errorf("plan mission request: unknown kind %q", r.Kind)
		}
	}
	return nil
}

// ProposedBlock is a block suggested by the planner but not yet committed.
type ProposedBlock struct {
	Title                    string    `json:"title"`
	PlanNote                 string    `json:"plan_note,omitempty"`
	SuggestedDate            time.Time `json:"suggested_date,omitzero"`
	SuggestedDurationMinutes int       `json:"suggested_duration_minutes"`
	SequenceIndex            int       `json:"sequence_index"`
}

// PlanMissionResponse is the planner's structured answer.
type PlanMissionResponse struct {
	Mission        Mission         `json:"mission"`
	ProposedBlocks []ProposedBlock `json:"proposed_blocks"`

	Summary   string `json:"summary"`
	Rationale string `json:"rationale,omitempty"`

	// SimilarMissionsNote carries an advisory when similar completed
	// missions were found in history.
	SimilarMissionsNote string `json:"similar_missions_note,omitempty"`

	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// RunSessionRequest asks the coach to start or continue a focus session.
type RunSessionRequest struct {
	MissionID string `json:"mission_id,omitempty"`
	BlockID   string `json:"block_id,omitempty"`

	AvailableMinutes int         `json:"available_minutes,omitempty"`
	EnergyLevel      EnergyLevel `json:"energy_level,omitempty"`
	MoodNote         string      `json:"mood_note,omitempty"`

	Surface Surface `json:"surface,omitempty"`

	IsContinuation    bool   `json:"is_continuation,omitempty"`
	AdjustmentRequest string `json:"adjustment_request,omitempty"`
}

// Validate checks the request against the router boundary contract.
func (r RunSessionRequest) Validate() error {
	if r.AvailableMinutes < 0 {
		return fmt.Errorf("run session request: available_minutes must not be negative")
	}
	return nil
}

// SessionAction is one concrete thing to do during a session.
type SessionAction struct {
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	IsStretchGoal    bool   `json:"is_stretch_goal,omitempty"`
}

// SessionUIState reports the focus-dock side effects of starting a session.
type SessionUIState struct {
	FocusModeActive       bool `json:"focus_mode_active"`
	TimerRunning          bool `json:"timer_running"`
	TimerRemainingSeconds int  `json:"timer_remaining_seconds"`
}

// RunSessionResponse is the coach's structured answer.
type RunSessionResponse struct {
	Block   Block           `json:"block"`
	Actions []SessionAction `json:"actions"`

	// Brief is the short motivational message for starting the block.
	Brief string `json:"brief"`

	RecommendedDurationMinutes int `json:"recommended_duration_minutes"`
	BreakAfterMinutes          int `json:"break_after_minutes,omitempty"`

	ShowTimer          bool `json:"show_timer"`
	EnableLeakTracking bool `json:"enable_leak_tracking"`

	UIState SessionUIState `json:"ui_state"`

	Warnings []string `json:"warnings"`
}

// ReflectPeriodKind says what period a reflection covers.
type ReflectPeriodKind string

const (
	ReflectBlock   ReflectPeriodKind = "block"
	ReflectDay     ReflectPeriodKind = "day"
	ReflectWeek    ReflectPeriodKind = "week"
	ReflectMission ReflectPeriodKind = "mission"
)

// ReflectPeriodRequest asks the archivist to reflect on a period of work.
type ReflectPeriodRequest struct {
	Kind      ReflectPeriodKind `json:"kind"`
	MissionID string            `json:"mission_id,omitempty"`
	BlockID   string            `json:"block_id,omitempty"`

	StartDate time.Time `json:"start_date,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"`

	UserReflection string `json:"user_reflection,omitempty"`
	FocusScore     *int   `json:"focus_score,omitempty"`
	EnergyScore    *int   `json:"energy_score,omitempty"`

	Surface Surface `json:"surface,omitempty"`
}

// Validate checks the request against the router boundary contract.
func (r ReflectPeriodRequest) Validate() error {
	switch r.Kind {
	case ReflectBlock, ReflectDay, ReflectWeek, ReflectMission:
	default:
		return fmt.Errorf("reflect period request: unknown kind %q", r.Kind)
	}
	if r.FocusScore != nil && (*r.FocusScore < 1 || *r.FocusScore > 5) {
		return fmt.Errorf("reflect period request: focus_score must be between 1 and 5, got %d", *r.FocusScore)
	}
	if r.EnergyScore != nil && (*r.EnergyScore < 1 || *r.EnergyScore > 5) {
		return fmt.Errorf("reflect period request: energy_score must be between 1 and 5, got %d", *r.EnergyScore)
	}
	return nil
}

// PatternInsight is a derived observation about the user's habits.
type PatternInsight struct {
	Description     string  `json:"description"`
	Confidence      float64 `json:"confidence"`
	SupportingData  string  `json:"supporting_data,omitempty"`
	SuggestedAction string  `json:"suggested_action,omitempty"`
}

// PeriodStats aggregates episode data across a reflection period.
type PeriodStats struct {
	TotalFocusedMinutes int     `json:"total_focused_minutes"`
	TotalLeakedMinutes  int     `json:"total_leaked_minutes"`
	BlocksCompleted     int     `json:"blocks_completed"`
	AvgFocusScore       float64 `json:"avg_focus_score"`
	AvgEnergyScore      float64 `json:"avg_energy_score"`
	// CompletionRate is blocks_completed against a nominal plan, capped
	// at 1.0. Zero when no blocks completed.
	CompletionRate float64 `json:"completion_rate,omitempty"`
}

// ReflectPeriodResponse is the archivist's structured answer.
type ReflectPeriodResponse struct {
	Episode Episode `json:"episode"`

	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Challenges []string `json:"challenges"`

	Patterns []PatternInsight `json:"patterns"`

	Stats PeriodStats `json:"stats"`

	// UpdatedProfile is set when the rolling stats changed.
	UpdatedProfile *UserProfile `json:"updated_profile,omitempty"`

	Suggestions []string `json:"suggestions"`

	Warnings []string `json:"warnings"`
}

// ChatRequest is a free-form conversation turn. Chat is handled by the
// persona layer in the service facade, never by a workflow graph.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`

	Surface          Surface `json:"surface,omitempty"`
	CurrentMissionID string  `json:"current_mission_id,omitempty"`
	CurrentBlockID   string  `json:"current_block_id,omitempty"`

	History []AgentMessage `json:"history,omitempty"`
}

// ChatResponse is the persona's answer to a chat turn.
type ChatResponse struct {
	Message        AgentMessage `json:"message"`
	ConversationID string       `json:"conversation_id"`
	SessionID      string       `json:"session_id,omitempty"`

	SuggestedFollowUps []string `json:"suggested_follow_ups,omitempty"`

	Degraded bool `json:"degraded,omitempty"`
}
