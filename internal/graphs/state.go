// Package graphs implements the agent workflows: three linear pipelines
// (planner, coach, archivist) that pass a shared state envelope through
// named steps, plus the router that dispatches typed requests to them.
package graphs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emberfocus/ember/internal/schema"
)

// Mode identifies which agent a state envelope belongs to.
type Mode string

const (
	ModePlanner   Mode = "planner"
	ModeCoach     Mode = "coach"
	ModeArchivist Mode = "archivist"
	ModeChat      Mode = "chat"
)

// Context carries the request-scoped identity and surface information
// every step can read.
type Context struct {
	UserID       string         `json:"user_id"`
	SessionID    string         `json:"session_id,omitempty"`
	MissionID    string         `json:"mission_id,omitempty"`
	BlockID      string         `json:"block_id,omitempty"`
	Surface      schema.Surface `json:"surface,omitempty"`
	UserName     string         `json:"user_name,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	GraphID      string         `json:"graph_id,omitempty"`
	FocusNodeIDs []string       `json:"focus_node_ids,omitempty"`
}

// State is the envelope a pipeline threads through its steps. Steps
// mutate it only through AddOutput, AddError, and AppendScratchpad, all
// of which bump UpdatedAt.
type State struct {
	Context Context `json:"context"`
	Mode    Mode    `json:"mode"`

	Messages   []schema.AgentMessage `json:"messages,omitempty"`
	Scratchpad string                `json:"scratchpad,omitempty"`

	Outputs map[string]any `json:"outputs,omitempty"`
	Errors  []string       `json:"errors,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	clock func() time.Time
}

// StateOption configures a state envelope.
type StateOption func(*State)

// WithStateClock injects a deterministic clock (primarily for tests).
func WithStateClock(clock func() time.Time) StateOption {
	return func(st *State) {
		if clock != nil {
			st.clock = clock
		}
	}
}

// NewState builds a fresh envelope for one agent run.
func NewState(mode Mode, c Context, opts ...StateOption) *State {
	st := &State{
		Context: c,
		Mode:    mode,
		Outputs: map[string]any{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	now := st.clock().UTC()
	st.StartedAt = now
	st.UpdatedAt = now
	return st
}

func (st *State) touch() {
	if st.clock == nil {
		st.clock = time.Now
	}
	st.UpdatedAt = st.clock().UTC()
}

// AddOutput records a named result on the envelope.
func (st *State) AddOutput(key string, value any) {
	if st.Outputs == nil {
		st.Outputs = map[string]any{}
	}
	st.Outputs[key] = value
	st.touch()
}

// AddError records a step failure without stopping the pipeline.
func (st *State) AddError(msg string) {
	st.Errors = append(st.Errors, msg)
	st.touch()
}

// AppendScratchpad appends free-form working notes, one chunk per line.
func (st *State) AppendScratchpad(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if st.Scratchpad == "" {
		st.Scratchpad = text
	} else {
		st.Scratchpad = st.Scratchpad + "\n" + text
	}
	st.touch()
}

// ToMap serializes the envelope into a plain map with RFC3339 timestamps,
// suitable for logging or transport.
func (st *State) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("graphs: encode state: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("graphs: encode state: %w", err)
	}
	return out, nil
}

// StateFromMap rebuilds an envelope from its map form. Unknown keys are
// ignored; malformed timestamps are an error.
func StateFromMap(m map[string]any, opts ...StateOption) (*State, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("graphs: decode state: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("graphs: decode state: %w", err)
	}
	st.clock = time.Now
	for _, opt := range opts {
		opt(&st)
	}
	return &st, nil
}
