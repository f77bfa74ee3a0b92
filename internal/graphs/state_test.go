package graphs

import (
	"testing"
	"time"

	"github.com/emberfocus/ember/internal/schema"
)

func TestStateMutatorsBumpUpdatedAt(t *testing.T) {
	tick := testNow
	clock := func() time.Time { return tick }
	st := NewState(ModePlanner, Context{UserID: "u1"}, WithStateClock(clock))

	if !st.StartedAt.Equal(testNow) || !st.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected fresh state timestamps at %v, got %v / %v", testNow, st.StartedAt, st.UpdatedAt)
	}

	tick = tick.Add(time.Minute)
	st.AddOutput("mission_id", "m1")
	if !st.UpdatedAt.Equal(tick) {
		t.Fatalf("AddOutput did not bump updated_at: %v", st.UpdatedAt)
	}

	tick = tick.Add(time.Minute)
	st.AddError("step: boom")
	if !st.UpdatedAt.Equal(tick) {
		t.Fatalf("AddError did not bump updated_at: %v", st.UpdatedAt)
	}

	tick = tick.Add(time.Minute)
	st.AppendScratchpad("first note")
	st.AppendScratchpad("second note")
	if st.Scratchpad != "first note\nsecond note" {
		t.Fatalf("unexpected scratchpad: %q", st.Scratchpad)
	}
	if !st.StartedAt.Equal(testNow) {
		t.Fatalf("started_at must not move: %v", st.StartedAt)
	}
}

func TestStateMapRoundTrip(t *testing.T) {
	st := NewState(ModeCoach, Context{
		UserID:       "u1",
		SessionID:    "s1",
		MissionID:    "m1",
		Surface:      schema.SurfaceFocusDock,
		Timezone:     "UTC",
		FocusNodeIDs: []string{"n1", "n2"},
	}, WithStateClock(testClock))
	st.Messages = append(st.Messages, schema.AgentMessage{Role: schema.RoleUser, Content: "hi"})
	st.AddOutput("block_id", "b1")
	st.AddError("decide_block: boom")
	st.AppendScratchpad("note")

	m, err := st.ToMap()
	if err != nil {
		t.Fatalf("to map: %v", err)
	}
	back, err := StateFromMap(m)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}

	if back.Mode != ModeCoach {
		t.Fatalf("mode lost: %s", back.Mode)
	}
	if back.Context.UserID != "u1" || back.Context.SessionID != "s1" {
		t.Fatalf("context lost: %+v", back.Context)
	}
	if back.Context.MissionID != "m1" || len(back.Context.FocusNodeIDs) != 2 {
		t.Fatalf("context fields lost: %+v", back.Context)
	}
	if got, ok := back.Outputs["block_id"].(string); !ok || got != "b1" {
		t.Fatalf("outputs lost: %+v", back.Outputs)
	}
	if len(back.Errors) != 1 || back.Errors[0] != "decide_block: boom" {
		t.Fatalf("errors lost: %+v", back.Errors)
	}
	if back.Scratchpad != "note" {
		t.Fatalf("scratchpad lost: %q", back.Scratchpad)
	}
	if len(back.Messages) != 1 || back.Messages[0].Content != "hi" {
		t.Fatalf("messages lost: %+v", back.Messages)
	}
	if !back.StartedAt.Equal(st.StartedAt) || !back.UpdatedAt.Equal(st.UpdatedAt) {
		t.Fatalf("timestamps drifted: %v / %v", back.StartedAt, back.UpdatedAt)
	}
}

func TestStateFromMapIgnoresUnknownKeys(t *testing.T) {
	st := NewState(ModePlanner, Context{UserID: "u1"}, WithStateClock(testClock))
	m, err := st.ToMap()
	if err != nil {
		t.Fatalf("to map: %v", err)
	}
	m["future_field"] = 42

	back, err := StateFromMap(m)
	if err != nil {
		t.Fatalf("from map with extra key: %v", err)
	}
	if back.Context.UserID != "u1" {
		t.Fatalf("context lost: %+v", back.Context)
	}
}

func TestStateFromMapRejectsMalformedTimestamp(t *testing.T) {
	st := NewState(ModePlanner, Context{UserID: "u1"}, WithStateClock(testClock))
	m, err := st.ToMap()
	if err != nil {
		t.Fatalf("to map: %v", err)
	}
	m["started_at"] = "yesterday-ish"

	if _, err := StateFromMap(m); err == nil {
		t.Fatalf("expected error for malformed timestamp")
	}
}
