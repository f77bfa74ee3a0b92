package graphs

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tools"
)

func TestPlannerCreatesMissionWithFiveSessions(t *testing.T) {
	h := newPipelineHarness(t)
	st := h.state(ModePlanner, "u1")

	longInput := strings.Repeat("prepare for the networking exam ", 5) // > 100 chars
	resp, err := h.planner.Run(context.Background(), st, schema.PlanMissionRequest{
		RawInput:       longInput,
		EstimatedHours: 2.5,
	})
	if err != nil {
		t.Fatalf("run planner: %v", err)
	}

	if len(resp.Mission.Title) != 100 {
		t.Fatalf("expected title truncated to 100 chars, got %d", len(resp.Mission.Title))
	}
	if resp.Mission.Kind != schema.MissionKindOther {
		t.Fatalf("expected kind other, got %s", resp.Mission.Kind)
	}
	if resp.Mission.Status != schema.MissionStatusActive {
		t.Fatalf("expected active mission, got %s", resp.Mission.Status)
	}
	if resp.Mission.EstimatedTotalMinutes != 150 {
		t.Fatalf("expected 150 estimated minutes, got %d", resp.Mission.EstimatedTotalMinutes)
	}
	if resp.Mission.ID == "" {
		t.Fatalf("expected persisted mission id")
	}
	if st.Context.MissionID != resp.Mission.ID {
		t.Fatalf("mission id not written into context: %q", st.Context.MissionID)
	}

	if len(resp.ProposedBlocks) != 5 {
		t.Fatalf("expected 5 proposed blocks, got %d", len(resp.ProposedBlocks))
	}
	for i, block := range resp.ProposedBlocks {
		if block.SequenceIndex != i {
			t.Fatalf("block %d has sequence %d", i, block.SequenceIndex)
		}
		if block.SuggestedDurationMinutes != 25 {
			t.Fatalf("block %d duration %d, want 25", i, block.SuggestedDurationMinutes)
		}
		want := time.Date(2026, 3, 4+i, 9, 0, 0, 0, time.UTC)
		if !block.SuggestedDate.Equal(want) {
			t.Fatalf("block %d scheduled %v, want %v", i, block.SuggestedDate, want)
		}
		wantTitle := fmt.Sprintf("%s - Session %d", resp.Mission.Title, i+1)
		if block.Title != wantTitle {
			t.Fatalf("block %d title %q, want %q", i, block.Title, wantTitle)
		}
	}

	if !strings.HasPrefix(resp.Summary, "Created mission: ") {
		t.Fatalf("unexpected summary %q", resp.Summary)
	}
	if !strings.HasSuffix(resp.Summary, "with 5 proposed sessions") {
		t.Fatalf("summary missing session count: %q", resp.Summary)
	}
	if !strings.Contains(resp.Rationale, "Estimated effort: 2.5 hours") {
		t.Fatalf("rationale missing effort: %q", resp.Rationale)
	}
	if len(resp.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", resp.Warnings)
	}
}

func TestPlannerSkipsDaysOff(t *testing.T) {
	h := newPipelineHarness(t)
	st := h.state(ModePlanner, "u1")

	// testNow is a Wednesday; weekday index 2 with Monday as 0.
	resp, err := h.planner.Run(context.Background(), st, schema.PlanMissionRequest{
		RawInput:    "study for finals",
		Constraints: &schema.MissionConstraints{DaysOff: []int{2}},
	})
	if err != nil {
		t.Fatalf("run planner: %v", err)
	}
	if len(resp.ProposedBlocks) != 4 {
		t.Fatalf("expected 4 blocks after skipping the day off, got %d", len(resp.ProposedBlocks))
	}
	for _, block := range resp.ProposedBlocks {
		weekday := (int(block.SuggestedDate.Weekday()) + 6) % 7
		if weekday == 2 {
			t.Fatalf("block scheduled on a day off: %v", block.SuggestedDate)
		}
	}
}

func TestPlannerPreferredBlockLengthWins(t *testing.T) {
	h := newPipelineHarness(t)
	st := h.state(ModePlanner, "u1")

	resp, err := h.planner.Run(context.Background(), st, schema.PlanMissionRequest{
		RawInput:    "write the thesis chapter",
		Preferences: &schema.MissionPreferences{PreferredBlockLengths: []int{40, 25}},
	})
	if err != nil {
		t.Fatalf("run planner: %v", err)
	}
	for i, block := range resp.ProposedBlocks {
		if block.SuggestedDurationMinutes != 40 {
			t.Fatalf("block %d duration %d, want 40", i, block.SuggestedDurationMinutes)
		}
	}
}

func TestPlannerSimilaritySearchesFullInput(t *testing.T) {
	h := newPipelineHarness(t)
	if _, err := h.missions.CreateMission(context.Background(), schema.Mission{
		UserID: "u1",
		Title:  "database indexing strategies",
		Status: schema.MissionStatusCompleted,
	}); err != nil {
		t.Fatalf("seed completed mission: %v", err)
	}

	// The matching words sit past the title cutoff; only a search over
	// the whole input can find them.
	rawInput := strings.Repeat("aaaa ", 20) + "database indexing strategies"
	st := h.state(ModePlanner, "u1")
	resp, err := h.planner.Run(context.Background(), st, schema.PlanMissionRequest{RawInput: rawInput})
	if err != nil {
		t.Fatalf("run planner: %v", err)
	}
	if len(resp.Mission.Title) != 100 {
		t.Fatalf("title length %d, want 100", len(resp.Mission.Title))
	}
	if resp.SimilarMissionsNote != "Found 1 similar completed missions. Consider what worked before." {
		t.Fatalf("similarity note %q", resp.SimilarMissionsNote)
	}
}

func TestPlannerToleratesMissingSemanticStore(t *testing.T) {
	bundle := memory.NewInMemory(memory.WithClock(testClock))
	missions := tools.NewMissionTools(bundle.Missions, nil, tools.WithClock(testClock))
	timeline := tools.NewTimelineTools(bundle.Blocks, tools.WithClock(testClock))
	planner := NewPlanner(missions, timeline, WithClock(testClock))

	st := NewState(ModePlanner, Context{UserID: "u1"}, WithStateClock(testClock))
	resp, err := planner.Run(context.Background(), st, schema.PlanMissionRequest{RawInput: "learn sqlite internals"})
	if err != nil {
		t.Fatalf("run planner: %v", err)
	}
	if resp.Mission.ID == "" {
		t.Fatalf("expected mission despite missing semantic store")
	}
	if resp.SimilarMissionsNote != "" {
		t.Fatalf("expected no similarity note, got %q", resp.SimilarMissionsNote)
	}
}

// failingMissions rejects every create so the planner's degraded path
// can be observed.
type failingMissions struct {
	memory.Missions
}

func (failingMissions) Create(context.Context, schema.Mission) (schema.Mission, error) {
	return schema.Mission{}, fmt.Errorf("store offline")
}

func TestPlannerDegradesWhenMissionCreationFails(t *testing.T) {
	bundle := memory.NewInMemory(memory.WithClock(testClock))
	missions := tools.NewMissionTools(failingMissions{Missions: bundle.Missions}, nil, tools.WithClock(testClock))
	timeline := tools.NewTimelineTools(bundle.Blocks, tools.WithClock(testClock))
	planner := NewPlanner(missions, timeline, WithClock(testClock))

	st := NewState(ModePlanner, Context{UserID: "u1"}, WithStateClock(testClock))
	resp, err := planner.Run(context.Background(), st, schema.PlanMissionRequest{RawInput: "anything"})
	if err != nil {
		t.Fatalf("pipeline must not hard-fail: %v", err)
	}
	if resp.Mission.Title != "Failed to create mission" {
		t.Fatalf("expected placeholder mission, got %q", resp.Mission.Title)
	}
	if resp.Mission.ID != "" {
		t.Fatalf("placeholder mission must not carry an id")
	}
	if len(resp.ProposedBlocks) != 0 {
		t.Fatalf("no blocks should be proposed without a mission")
	}
	if len(resp.Warnings) == 0 {
		t.Fatalf("expected warnings from failed steps")
	}
	foundNoMission := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "No mission created") {
			foundNoMission = true
		}
	}
	if !foundNoMission {
		t.Fatalf("expected 'No mission created' warning, got %+v", resp.Warnings)
	}
}

func TestPlannerCancelledContextStopsPipeline(t *testing.T) {
	h := newPipelineHarness(t)
	st := h.state(ModePlanner, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.planner.Run(ctx, st, schema.PlanMissionRequest{RawInput: "x"}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
