package tools

import (
	"context"
	"testing"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

var toolsNow = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func toolsClock() time.Time { return toolsNow }

func newToolsHarness(t *testing.T) (memory.Bundle, *MissionTools, *TimelineTools, *MemoryTools) {
	t.Helper()
	bundle := memory.NewInMemory(memory.WithClock(toolsClock))
	missions := NewMissionTools(bundle.Missions, bundle.Semantic, WithClock(toolsClock))
	timeline := NewTimelineTools(bundle.Blocks, WithClock(toolsClock))
	mem := NewMemoryTools(bundle.Episodes, bundle.Profiles, bundle.Semantic, WithClock(toolsClock))
	return bundle, missions, timeline, mem
}

func TestCreateMissionFillsDefaults(t *testing.T) {
	_, missions, _, _ := newToolsHarness(t)

	created, err := missions.CreateMission(context.Background(), schema.Mission{UserID: "u1", Title: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("id not generated")
	}
	if created.Kind != schema.MissionKindOther || created.Status != schema.MissionStatusDraft || created.Priority != schema.MissionPriorityMedium {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if !created.CreatedAt.Equal(toolsNow) || !created.UpdatedAt.Equal(toolsNow) {
		t.Fatalf("timestamps %v / %v", created.CreatedAt, created.UpdatedAt)
	}
}

func TestMissionStatusMachine(t *testing.T) {
	_, missions, _, _ := newToolsHarness(t)
	ctx := context.Background()

	created, err := missions.CreateMission(ctx, schema.Mission{UserID: "u1", Title: "t", Status: schema.MissionStatusActive})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paused, err := missions.PauseMission(ctx, created.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != schema.MissionStatusPaused {
		t.Fatalf("status %s", paused.Status)
	}

	resumed, err := missions.ResumeMission(ctx, created.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != schema.MissionStatusActive {
		t.Fatalf("status %s", resumed.Status)
	}

	completed, err := missions.CompleteMission(ctx, created.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != schema.MissionStatusCompleted {
		t.Fatalf("status %s", completed.Status)
	}

	// completed is terminal in the normal flow
	if _, err := missions.ResumeMission(ctx, created.ID); !serviceerr.IsValidation(err) {
		t.Fatalf("resume after completion must fail validation, got %v", err)
	}
	if _, err := missions.AbandonMission(ctx, created.ID); !serviceerr.IsValidation(err) {
		t.Fatalf("abandon after completion must fail validation, got %v", err)
	}
}

func TestUpdateMissionRejectsIllegalTransition(t *testing.T) {
	_, missions, _, _ := newToolsHarness(t)
	ctx := context.Background()

	created, err := missions.CreateMission(ctx, schema.Mission{UserID: "u1", Title: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// draft cannot jump straight to completed
	created.Status = schema.MissionStatusCompleted
	if _, err := missions.UpdateMission(ctx, created); !serviceerr.IsValidation(err) {
		t.Fatalf("draft->completed must fail validation, got %v", err)
	}
}

func TestProposeBlocksSkipsDaysOff(t *testing.T) {
	_, _, timeline, _ := newToolsHarness(t)

	mission := schema.Mission{
		ID:     "m1",
		UserID: "u1",
		Title:  "Study",
		Constraints: schema.MissionConstraints{
			// toolsNow is Wednesday (index 2) and Thursday is 3
			DaysOff: []int{2, 3},
		},
	}
	proposed := timeline.ProposeBlocks(mission, 5)
	if len(proposed) != 3 {
		t.Fatalf("expected 3 blocks after two days off, got %d", len(proposed))
	}
	for i, block := range proposed {
		if block.SequenceIndex != i {
			t.Fatalf("sequence %d at %d", block.SequenceIndex, i)
		}
		if block.SuggestedDate.Hour() != 9 {
			t.Fatalf("block anchored at %d:00, want 9:00", block.SuggestedDate.Hour())
		}
	}
}

func TestCommitBlocksPersistsPlannedBlocks(t *testing.T) {
	_, _, timeline, _ := newToolsHarness(t)
	ctx := context.Background()

	mission := schema.Mission{ID: "m1", UserID: "u1", Title: "Study"}
	proposed := timeline.ProposeBlocks(mission, 2)
	committed, err := timeline.CommitBlocks(ctx, mission, proposed)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(committed) != len(proposed) {
		t.Fatalf("committed %d of %d", len(committed), len(proposed))
	}
	for _, block := range committed {
		if block.ID == "" || block.Status != schema.BlockStatusPlanned || block.MissionID != "m1" {
			t.Fatalf("bad committed block %+v", block)
		}
		wantEnd := block.ScheduledStart.Add(time.Duration(block.PlannedDurationMinutes) * time.Minute)
		if !block.ScheduledEnd.Equal(wantEnd) {
			t.Fatalf("scheduled end %v, want %v", block.ScheduledEnd, wantEnd)
		}
	}
}

func TestCreateBlockContinuesSequence(t *testing.T) {
	_, _, timeline, _ := newToolsHarness(t)
	ctx := context.Background()

	first, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m1"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.SequenceIndex != 0 {
		t.Fatalf("first sequence %d", first.SequenceIndex)
	}
	second, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m1"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.SequenceIndex != 1 {
		t.Fatalf("second sequence %d", second.SequenceIndex)
	}
}

func TestCompleteBlockRecordsOutcome(t *testing.T) {
	_, _, timeline, _ := newToolsHarness(t)
	ctx := context.Background()

	block, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := timeline.StartBlock(ctx, block.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	ratio := 0.8
	done, err := timeline.CompleteBlock(ctx, block.ID, "finished the draft", &ratio)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != schema.BlockStatusCompleted {
		t.Fatalf("status %s", done.Status)
	}
	if done.OutcomeNote != "finished the draft" || done.CompletionRatio == nil || *done.CompletionRatio != 0.8 {
		t.Fatalf("outcome %+v", done)
	}
	if !done.ActualEnd.Equal(toolsNow) {
		t.Fatalf("actual end %v", done.ActualEnd)
	}
}

func TestNextPlannedBlockScopesAreExclusive(t *testing.T) {
	_, _, timeline, _ := newToolsHarness(t)
	ctx := context.Background()

	other, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m-other", ScheduledStart: toolsNow.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mission scope must not fall back to another mission's timeline.
	next, err := timeline.NextPlannedBlock(ctx, "u1", "m-wanted")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != nil {
		t.Fatalf("mission with no planned blocks returned %+v", next)
	}

	next, err = timeline.NextPlannedBlock(ctx, "u1", "")
	if err != nil {
		t.Fatalf("next today: %v", err)
	}
	if next == nil || next.ID != other.ID {
		t.Fatalf("today scope got %+v, want %s", next, other.ID)
	}

	if _, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m-wanted", ScheduledStart: toolsNow.Add(3 * time.Hour)}); err != nil {
		t.Fatalf("create late: %v", err)
	}
	early, err := timeline.CreateBlock(ctx, schema.Block{UserID: "u1", MissionID: "m-wanted", ScheduledStart: toolsNow.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("create early: %v", err)
	}
	next, err = timeline.NextPlannedBlock(ctx, "u1", "m-wanted")
	if err != nil {
		t.Fatalf("next for mission: %v", err)
	}
	if next == nil || next.ID != early.ID {
		t.Fatalf("mission scope got %+v, want earliest %s", next, early.ID)
	}
}

func TestComputePeriodStats(t *testing.T) {
	episodes := []schema.Episode{
		{Kind: schema.EpisodeKindSession, Summary: "a", FocusScore: schema.Score(4), TimeFocusedMinutes: 30},
		{Kind: schema.EpisodeKindSession, Summary: "b", FocusScore: schema.Score(2), EnergyScore: schema.Score(3), TimeFocusedMinutes: 20, TimeLeakedMinutes: 10},
		{Kind: schema.EpisodeKindDay, Summary: "c", TimeFocusedMinutes: 5},
	}
	stats := ComputePeriodStats(episodes)
	if stats.BlocksCompleted != 2 {
		t.Fatalf("blocks %d", stats.BlocksCompleted)
	}
	if stats.TotalFocusedMinutes != 55 || stats.TotalLeakedMinutes != 10 {
		t.Fatalf("minutes %d / %d", stats.TotalFocusedMinutes, stats.TotalLeakedMinutes)
	}
	if stats.AvgFocusScore != 3.0 {
		t.Fatalf("avg focus %v", stats.AvgFocusScore)
	}
	if stats.AvgEnergyScore != 3.0 {
		t.Fatalf("avg energy %v (unset scores must be skipped)", stats.AvgEnergyScore)
	}
	if stats.CompletionRate != 0.4 {
		t.Fatalf("completion rate %v", stats.CompletionRate)
	}

	if got := ComputePeriodStats(nil); got.CompletionRate != 0 {
		t.Fatalf("empty period completion rate %v", got.CompletionRate)
	}
}

func TestUpdateUserStatsAppliesDeltas(t *testing.T) {
	_, _, _, mem := newToolsHarness(t)
	ctx := context.Background()

	profile, err := mem.UpdateUserStats(ctx, "u1", 1, 2, 50)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Stats.TotalMissionsCreated != 1 || profile.Stats.TotalBlocksCompleted != 2 || profile.Stats.TotalFocusedMinutes != 50 {
		t.Fatalf("stats %+v", profile.Stats)
	}

	profile, err = mem.UpdateUserStats(ctx, "u1", 0, 1, 25)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if profile.Stats.TotalBlocksCompleted != 3 || profile.Stats.TotalFocusedMinutes != 75 {
		t.Fatalf("deltas not additive: %+v", profile.Stats)
	}
}

func TestSaveEpisodeValidatesScores(t *testing.T) {
	_, _, _, mem := newToolsHarness(t)
	ctx := context.Background()

	if _, err := mem.SaveEpisode(ctx, schema.Episode{UserID: "u1", Summary: "ok"}); err != nil {
		t.Fatalf("nil scores mean not recorded: %v", err)
	}
	if _, err := mem.SaveEpisode(ctx, schema.Episode{UserID: "u1", Summary: "ok", EnergyScore: schema.Score(0)}); !serviceerr.IsValidation(err) {
		t.Fatalf("explicit score 0 must fail, got %v", err)
	}
	if _, err := mem.SaveEpisode(ctx, schema.Episode{UserID: "u1", Summary: "ok", EnergyScore: schema.Score(6)}); !serviceerr.IsValidation(err) {
		t.Fatalf("score 6 must fail, got %v", err)
	}
	if _, err := mem.SaveEpisode(ctx, schema.Episode{UserID: "u1"}); !serviceerr.IsValidation(err) {
		t.Fatalf("missing summary must fail, got %v", err)
	}
}

func TestUIToolsTimerAndNotifications(t *testing.T) {
	ui := NewUITools()

	ui.SetFocusMode(true)
	ui.StartTimer(1500)
	if !ui.FocusModeActive() {
		t.Fatalf("focus mode not active")
	}
	if got := ui.Timer(); !got.Running || got.RemainingSeconds != 1500 {
		t.Fatalf("timer %+v", got)
	}

	ui.StopTimer()
	if got := ui.Timer(); got.Running || got.RemainingSeconds != 1500 {
		t.Fatalf("stop must keep remaining time: %+v", got)
	}

	ui.Notify("Session started", "25 minutes on the report")
	ui.Notify("Halfway", "")
	drained := ui.DrainNotifications()
	if len(drained) != 2 || drained[0].Title != "Session started" {
		t.Fatalf("drained %+v", drained)
	}
	if again := ui.DrainNotifications(); len(again) != 0 {
		t.Fatalf("queue not cleared: %+v", again)
	}
}

func TestFindSimilarMissionsWithoutSemanticStore(t *testing.T) {
	bundle := memory.NewInMemory(memory.WithClock(toolsClock))
	missions := NewMissionTools(bundle.Missions, nil, WithClock(toolsClock))

	got, err := missions.FindSimilarMissions(context.Background(), "u1", "anything", 3)
	if err != nil {
		t.Fatalf("must degrade, not fail: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
