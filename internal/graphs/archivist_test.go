package graphs

import (
	"context"
	"strings"
	"testing"

	"github.com/emberfocus/ember/internal/schema"
)

func (h *pipelineHarness) seedEpisode(t *testing.T, e schema.Episode) schema.Episode {
	t.Helper()
	saved, err := h.mem.SaveEpisode(context.Background(), e)
	if err != nil {
		t.Fatalf("seed episode: %v", err)
	}
	return saved
}

func TestArchivistDayReflectionStats(t *testing.T) {
	h := newPipelineHarness(t)
	h.seedEpisode(t, schema.Episode{
		UserID:             "u1",
		Kind:               schema.EpisodeKindSession,
		Summary:            "Finished a focus block",
		FocusScore:         schema.Score(4),
		EnergyScore:        schema.Score(3),
		TimeFocusedMinutes: 30,
	})
	h.seedEpisode(t, schema.Episode{
		UserID:             "u1",
		Kind:               schema.EpisodeKindDay,
		Summary:            "Daily wrap-up",
		TimeFocusedMinutes: 10,
	})

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{Kind: schema.ReflectDay})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}

	if resp.Stats.BlocksCompleted != 1 {
		t.Fatalf("only session episodes count as blocks: got %d", resp.Stats.BlocksCompleted)
	}
	if resp.Stats.TotalFocusedMinutes != 40 {
		t.Fatalf("focused minutes %d, want 40", resp.Stats.TotalFocusedMinutes)
	}
	if resp.Stats.AvgFocusScore != 4.0 {
		t.Fatalf("avg focus %v, want 4.0 (unset scores skipped)", resp.Stats.AvgFocusScore)
	}
	if resp.Stats.CompletionRate != 0.2 {
		t.Fatalf("completion rate %v, want 0.2", resp.Stats.CompletionRate)
	}

	if resp.Episode.Kind != schema.EpisodeKindDay {
		t.Fatalf("reflection episode kind %s", resp.Episode.Kind)
	}
	if !strings.Contains(resp.Episode.Summary, "Completed 1 blocks") {
		t.Fatalf("episode summary %q", resp.Episode.Summary)
	}
	if !strings.Contains(resp.Episode.Summary, "40 minutes focused") {
		t.Fatalf("episode summary %q", resp.Episode.Summary)
	}

	if resp.UpdatedProfile == nil {
		t.Fatalf("expected profile update")
	}
	if resp.UpdatedProfile.Stats.TotalBlocksCompleted != 1 || resp.UpdatedProfile.Stats.TotalFocusedMinutes != 40 {
		t.Fatalf("profile deltas %+v", resp.UpdatedProfile.Stats)
	}
}

func TestArchivistStrongFocusPattern(t *testing.T) {
	h := newPipelineHarness(t)
	h.seedEpisode(t, schema.Episode{
		UserID:             "u1",
		Kind:               schema.EpisodeKindSession,
		Summary:            "Deep work",
		FocusScore:         schema.Score(5),
		TimeFocusedMinutes: 90,
	})

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{Kind: schema.ReflectDay})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}

	if len(resp.Patterns) != 1 || resp.Patterns[0].Description != "Your focus has been strong this period" {
		t.Fatalf("patterns %+v", resp.Patterns)
	}
	if resp.Patterns[0].Confidence != 0.7 {
		t.Fatalf("confidence %v", resp.Patterns[0].Confidence)
	}

	foundFocusTime := false
	for _, hl := range resp.Highlights {
		if hl == "Total focus time: 90 minutes" {
			foundFocusTime = true
		}
	}
	if !foundFocusTime {
		t.Fatalf("highlights %+v", resp.Highlights)
	}
	if !strings.HasPrefix(resp.Summary, "Highlights: ") {
		t.Fatalf("summary %q", resp.Summary)
	}
}

func TestArchivistWeakScoresSuggestAdjustments(t *testing.T) {
	h := newPipelineHarness(t)
	h.seedEpisode(t, schema.Episode{
		UserID:            "u1",
		Kind:              schema.EpisodeKindSession,
		Summary:           "Struggled to focus",
		FocusScore:        schema.Score(2),
		EnergyScore:       schema.Score(2),
		TimeLeakedMinutes: 45,
	})

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{Kind: schema.ReflectDay})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}

	if len(resp.Patterns) != 2 {
		t.Fatalf("expected focus + energy patterns, got %+v", resp.Patterns)
	}
	wantSuggestions := map[string]bool{
		"Try 25-minute blocks instead of longer ones": false,
		"Consider rest or lighter sessions":           false,
	}
	for _, s := range resp.Suggestions {
		wantSuggestions[s] = true
	}
	for s, seen := range wantSuggestions {
		if !seen {
			t.Fatalf("missing suggestion %q in %+v", s, resp.Suggestions)
		}
	}

	foundLeak := false
	for _, c := range resp.Challenges {
		if c == "Leak time: 45 minutes" {
			foundLeak = true
		}
	}
	if !foundLeak {
		t.Fatalf("challenges %+v", resp.Challenges)
	}
}

func TestArchivistEmptyPeriod(t *testing.T) {
	h := newPipelineHarness(t)

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{Kind: schema.ReflectWeek})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}
	if resp.Summary != "Reflection complete." {
		t.Fatalf("summary %q", resp.Summary)
	}
	if resp.Stats.CompletionRate != 0 {
		t.Fatalf("completion rate must stay zero with no blocks: %v", resp.Stats.CompletionRate)
	}
	if resp.Episode.Summary != "Reflection recorded" {
		t.Fatalf("episode summary %q", resp.Episode.Summary)
	}
	if resp.UpdatedProfile != nil {
		t.Fatalf("no profile update expected for an empty period")
	}
}

func TestArchivistBlockReflectionLoadsReferences(t *testing.T) {
	h := newPipelineHarness(t)
	mission := h.seedMission(t, "u1", "Ship the report")
	block := h.seedBlock(t, mission, 25, "")

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{
		Kind:    schema.ReflectBlock,
		BlockID: block.ID,
	})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}
	if resp.Episode.BlockID != block.ID {
		t.Fatalf("episode block %q, want %s", resp.Episode.BlockID, block.ID)
	}
	// The mission id comes off the loaded block when the request omits it.
	if resp.Episode.MissionID != mission.ID {
		t.Fatalf("episode mission %q, want %s", resp.Episode.MissionID, mission.ID)
	}
	if len(resp.Warnings) != 0 {
		t.Fatalf("warnings %+v", resp.Warnings)
	}
}

func TestArchivistUnknownBlockIDStillReflects(t *testing.T) {
	h := newPipelineHarness(t)

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{
		Kind:    schema.ReflectBlock,
		BlockID: "ghost",
	})
	if err != nil {
		t.Fatalf("reflection must not hard-fail on a bad id: %v", err)
	}
	if resp.Episode.Summary != "Reflection recorded" {
		t.Fatalf("episode summary %q", resp.Episode.Summary)
	}
	if resp.Episode.MissionID != "" {
		t.Fatalf("no mission to backfill, got %q", resp.Episode.MissionID)
	}
}

func TestArchivistUserReflectionTagged(t *testing.T) {
	h := newPipelineHarness(t)

	st := h.state(ModeArchivist, "u1")
	resp, err := h.archivist.Run(context.Background(), st, schema.ReflectPeriodRequest{
		Kind:           schema.ReflectBlock,
		UserReflection: "Felt sharp after the walk",
		FocusScore:     schema.Score(4),
	})
	if err != nil {
		t.Fatalf("run archivist: %v", err)
	}
	if resp.Episode.Kind != schema.EpisodeKindSession {
		t.Fatalf("block reflections store session episodes, got %s", resp.Episode.Kind)
	}
	hasKindTag, hasReflectionTag := false, false
	for _, tag := range resp.Episode.Tags {
		switch tag {
		case "block":
			hasKindTag = true
		case "has_reflection":
			hasReflectionTag = true
		}
	}
	if !hasKindTag || !hasReflectionTag {
		t.Fatalf("episode tags %+v", resp.Episode.Tags)
	}
	if resp.Episode.Reflection != "Felt sharp after the walk" {
		t.Fatalf("reflection %q", resp.Episode.Reflection)
	}
}
