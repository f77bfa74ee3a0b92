package graphs

import (
	"testing"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/tools"
)

// Wednesday, 2026-03-04 08:00 UTC. Weekday index 2 with Monday as 0.
var testNow = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type pipelineHarness struct {
	bundle   memory.Bundle
	missions *tools.MissionTools
	timeline *tools.TimelineTools
	mem      *tools.MemoryTools
	ui       *tools.UITools

	planner   *Planner
	coach     *Coach
	archivist *Archivist
	router    *Router
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()
	bundle := memory.NewInMemory(memory.WithClock(testClock))
	h := &pipelineHarness{
		bundle:   bundle,
		missions: tools.NewMissionTools(bundle.Missions, bundle.Semantic, tools.WithClock(testClock)),
		timeline: tools.NewTimelineTools(bundle.Blocks, tools.WithClock(testClock)),
		mem:      tools.NewMemoryTools(bundle.Episodes, bundle.Profiles, bundle.Semantic, tools.WithClock(testClock)),
		ui:       tools.NewUITools(),
	}
	h.planner = NewPlanner(h.missions, h.timeline, WithClock(testClock))
	h.coach = NewCoach(h.missions, h.timeline, h.ui, WithClock(testClock))
	h.archivist = NewArchivist(h.mem, h.missions, h.timeline, WithClock(testClock))
	h.router = NewRouter(h.planner, h.coach, h.archivist, WithClock(testClock))
	return h
}

func (h *pipelineHarness) state(mode Mode, userID string) *State {
	return NewState(mode, Context{UserID: userID, Timezone: "UTC"}, WithStateClock(testClock))
}
