package graphs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emberfocus/ember/internal/logging"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tools"
)

const (
	// maxMissionTitleLen caps titles derived from raw user input.
	maxMissionTitleLen = 100
	// proposedSessionCount is how many sessions the planner drafts.
	proposedSessionCount = 5
	// similarMissionLimit bounds the history lookup.
	similarMissionLimit = 3
)

// Planner turns messy user input into a mission with a proposed session
// timeline: parse, recall history, build the mission, propose blocks,
// summarize.
type Planner struct {
	missions *tools.MissionTools
	timeline *tools.TimelineTools
	logger   *logging.Logger
	clock    func() time.Time
}

func NewPlanner(missions *tools.MissionTools, timeline *tools.TimelineTools, opts ...Option) *Planner {
	s := newSettings(opts)
	return &Planner{missions: missions, timeline: timeline, logger: s.logger, clock: s.clock}
}

// plannerRun is the typed working set the planner steps share.
type plannerRun struct {
	req   schema.PlanMissionRequest
	title string
	kind  schema.MissionKind

	similarNote string

	mission  *schema.Mission
	proposed []schema.ProposedBlock
}

// Run executes the planner pipeline. Step failures degrade the response;
// only context cancellation returns an error.
func (p *Planner) Run(ctx context.Context, st *State, req schema.PlanMissionRequest) (schema.PlanMissionResponse, error) {
	run := &plannerRun{req: req}

	steps := []step{
		{name: "parse_input", run: func(ctx context.Context, st *State) error {
			return p.parseInput(st, run)
		}},
		{name: "recall_history", run: func(ctx context.Context, st *State) error {
			return p.recallHistory(ctx, st, run)
		}},
		{name: "build_mission", run: func(ctx context.Context, st *State) error {
			return p.buildMission(ctx, st, run)
		}},
		{name: "propose_blocks", run: func(ctx context.Context, st *State) error {
			return p.proposeBlocks(st, run)
		}},
	}
	if err := runPipeline(ctx, p.logger, st, steps); err != nil {
		return schema.PlanMissionResponse{}, err
	}
	return p.summarize(st, run), nil
}

func (p *Planner) parseInput(st *State, run *plannerRun) error {
	title := strings.TrimSpace(run.req.RawInput)
	if len(title) > maxMissionTitleLen {
		title = title[:maxMissionTitleLen]
	}
	run.title = title
	run.kind = run.req.Kind
	if run.kind == "" {
		run.kind = schema.MissionKindOther
	}
	st.AppendScratchpad(fmt.Sprintf("parsed title %q kind %s", run.title, run.kind))
	return nil
}

func (p *Planner) recallHistory(ctx context.Context, st *State, run *plannerRun) error {
	// Search the full raw input, not the capped title, so long missions
	// still match on the part the title cut off.
	query := run.title
	if raw := strings.TrimSpace(run.req.RawInput); raw != "" {
		query = raw
	}
	similar, err := p.missions.FindSimilarMissions(ctx, st.Context.UserID, query, similarMissionLimit)
	if err != nil {
		return err
	}
	var completed int
	for _, m := range similar {
		if m.Status == schema.MissionStatusCompleted {
			completed++
		}
	}
	if completed > 0 {
		run.similarNote = fmt.Sprintf("Found %d similar completed missions. Consider what worked before.", completed)
	}
	return nil
}

func (p *Planner) buildMission(ctx context.Context, st *State, run *plannerRun) error {
	mission := schema.Mission{
		UserID:       st.Context.UserID,
		Title:        run.title,
		Kind:         run.kind,
		Status:       schema.MissionStatusActive,
		Priority:     schema.MissionPriorityMedium,
		DeadlineDate: run.req.Deadline,
	}
	// Keep the full raw input around when the title had to be cut.
	if run.req.RawInput != run.title {
		mission.Description = run.req.RawInput
	}
	if run.req.EstimatedHours > 0 {
		mission.EstimatedTotalMinutes = int(run.req.EstimatedHours * 60)
	}
	if run.req.Constraints != nil {
		mission.Constraints = *run.req.Constraints
	}
	if run.req.Preferences != nil {
		mission.Preferences = *run.req.Preferences
	}

	created, err := p.missions.CreateMission(ctx, mission)
	if err != nil {
		return err
	}
	run.mission = &created
	st.Context.MissionID = created.ID
	st.AddOutput("mission_id", created.ID)
	return nil
}

func (p *Planner) proposeBlocks(st *State, run *plannerRun) error {
	if run.mission == nil {
		return fmt.Errorf("No mission created")
	}
	run.proposed = p.timeline.ProposeBlocks(*run.mission, proposedSessionCount)
	st.AddOutput("proposed_blocks", len(run.proposed))
	return nil
}

func (p *Planner) summarize(st *State, run *plannerRun) schema.PlanMissionResponse {
	resp := schema.PlanMissionResponse{
		ProposedBlocks:      run.proposed,
		SimilarMissionsNote: run.similarNote,
		Warnings:            append([]string(nil), st.Errors...),
	}

	if run.mission != nil {
		resp.Mission = *run.mission
		resp.Summary = fmt.Sprintf("Created mission: %s", run.mission.Title)
		if len(run.proposed) > 0 {
			resp.Summary += fmt.Sprintf(" with %d proposed sessions", len(run.proposed))
		}
		var parts []string
		if !run.mission.DeadlineDate.IsZero() {
			parts = append(parts, fmt.Sprintf("Deadline: %s", run.mission.DeadlineDate.Format("2006-01-02")))
		}
		if run.req.EstimatedHours > 0 {
			parts = append(parts, fmt.Sprintf("Estimated effort: %.1f hours", run.req.EstimatedHours))
		}
		resp.Rationale = strings.Join(parts, ". ")
	} else {
		resp.Mission = schema.Mission{
			UserID: st.Context.UserID,
			Title:  "Failed to create mission",
			Kind:   run.kind,
			Status: schema.MissionStatusDraft,
		}
		resp.Summary = "Failed to create mission"
	}
	return resp
}
