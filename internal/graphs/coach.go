package graphs

import (
	"context"
	"fmt"
	"time"

	"github.com/emberfocus/ember/internal/logging"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tools"
)

const stretchGoalThresholdMinutes = 40

// Coach starts or continues a focus session: load context, pick the
// block, write the brief, then flip the dock into focus mode.
type Coach struct {
	missions *tools.MissionTools
	timeline *tools.TimelineTools
	ui       *tools.UITools
	logger   *logging.Logger
	clock    func() time.Time
}

func NewCoach(missions *tools.MissionTools, timeline *tools.TimelineTools, ui *tools.UITools, opts ...Option) *Coach {
	s := newSettings(opts)
	return &Coach{missions: missions, timeline: timeline, ui: ui, logger: s.logger, clock: s.clock}
}

// coachRun is the typed working set the coach steps share.
type coachRun struct {
	req schema.RunSessionRequest

	mission *schema.Mission
	block   *schema.Block
	today   []schema.Block

	continuation bool
	duration     int

	brief   string
	actions []schema.SessionAction
	uiState schema.SessionUIState
}

// Run executes the coach pipeline.
func (c *Coach) Run(ctx context.Context, st *State, req schema.RunSessionRequest) (schema.RunSessionResponse, error) {
	run := &coachRun{req: req}

	steps := []step{
		{name: "load_context", run: func(ctx context.Context, st *State) error {
			return c.loadContext(ctx, st, run)
		}},
		{name: "decide_block", run: func(ctx context.Context, st *State) error {
			return c.decideBlock(ctx, st, run)
		}},
		{name: "write_brief", run: func(ctx context.Context, st *State) error {
			return c.writeBrief(st, run)
		}},
		{name: "start_session", run: func(ctx context.Context, st *State) error {
			return c.startSession(ctx, st, run)
		}},
	}
	if err := runPipeline(ctx, c.logger, st, steps); err != nil {
		return schema.RunSessionResponse{}, err
	}
	return c.respond(st, run), nil
}

func (c *Coach) loadContext(ctx context.Context, st *State, run *coachRun) error {
	missionID := run.req.MissionID
	if missionID == "" {
		missionID = st.Context.MissionID
	}
	if missionID != "" {
		mission, err := c.missions.GetMission(ctx, missionID)
		if err != nil {
			return err
		}
		run.mission = mission
	}
	if run.mission == nil {
		mission, err := c.missions.ActiveMission(ctx, st.Context.UserID)
		if err != nil {
			return err
		}
		run.mission = mission
	}

	blockID := run.req.BlockID
	if blockID == "" {
		blockID = st.Context.BlockID
	}
	if blockID != "" {
		block, err := c.timeline.GetBlock(ctx, blockID)
		if err != nil {
			return err
		}
		run.block = block
	} else {
		block, err := c.timeline.CurrentBlock(ctx, st.Context.UserID)
		if err != nil {
			return err
		}
		run.block = block
	}

	today, err := c.timeline.TodayBlocks(ctx, st.Context.UserID)
	if err != nil {
		return err
	}
	run.today = today
	return nil
}

func (c *Coach) decideBlock(ctx context.Context, st *State, run *coachRun) error {
	switch {
	case run.block != nil && run.block.Status == schema.BlockStatusInProgress:
		run.continuation = true
	case run.block != nil:
	default:
		missionID := ""
		if run.mission != nil {
			missionID = run.mission.ID
		}
		next, err := c.timeline.NextPlannedBlock(ctx, st.Context.UserID, missionID)
		if err != nil {
			return err
		}
		if next != nil {
			run.block = next
			break
		}
		if run.mission == nil {
			return fmt.Errorf("No mission or block available")
		}
		duration := run.req.AvailableMinutes
		if duration <= 0 {
			duration = 25
		}
		created, err := c.timeline.CreateBlock(ctx, schema.Block{
			UserID:                 st.Context.UserID,
			MissionID:              run.mission.ID,
			PlannedDurationMinutes: duration,
			Status:                 schema.BlockStatusPlanned,
		})
		if err != nil {
			return err
		}
		run.block = &created
	}

	if run.block != nil {
		run.duration = run.block.PlannedDurationMinutes
	}
	if run.duration <= 0 {
		run.duration = run.req.AvailableMinutes
	}
	if run.duration <= 0 {
		run.duration = 25
	}
	return nil
}

func (c *Coach) writeBrief(st *State, run *coachRun) error {
	if run.block == nil {
		run.brief = "Let's get you started. What would you like to work on?"
		return nil
	}

	topic := ""
	if run.mission != nil {
		topic = run.mission.Title
	}
	if topic == "" {
		topic = run.block.Title
	}
	if topic == "" {
		topic = "your work"
	}

	if run.continuation {
		run.brief = fmt.Sprintf("Continuing your session on %s. You've got this.", topic)
	} else {
		run.brief = fmt.Sprintf("Let's do a %d-minute block on %s.", run.duration, topic)
		if run.block.PlanNote != "" {
			run.brief += fmt.Sprintf(" Focus: %s", run.block.PlanNote)
		}
	}

	if run.block.PlanNote != "" {
		run.actions = append(run.actions, schema.SessionAction{
			Description:      run.block.PlanNote,
			EstimatedMinutes: run.duration,
		})
	} else {
		title := run.block.Title
		if title == "" {
			title = "Focus session"
		}
		run.actions = append(run.actions, schema.SessionAction{
			Description:      fmt.Sprintf("Work on %s", title),
			EstimatedMinutes: run.duration,
		})
	}
	if run.duration >= stretchGoalThresholdMinutes {
		run.actions = append(run.actions, schema.SessionAction{
			Description:      "Review what you completed",
			EstimatedMinutes: 5,
			IsStretchGoal:    true,
		})
	}
	return nil
}

func (c *Coach) startSession(ctx context.Context, st *State, run *coachRun) error {
	if run.block == nil {
		return nil
	}
	if run.block.Status != schema.BlockStatusInProgress {
		started, err := c.timeline.StartBlock(ctx, run.block.ID)
		if err != nil {
			return err
		}
		run.block = &started
	}
	st.Context.BlockID = run.block.ID
	st.AddOutput("block_id", run.block.ID)

	if c.ui != nil {
		c.ui.SetFocusMode(true)
		c.ui.StartTimer(run.duration * 60)
	}
	run.uiState = schema.SessionUIState{
		FocusModeActive:       true,
		TimerRunning:          true,
		TimerRemainingSeconds: run.duration * 60,
	}
	return nil
}

func (c *Coach) respond(st *State, run *coachRun) schema.RunSessionResponse {
	resp := schema.RunSessionResponse{
		Actions:            run.actions,
		Brief:              run.brief,
		ShowTimer:          true,
		EnableLeakTracking: true,
		UIState:            run.uiState,
		Warnings:           append([]string(nil), st.Errors...),
	}
	if resp.Brief == "" {
		resp.Brief = "Ready to focus?"
	}
	resp.RecommendedDurationMinutes = run.duration
	if resp.RecommendedDurationMinutes <= 0 {
		resp.RecommendedDurationMinutes = 25
	}
	if run.block != nil {
		resp.Block = *run.block
	} else {
		resp.Block = schema.Block{
			ID:     schema.NewID(),
			UserID: st.Context.UserID,
			Status: schema.BlockStatusPlanned,
		}
	}
	return resp
}
