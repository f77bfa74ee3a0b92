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

// Pattern thresholds. Minutes and scores below/above these lines trigger
// the corresponding highlight, challenge, or insight.
const (
	focusHighlightMinutes = 60
	leakChallengeMinutes  = 30
	strongFocusScore      = 4.0
	weakScore             = 3.0
)

// Archivist reflects on a period of work: compute stats, extract
// patterns, write the episode, and fold the totals into the profile.
type Archivist struct {
	mem      *tools.MemoryTools
	missions *tools.MissionTools
	timeline *tools.TimelineTools
	logger   *logging.Logger
	clock    func() time.Time
}

func NewArchivist(mem *tools.MemoryTools, missions *tools.MissionTools, timeline *tools.TimelineTools, opts ...Option) *Archivist {
	s := newSettings(opts)
	return &Archivist{mem: mem, missions: missions, timeline: timeline, logger: s.logger, clock: s.clock}
}

// archivistRun is the typed working set the archivist steps share.
type archivistRun struct {
	req schema.ReflectPeriodRequest

	start, end time.Time
	mission    *schema.Mission
	block      *schema.Block
	episodes   []schema.Episode

	stats      schema.PeriodStats
	highlights []string
	challenges []string
	patterns   []schema.PatternInsight

	episode schema.Episode
	profile *schema.UserProfile
}

// Run executes the archivist pipeline.
func (a *Archivist) Run(ctx context.Context, st *State, req schema.ReflectPeriodRequest) (schema.ReflectPeriodResponse, error) {
	run := &archivistRun{req: req}

	steps := []step{
		{name: "resolve_period", run: func(ctx context.Context, st *State) error {
			return a.resolvePeriod(ctx, st, run)
		}},
		{name: "gather_episodes", run: func(ctx context.Context, st *State) error {
			return a.gatherEpisodes(ctx, st, run)
		}},
		{name: "compute_stats", run: func(ctx context.Context, st *State) error {
			return a.computeStats(st, run)
		}},
		{name: "extract_patterns", run: func(ctx context.Context, st *State) error {
			return a.extractPatterns(st, run)
		}},
		{name: "write_episode", run: func(ctx context.Context, st *State) error {
			return a.writeEpisode(ctx, st, run)
		}},
		{name: "update_profile", run: func(ctx context.Context, st *State) error {
			return a.updateProfile(ctx, st, run)
		}},
	}
	if err := runPipeline(ctx, a.logger, st, steps); err != nil {
		return schema.ReflectPeriodResponse{}, err
	}
	return a.respond(st, run), nil
}

func (a *Archivist) resolvePeriod(ctx context.Context, st *State, run *archivistRun) error {
	today := a.clock().UTC()
	switch run.req.Kind {
	case schema.ReflectWeek:
		run.start, run.end = today.AddDate(0, 0, -7), today
	case schema.ReflectMission:
		run.start, run.end = today.AddDate(0, 0, -30), today
	default: // block and day reflect on today
		run.start, run.end = today, today
	}
	if !run.req.StartDate.IsZero() {
		run.start = run.req.StartDate
	}
	if !run.req.EndDate.IsZero() {
		run.end = run.req.EndDate
	}
	st.AppendScratchpad(fmt.Sprintf("period %s to %s", run.start.Format("2006-01-02"), run.end.Format("2006-01-02")))

	// Referenced entities load soft: a bad id degrades the reflection
	// instead of failing it.
	if run.req.BlockID != "" {
		block, err := a.timeline.GetBlock(ctx, run.req.BlockID)
		if err != nil {
			st.AddError(fmt.Sprintf("resolve_period: load block: %v", err))
		} else if block != nil {
			run.block = block
			st.AppendScratchpad("block " + block.ID)
		}
	}
	if run.req.MissionID != "" {
		mission, err := a.missions.GetMission(ctx, run.req.MissionID)
		if err != nil {
			st.AddError(fmt.Sprintf("resolve_period: load mission: %v", err))
		} else if mission != nil {
			run.mission = mission
			st.AppendScratchpad("mission " + mission.Title)
		}
	}
	return nil
}

func (a *Archivist) gatherEpisodes(ctx context.Context, st *State, run *archivistRun) error {
	episodes, err := a.mem.EpisodesForPeriod(ctx, st.Context.UserID, run.start, run.end)
	if err != nil {
		return err
	}
	run.episodes = episodes
	return nil
}

func (a *Archivist) computeStats(st *State, run *archivistRun) error {
	run.stats = tools.ComputePeriodStats(run.episodes)
	st.AddOutput("blocks_completed", run.stats.BlocksCompleted)
	return nil
}

func (a *Archivist) extractPatterns(st *State, run *archivistRun) error {
	stats := run.stats
	if stats.BlocksCompleted > 0 {
		run.highlights = append(run.highlights, fmt.Sprintf("Completed %d focus blocks", stats.BlocksCompleted))
	}
	if stats.TotalFocusedMinutes > focusHighlightMinutes {
		run.highlights = append(run.highlights, fmt.Sprintf("Total focus time: %d minutes", stats.TotalFocusedMinutes))
	}
	if stats.TotalLeakedMinutes > leakChallengeMinutes {
		run.challenges = append(run.challenges, fmt.Sprintf("Leak time: %d minutes", stats.TotalLeakedMinutes))
	}

	if stats.AvgFocusScore >= strongFocusScore {
		run.patterns = append(run.patterns, schema.PatternInsight{
			Description:    "Your focus has been strong this period",
			Confidence:     0.7,
			SupportingData: fmt.Sprintf("Average focus score: %.1f/5", stats.AvgFocusScore),
		})
	} else if stats.AvgFocusScore > 0 && stats.AvgFocusScore < weakScore {
		run.patterns = append(run.patterns, schema.PatternInsight{
			Description:     "Focus has been challenging - consider shorter blocks",
			Confidence:      0.6,
			SupportingData:  fmt.Sprintf("Average focus score: %.1f/5", stats.AvgFocusScore),
			SuggestedAction: "Try 25-minute blocks instead of longer ones",
		})
	}
	if stats.AvgEnergyScore > 0 && stats.AvgEnergyScore < weakScore {
		run.patterns = append(run.patterns, schema.PatternInsight{
			Description:     "Energy levels have been lower than usual",
			Confidence:      0.5,
			SupportingData:  fmt.Sprintf("Average energy score: %.1f/5", stats.AvgEnergyScore),
			SuggestedAction: "Consider rest or lighter sessions",
		})
	}
	return nil
}

func (a *Archivist) writeEpisode(ctx context.Context, st *State, run *archivistRun) error {
	var parts []string
	if run.stats.BlocksCompleted > 0 {
		parts = append(parts, fmt.Sprintf("Completed %d blocks", run.stats.BlocksCompleted))
	}
	if run.stats.TotalFocusedMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes focused", run.stats.TotalFocusedMinutes))
	}
	summary := strings.Join(parts, ". ")
	if summary == "" {
		summary = "Reflection recorded"
	}

	tags := []string{string(run.req.Kind)}
	if run.req.UserReflection != "" {
		tags = append(tags, "has_reflection")
	}

	missionID := run.req.MissionID
	if missionID == "" && run.block != nil {
		missionID = run.block.MissionID
	}

	episode := schema.Episode{
		UserID:             st.Context.UserID,
		Kind:               episodeKindFor(run.req.Kind),
		MissionID:          missionID,
		BlockID:            run.req.BlockID,
		Summary:            summary,
		Reflection:         run.req.UserReflection,
		FocusScore:         run.req.FocusScore,
		EnergyScore:        run.req.EnergyScore,
		TimeFocusedMinutes: run.stats.TotalFocusedMinutes,
		TimeLeakedMinutes:  run.stats.TotalLeakedMinutes,
		Tags:               tags,
	}
	saved, err := a.mem.SaveEpisode(ctx, episode)
	if err != nil {
		return err
	}
	run.episode = saved
	st.AddOutput("episode_id", saved.ID)
	return nil
}

// episodeKindFor maps the reflection period onto the episode taxonomy.
func episodeKindFor(kind schema.ReflectPeriodKind) schema.EpisodeKind {
	switch kind {
	case schema.ReflectBlock:
		return schema.EpisodeKindSession
	case schema.ReflectDay:
		return schema.EpisodeKindDay
	case schema.ReflectMission:
		return schema.EpisodeKindMission
	default:
		return schema.EpisodeKindMeta
	}
}

func (a *Archivist) updateProfile(ctx context.Context, st *State, run *archivistRun) error {
	if run.stats.BlocksCompleted == 0 && run.stats.TotalFocusedMinutes == 0 {
		return nil
	}
	profile, err := a.mem.UpdateUserStats(ctx, st.Context.UserID, 0, run.stats.BlocksCompleted, run.stats.TotalFocusedMinutes)
	if err != nil {
		return err
	}
	run.profile = &profile
	return nil
}

func (a *Archivist) respond(st *State, run *archivistRun) schema.ReflectPeriodResponse {
	var parts []string
	if len(run.highlights) > 0 {
		parts = append(parts, "Highlights: "+strings.Join(run.highlights, ", "))
	}
	if len(run.challenges) > 0 {
		parts = append(parts, "Challenges: "+strings.Join(run.challenges, ", "))
	}
	summary := strings.Join(parts, ". ")
	if summary == "" {
		summary = "Reflection complete."
	}

	var suggestions []string
	for _, p := range run.patterns {
		if p.SuggestedAction != "" {
			suggestions = append(suggestions, p.SuggestedAction)
		}
	}

	return schema.ReflectPeriodResponse{
		Episode:        run.episode,
		Summary:        summary,
		Highlights:     run.highlights,
		Challenges:     run.challenges,
		Patterns:       run.patterns,
		Stats:          run.stats,
		UpdatedProfile: run.profile,
		Suggestions:    suggestions,
		Warnings:       append([]string(nil), st.Errors...),
	}
}
