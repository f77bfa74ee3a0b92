package tools

import (
	"context"
	"math"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
)

// nominalBlocksPerPeriod anchors the completion rate: finishing this many
// blocks in a period counts as a fully executed plan.
const nominalBlocksPerPeriod = 5

// MemoryTools manages episodic memory, profiles, and pattern summaries.
type MemoryTools struct {
	episodes memory.Episodes
	profiles memory.Profiles
	semantic memory.SemanticMemory
	clock    func() time.Time
}

// NewMemoryTools builds memory tools. semantic may be nil; search and
// pattern summaries then degrade to empty results.
func NewMemoryTools(episodes memory.Episodes, profiles memory.Profiles, semantic memory.SemanticMemory, opts ...Option) *MemoryTools {
	s := newSettings(opts)
	return &MemoryTools{episodes: episodes, profiles: profiles, semantic: semantic, clock: s.clock}
}

// SaveEpisode fills in id and timestamp, persists the episode, and
// indexes it for similarity search.
func (t *MemoryTools) SaveEpisode(ctx context.Context, episode schema.Episode) (schema.Episode, error) {
	if episode.ID == "" {
		episode.ID = schema.NewID()
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = t.clock().UTC()
	}
	created, err := t.episodes.Create(ctx, episode)
	if err != nil {
		return schema.Episode{}, err
	}
	if t.semantic != nil {
		_ = t.semantic.AddEpisode(ctx, created)
	}
	return created, nil
}

// SearchEpisodes finds past episodes similar to the query text.
func (t *MemoryTools) SearchEpisodes(ctx context.Context, userID, query string, limit int, minSimilarity float64) ([]schema.Episode, error) {
	if t.semantic == nil {
		return nil, nil
	}
	return t.semantic.SearchSimilarEpisodes(ctx, userID, query, limit, minSimilarity)
}

// RecentEpisodes returns the user's newest episodes.
func (t *MemoryTools) RecentEpisodes(ctx context.Context, userID string, limit int) ([]schema.Episode, error) {
	return t.episodes.GetRecent(ctx, userID, limit)
}

// EpisodesForPeriod returns episodes created within [start, end] by UTC
// calendar day.
func (t *MemoryTools) EpisodesForPeriod(ctx context.Context, userID string, start, end time.Time) ([]schema.Episode, error) {
	return t.episodes.ListForUser(ctx, userID, memory.EpisodeFilter{StartDate: start, EndDate: end})
}

// MissionEpisodes returns the user's episodes tied to one mission.
func (t *MemoryTools) MissionEpisodes(ctx context.Context, userID, missionID string) ([]schema.Episode, error) {
	return t.episodes.ListForUser(ctx, userID, memory.EpisodeFilter{MissionID: missionID})
}

// UserProfile returns the profile, creating a default one on first touch.
func (t *MemoryTools) UserProfile(ctx context.Context, userID string) (schema.UserProfile, error) {
	return t.profiles.GetOrCreate(ctx, userID)
}

// UpdateUserStats applies additive deltas to the rolling totals.
func (t *MemoryTools) UpdateUserStats(ctx context.Context, userID string, missionsDelta, blocksDelta, focusedMinutesDelta int) (schema.UserProfile, error) {
	profile, err := t.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return schema.UserProfile{}, err
	}
	profile.Stats.TotalMissionsCreated += missionsDelta
	profile.Stats.TotalBlocksCompleted += blocksDelta
	profile.Stats.TotalFocusedMinutes += focusedMinutesDelta
	profile.UpdatedAt = t.clock().UTC()
	return t.profiles.Update(ctx, profile)
}

// ComputePeriodStats aggregates episodes into period statistics. Only
// session episodes count as completed blocks; score averages skip unset
// (zero) scores.
func ComputePeriodStats(episodes []schema.Episode) schema.PeriodStats {
	var stats schema.PeriodStats
	var focusSum, focusN, energySum, energyN int
	for _, e := range episodes {
		stats.TotalFocusedMinutes += e.TimeFocusedMinutes
		stats.TotalLeakedMinutes += e.TimeLeakedMinutes
		if e.Kind == schema.EpisodeKindSession {
			stats.BlocksCompleted++
		}
		if e.FocusScore != nil {
			focusSum += *e.FocusScore
			focusN++
		}
		if e.EnergyScore != nil {
			energySum += *e.EnergyScore
			energyN++
		}
	}
	if focusN > 0 {
		stats.AvgFocusScore = float64(focusSum) / float64(focusN)
	}
	if energyN > 0 {
		stats.AvgEnergyScore = float64(energySum) / float64(energyN)
	}
	if stats.BlocksCompleted > 0 {
		stats.CompletionRate = math.Min(1.0, float64(stats.BlocksCompleted)/float64(nominalBlocksPerPeriod))
	}
	return stats
}

// PatternSummary returns the stored summary for a pattern type, or empty.
func (t *MemoryTools) PatternSummary(ctx context.Context, userID, patternType string) (string, error) {
	if t.semantic == nil {
		return "", nil
	}
	return t.semantic.GetPatternSummary(ctx, userID, patternType)
}

// UpdatePatternSummary stores a pattern summary. A nil semantic store
// makes this a no-op.
func (t *MemoryTools) UpdatePatternSummary(ctx context.Context, userID, patternType, summary string) error {
	if t.semantic == nil {
		return nil
	}
	return t.semantic.UpdatePatternSummary(ctx, userID, patternType, summary)
}
