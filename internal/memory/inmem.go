package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

const (
	defaultMissionLimit = 50
	defaultBlockLimit   = 100
	defaultEpisodeLimit = 50
)

// Option customizes the in-memory bundle.
type Option func(*inMemoryConfig)

type inMemoryConfig struct {
	clock func() time.Time
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *inMemoryConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewInMemory returns a fresh bundle of in-memory repositories, including
// the semantic memory stub and the concept-graph store.
func NewInMemory(opts ...Option) Bundle {
	cfg := inMemoryConfig{clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Bundle{
		Missions: &InMemoryMissions{missions: map[string]schema.Mission{}},
		Blocks:   &InMemoryBlocks{blocks: map[string]schema.Block{}},
		Episodes: &InMemoryEpisodes{episodes: map[string]schema.Episode{}},
		Profiles: &InMemoryProfiles{profiles: map[string]schema.UserProfile{}, clock: cfg.clock},
		Semantic: NewInMemorySemantic(),
		Graph:    NewInMemoryGraph(),
	}
}

// InMemoryMissions is a mutex-guarded map implementation of Missions.
type InMemoryMissions struct {
	mu       sync.RWMutex
	missions map[string]schema.Mission
}

func (r *InMemoryMissions) Create(_ context.Context, mission schema.Mission) (schema.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mission.Version == 0 {
		mission.Version = 1
	}
	r.missions[mission.ID] = mission
	return mission, nil
}

func (r *InMemoryMissions) Get(_ context.Context, id string) (*schema.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mission, ok := r.missions[id]
	if !ok {
		return nil, nil
	}
	return &mission, nil
}

func (r *InMemoryMissions) Update(_ context.Context, mission schema.Mission) (schema.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.missions[mission.ID]
	if !ok {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeNotFound, "mission %s not found", mission.ID)
	}
	if mission.Version != stored.Version {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeConflict, "mission %s version %d is stale (stored %d)", mission.ID, mission.Version, stored.Version)
	}
	mission.Version++
	r.missions[mission.ID] = mission
	return mission, nil
}

func (r *InMemoryMissions) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[id]; !ok {
		return false, nil
	}
	delete(r.missions, id)
	return true, nil
}

func (r *InMemoryMissions) ListForUser(_ context.Context, userID string, opts MissionListOptions) ([]schema.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missions []schema.Mission
	for _, m := range r.missions {
		if m.UserID != userID {
			continue
		}
		if opts.Status != "" && m.Status != opts.Status {
			continue
		}
		missions = append(missions, m)
	}
	sort.Slice(missions, func(i, j int) bool {
		return missions[i].CreatedAt.After(missions[j].CreatedAt)
	})
	return page(missions, opts.Offset, limitOr(opts.Limit, defaultMissionLimit)), nil
}

func (r *InMemoryMissions) GetActiveMission(_ context.Context, userID string) (*schema.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active *schema.Mission
	for _, m := range r.missions {
		if m.UserID != userID || m.Status != schema.MissionStatusActive {
			continue
		}
		m := m
		// Ties on updated_at break on id so repeated calls agree.
		if active == nil || m.UpdatedAt.After(active.UpdatedAt) ||
			(m.UpdatedAt.Equal(active.UpdatedAt) && m.ID > active.ID) {
			active = &m
		}
	}
	return active, nil
}

// InMemoryBlocks is a mutex-guarded map implementation of Blocks.
type InMemoryBlocks struct {
	mu     sync.RWMutex
	blocks map[string]schema.Block
}

func (r *InMemoryBlocks) Create(_ context.Context, block schema.Block) (schema.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if block.Version == 0 {
		block.Version = 1
	}
	r.blocks[block.ID] = block
	return block, nil
}

func (r *InMemoryBlocks) Get(_ context.Context, id string) (*schema.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	block, ok := r.blocks[id]
	if !ok {
		return nil, nil
	}
	return &block, nil
}

func (r *InMemoryBlocks) Update(_ context.Context, block schema.Block) (schema.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.blocks[block.ID]
	if !ok {
		return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", block.ID)
	}
	if block.Version != stored.Version {
		return schema.Block{}, serviceerr.New(serviceerr.CodeConflict, "block %s version %d is stale (stored %d)", block.ID, block.Version, stored.Version)
	}
	block.Version++
	r.blocks[block.ID] = block
	return block, nil
}

func (r *InMemoryBlocks) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[id]; !ok {
		return false, nil
	}
	delete(r.blocks, id)
	return true, nil
}

func (r *InMemoryBlocks) ListForMission(_ context.Context, missionID string, opts BlockListOptions) ([]schema.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var blocks []schema.Block
	for _, b := range r.blocks {
		if b.MissionID != missionID {
			continue
		}
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].SequenceIndex != blocks[j].SequenceIndex {
			return blocks[i].SequenceIndex < blocks[j].SequenceIndex
		}
		return earlier(blocks[i].ScheduledStart, blocks[j].ScheduledStart)
	})
	limit := limitOr(opts.Limit, defaultBlockLimit)
	if len(blocks) > limit {
		blocks = blocks[:limit]
	}
	return blocks, nil
}

func (r *InMemoryBlocks) ListForUserDate(_ context.Context, userID string, day time.Time) ([]schema.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var blocks []schema.Block
	for _, b := range r.blocks {
		if b.UserID != userID || b.ScheduledStart.IsZero() {
			continue
		}
		if !sameUTCDate(b.ScheduledStart, day) {
			continue
		}
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return earlier(blocks[i].ScheduledStart, blocks[j].ScheduledStart)
	})
	return blocks, nil
}

func (r *InMemoryBlocks) GetCurrentBlock(_ context.Context, userID string) (*schema.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var current *schema.Block
	for _, b := range r.blocks {
		if b.UserID != userID || b.Status != schema.BlockStatusInProgress {
			continue
		}
		b := b
		if current == nil || b.ActualStart.After(current.ActualStart) {
			current = &b
		}
	}
	return current, nil
}

func (r *InMemoryBlocks) StartExclusive(_ context.Context, blockID string, at time.Time) (schema.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	block, ok := r.blocks[blockID]
	if !ok {
		return schema.Block{}, serviceerr.New(serviceerr.CodeNotFound, "block %s not found", blockID)
	}
	for id, other := range r.blocks {
		if id == blockID || other.UserID != block.UserID {
			continue
		}
		if other.Status == schema.BlockStatusInProgress {
			other.Status = schema.BlockStatusPlanned
			other.Version++
			r.blocks[id] = other
		}
	}
	block.Status = schema.BlockStatusInProgress
	block.ActualStart = at
	block.Version++
	r.blocks[blockID] = block
	return block, nil
}

// InMemoryEpisodes is a mutex-guarded map implementation of Episodes.
type InMemoryEpisodes struct {
	mu       sync.RWMutex
	episodes map[string]schema.Episode
}

func (r *InMemoryEpisodes) Create(_ context.Context, episode schema.Episode) (schema.Episode, error) {
	if err := episode.Validate(); err != nil {
		return schema.Episode{}, serviceerr.Wrap(serviceerr.CodeValidation, err, "create episode")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.episodes[episode.ID] = episode
	return episode, nil
}

func (r *InMemoryEpisodes) Get(_ context.Context, id string) (*schema.Episode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	episode, ok := r.episodes[id]
	if !ok {
		return nil, nil
	}
	return &episode, nil
}

func (r *InMemoryEpisodes) ListForUser(_ context.Context, userID string, filter EpisodeFilter) ([]schema.Episode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var episodes []schema.Episode
	for _, e := range r.episodes {
		if e.UserID != userID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.MissionID != "" && e.MissionID != filter.MissionID {
			continue
		}
		if !filter.StartDate.IsZero() && utcDate(e.CreatedAt).Before(utcDate(filter.StartDate)) {
			continue
		}
		if !filter.EndDate.IsZero() && utcDate(e.CreatedAt).After(utcDate(filter.EndDate)) {
			continue
		}
		episodes = append(episodes, e)
	}
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].CreatedAt.After(episodes[j].CreatedAt)
	})
	limit := limitOr(filter.Limit, defaultEpisodeLimit)
	if len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

func (r *InMemoryEpisodes) GetRecent(ctx context.Context, userID string, limit int) ([]schema.Episode, error) {
	return r.ListForUser(ctx, userID, EpisodeFilter{Limit: limitOr(limit, 10)})
}

// InMemoryProfiles is a mutex-guarded map implementation of Profiles.
type InMemoryProfiles struct {
	mu       sync.RWMutex
	profiles map[string]schema.UserProfile
	clock    func() time.Time
}

func (r *InMemoryProfiles) Get(_ context.Context, userID string) (*schema.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *InMemoryProfiles) Create(_ context.Context, profile schema.UserProfile) (schema.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.Version == 0 {
		profile.Version = 1
	}
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *InMemoryProfiles) Update(_ context.Context, profile schema.UserProfile) (schema.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.profiles[profile.UserID]
	if !ok {
		return schema.UserProfile{}, serviceerr.New(serviceerr.CodeNotFound, "profile for user %s not found", profile.UserID)
	}
	if profile.Version != stored.Version {
		return schema.UserProfile{}, serviceerr.New(serviceerr.CodeConflict, "profile for user %s version %d is stale (stored %d)", profile.UserID, profile.Version, stored.Version)
	}
	profile.Version++
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *InMemoryProfiles) GetOrCreate(_ context.Context, userID string) (schema.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[userID]; ok {
		return profile, nil
	}
	now := r.clock().UTC()
	profile := schema.UserProfile{
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Preferences: schema.DefaultUserPreferences(),
		Version:     1,
	}
	r.profiles[userID] = profile
	return profile, nil
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func earlier(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}

func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameUTCDate(a, b time.Time) bool {
	return utcDate(a).Equal(utcDate(b))
}
