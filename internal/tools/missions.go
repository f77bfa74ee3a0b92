package tools

import (
	"context"
	"time"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

// MissionTools manages the mission lifecycle.
type MissionTools struct {
	missions memory.Missions
	semantic memory.SemanticMemory
	clock    func() time.Time
}

// NewMissionTools builds mission tools. semantic may be nil; similarity
// features then degrade to empty results.
func NewMissionTools(missions memory.Missions, semantic memory.SemanticMemory, opts ...Option) *MissionTools {
	s := newSettings(opts)
	return &MissionTools{missions: missions, semantic: semantic, clock: s.clock}
}

// CreateMission fills in id, timestamps, and defaults, persists the
// mission, and indexes it for similarity search.
func (t *MissionTools) CreateMission(ctx context.Context, mission schema.Mission) (schema.Mission, error) {
	now := t.clock().UTC()
	if mission.ID == "" {
		mission.ID = schema.NewID()
	}
	if mission.Kind == "" {
		mission.Kind = schema.MissionKindOther
	}
	if mission.Status == "" {
		mission.Status = schema.MissionStatusDraft
	}
	if mission.Priority == "" {
		mission.Priority = schema.MissionPriorityMedium
	}
	mission.CreatedAt = now
	mission.UpdatedAt = now

	created, err := t.missions.Create(ctx, mission)
	if err != nil {
		return schema.Mission{}, err
	}
	if t.semantic != nil {
		// Indexing is best effort; the mission exists either way.
		_ = t.semantic.AddMission(ctx, created)
	}
	return created, nil
}

// GetMission returns (nil, nil) when the mission does not exist.
func (t *MissionTools) GetMission(ctx context.Context, id string) (*schema.Mission, error) {
	return t.missions.Get(ctx, id)
}

// UpdateMission persists changes, enforcing the status machine when the
// status differs from the stored one.
func (t *MissionTools) UpdateMission(ctx context.Context, mission schema.Mission) (schema.Mission, error) {
	stored, err := t.missions.Get(ctx, mission.ID)
	if err != nil {
		return schema.Mission{}, err
	}
	if stored == nil {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeNotFound, "mission %s not found", mission.ID)
	}
	if mission.Status != stored.Status && !stored.CanTransitionTo(mission.Status) {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeValidation, "mission %s cannot move from %s to %s", mission.ID, stored.Status, mission.Status)
	}
	mission.UpdatedAt = t.clock().UTC()
	return t.missions.Update(ctx, mission)
}

// CompleteMission marks the mission completed.
func (t *MissionTools) CompleteMission(ctx context.Context, id string) (schema.Mission, error) {
	return t.transition(ctx, id, schema.MissionStatusCompleted)
}

// PauseMission marks the mission paused.
func (t *MissionTools) PauseMission(ctx context.Context, id string) (schema.Mission, error) {
	return t.transition(ctx, id, schema.MissionStatusPaused)
}

// ResumeMission moves a paused or draft mission back to active.
func (t *MissionTools) ResumeMission(ctx context.Context, id string) (schema.Mission, error) {
	return t.transition(ctx, id, schema.MissionStatusActive)
}

// AbandonMission marks the mission abandoned.
func (t *MissionTools) AbandonMission(ctx context.Context, id string) (schema.Mission, error) {
	return t.transition(ctx, id, schema.MissionStatusAbandoned)
}

func (t *MissionTools) transition(ctx context.Context, id string, next schema.MissionStatus) (schema.Mission, error) {
	stored, err := t.missions.Get(ctx, id)
	if err != nil {
		return schema.Mission{}, err
	}
	if stored == nil {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeNotFound, "mission %s not found", id)
	}
	if !stored.CanTransitionTo(next) {
		return schema.Mission{}, serviceerr.New(serviceerr.CodeValidation, "mission %s cannot move from %s to %s", id, stored.Status, next)
	}
	updated := *stored
	updated.Status = next
	updated.UpdatedAt = t.clock().UTC()
	return t.missions.Update(ctx, updated)
}

// ListMissions returns the user's missions, newest update first.
func (t *MissionTools) ListMissions(ctx context.Context, userID string, opts memory.MissionListOptions) ([]schema.Mission, error) {
	return t.missions.ListForUser(ctx, userID, opts)
}

// ActiveMission returns the user's current active mission, or nil.
func (t *MissionTools) ActiveMission(ctx context.Context, userID string) (*schema.Mission, error) {
	return t.missions.GetActiveMission(ctx, userID)
}

// FindSimilarMissions searches past missions by text similarity. Without
// a semantic store it returns no results and no error.
func (t *MissionTools) FindSimilarMissions(ctx context.Context, userID, query string, limit int) ([]schema.Mission, error) {
	if t.semantic == nil {
		return nil, nil
	}
	return t.semantic.SearchSimilarMissions(ctx, userID, query, limit)
}
