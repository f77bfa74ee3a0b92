// Package memory defines the repository contracts between the workflow
// graphs/tools and storage, plus the in-memory reference implementations.
// Persistent backends live in subpackages and satisfy the same interfaces.
package memory

import (
	"context"
	"time"

	"github.com/emberfocus/ember/internal/schema"
)

// Lookup methods return (nil, nil) when the entity does not exist; a
// non-nil error always means the backend itself failed. Update methods
// check the entity Version and fail with a conflict error on mismatch.

// MissionListOptions filter ListForUser results.
type MissionListOptions struct {
	Status schema.MissionStatus // empty matches all
	Limit  int                  // zero means the backend default (50)
	Offset int
}

// Missions is the mission repository contract.
type Missions interface {
	Create(ctx context.Context, mission schema.Mission) (schema.Mission, error)
	Get(ctx context.Context, id string) (*schema.Mission, error)
	Update(ctx context.Context, mission schema.Mission) (schema.Mission, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListForUser(ctx context.Context, userID string, opts MissionListOptions) ([]schema.Mission, error)
	// GetActiveMission returns the most recently updated mission with
	// status active, or nil when the user has none.
	GetActiveMission(ctx context.Context, userID string) (*schema.Mission, error)
}

// BlockListOptions filter ListForMission results.
type BlockListOptions struct {
	Status schema.BlockStatus // empty matches all
	Limit  int                // zero means the backend default (100)
}

// Blocks is the block repository contract.
type Blocks interface {
	Create(ctx context.Context, block schema.Block) (schema.Block, error)
	Get(ctx context.Context, id string) (*schema.Block, error)
	Update(ctx context.Context, block schema.Block) (schema.Block, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListForMission(ctx context.Context, missionID string, opts BlockListOptions) ([]schema.Block, error)
	// ListForUserDate returns blocks whose scheduled start falls on the
	// given UTC calendar day, ordered by scheduled start.
	ListForUserDate(ctx context.Context, userID string, day time.Time) ([]schema.Block, error)
	// GetCurrentBlock returns the user's in-progress block. When more
	// than one exists the most recent actual start wins.
	GetCurrentBlock(ctx context.Context, userID string) (*schema.Block, error)
	// StartExclusive atomically marks the block in_progress with the
	// given start time and demotes any other in_progress block of the
	// same user back to planned, so at most one block per user is ever
	// in progress.
	StartExclusive(ctx context.Context, blockID string, at time.Time) (schema.Block, error)
}

// EpisodeFilter narrows ListForUser results.
type EpisodeFilter struct {
	Kind      schema.EpisodeKind // empty matches all
	MissionID string             // empty matches all
	StartDate time.Time          // zero means unbounded; compared by UTC calendar day
	EndDate   time.Time
	Limit     int // zero means the backend default (50)
}

// Episodes is the episode repository contract. Episodes are append-only;
// there is no update or delete.
type Episodes interface {
	Create(ctx context.Context, episode schema.Episode) (schema.Episode, error)
	Get(ctx context.Context, id string) (*schema.Episode, error)
	ListForUser(ctx context.Context, userID string, filter EpisodeFilter) ([]schema.Episode, error)
	GetRecent(ctx context.Context, userID string, limit int) ([]schema.Episode, error)
}

// Profiles is the user profile repository contract.
type Profiles interface {
	Get(ctx context.Context, userID string) (*schema.UserProfile, error)
	Create(ctx context.Context, profile schema.UserProfile) (schema.UserProfile, error)
	Update(ctx context.Context, profile schema.UserProfile) (schema.UserProfile, error)
	// GetOrCreate lazily creates a default profile on first touch.
	GetOrCreate(ctx context.Context, userID string) (schema.UserProfile, error)
}

// SemanticMemory indexes episodes and missions for similarity search.
// Optional: the graphs tolerate a nil semantic store.
type SemanticMemory interface {
	AddEpisode(ctx context.Context, episode schema.Episode) error
	AddMission(ctx context.Context, mission schema.Mission) error
	SearchSimilarEpisodes(ctx context.Context, userID, query string, limit int, minSimilarity float64) ([]schema.Episode, error)
	SearchSimilarMissions(ctx context.Context, userID, query string, limit int) ([]schema.Mission, error)
	GetPatternSummary(ctx context.Context, userID, patternType string) (string, error)
	UpdatePatternSummary(ctx context.Context, userID, patternType, summary string) error
}

// GraphRepository exposes concept-graph traversal. Optional.
type GraphRepository interface {
	GetNode(ctx context.Context, graphID, nodeID string) (*schema.GraphNode, error)
	GetNeighbors(ctx context.Context, graphID, nodeID string, edgeTypes []schema.EdgeType, direction schema.EdgeDirection) ([]schema.GraphNode, error)
	Query(ctx context.Context, query schema.GraphQuery) (schema.GraphQueryResult, error)
	GetUserProgress(ctx context.Context, userID, graphID, nodeID string) (*schema.NodeProgress, error)
	UpdateUserProgress(ctx context.Context, progress schema.NodeProgress) (schema.NodeProgress, error)
}

// Bundle groups the repositories for injection into graphs and tools.
// Semantic and Graph may be nil.
type Bundle struct {
	Missions Missions
	Blocks   Blocks
	Episodes Episodes
	Profiles Profiles
	Semantic SemanticMemory
	Graph    GraphRepository
}
