package tools

import (
	"context"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
)

// GraphTools exposes concept-graph lookups to the graphs. The repository
// is optional; without one every lookup returns empty results.
type GraphTools struct {
	graph memory.GraphRepository
}

func NewGraphTools(graph memory.GraphRepository) *GraphTools {
	return &GraphTools{graph: graph}
}

// Node returns the node, or nil when unknown or no graph is configured.
func (t *GraphTools) Node(ctx context.Context, graphID, nodeID string) (*schema.GraphNode, error) {
	if t.graph == nil {
		return nil, nil
	}
	return t.graph.GetNode(ctx, graphID, nodeID)
}

// Neighbors returns adjacent nodes filtered by edge type and direction.
func (t *GraphTools) Neighbors(ctx context.Context, graphID, nodeID string, edgeTypes []schema.EdgeType, direction schema.EdgeDirection) ([]schema.GraphNode, error) {
	if t.graph == nil {
		return nil, nil
	}
	return t.graph.GetNeighbors(ctx, graphID, nodeID, edgeTypes, direction)
}

// Query runs a filtered node query.
func (t *GraphTools) Query(ctx context.Context, query schema.GraphQuery) (schema.GraphQueryResult, error) {
	if t.graph == nil {
		return schema.GraphQueryResult{}, nil
	}
	return t.graph.Query(ctx, query)
}

// Progress returns the user's progress on a node, or nil.
func (t *GraphTools) Progress(ctx context.Context, userID, graphID, nodeID string) (*schema.NodeProgress, error) {
	if t.graph == nil {
		return nil, nil
	}
	return t.graph.GetUserProgress(ctx, userID, graphID, nodeID)
}

// UpdateProgress upserts the user's progress on a node. Without a graph
// repository the input is returned unchanged.
func (t *GraphTools) UpdateProgress(ctx context.Context, progress schema.NodeProgress) (schema.NodeProgress, error) {
	if t.graph == nil {
		return progress, nil
	}
	return t.graph.UpdateUserProgress(ctx, progress)
}
