package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/emberfocus/ember/internal/schema"
)

// InMemoryGraph implements GraphRepository over plain maps.
type InMemoryGraph struct {
	mu       sync.RWMutex
	nodes    map[string]schema.GraphNode   // keyed by graphID + ":" + nodeID
	edges    map[string]schema.GraphEdge   // keyed by edge id
	progress map[string]schema.NodeProgress // keyed by userID + ":" + graphID + ":" + nodeID
}

// NewInMemoryGraph returns an empty concept-graph store.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{
		nodes:    map[string]schema.GraphNode{},
		edges:    map[string]schema.GraphEdge{},
		progress: map[string]schema.NodeProgress{},
	}
}

// AddNode seeds a node. Intended for loaders and tests.
func (g *InMemoryGraph) AddNode(node schema.GraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[nodeKey(node.GraphID, node.ID)] = node
}

// AddEdge seeds an edge. Intended for loaders and tests.
func (g *InMemoryGraph) AddEdge(edge schema.GraphEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[edge.ID] = edge
}

func (g *InMemoryGraph) GetNode(_ context.Context, graphID, nodeID string) (*schema.GraphNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[nodeKey(graphID, nodeID)]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

func (g *InMemoryGraph) GetNeighbors(ctx context.Context, graphID, nodeID string, edgeTypes []schema.EdgeType, direction schema.EdgeDirection) ([]schema.GraphNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if direction == "" {
		direction = schema.DirectionOutgoing
	}
	seen := map[string]struct{}{}
	var neighbors []schema.GraphNode
	for _, edge := range g.edges {
		if edge.GraphID != graphID {
			continue
		}
		if len(edgeTypes) > 0 && !containsEdgeType(edgeTypes, edge.EdgeType) {
			continue
		}
		var neighborID string
		switch {
		case (direction == schema.DirectionOutgoing || direction == schema.DirectionBoth) && edge.SourceID == nodeID:
			neighborID = edge.TargetID
		case (direction == schema.DirectionIncoming || direction == schema.DirectionBoth) && edge.TargetID == nodeID:
			neighborID = edge.SourceID
		default:
			continue
		}
		if _, dup := seen[neighborID]; dup {
			continue
		}
		if node, ok := g.nodes[nodeKey(graphID, neighborID)]; ok {
			seen[neighborID] = struct{}{}
			neighbors = append(neighbors, node)
		}
	}
	return neighbors, nil
}

func (g *InMemoryGraph) Query(_ context.Context, query schema.GraphQuery) (schema.GraphQueryResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var nodes []schema.GraphNode
	for _, node := range g.nodes {
		if node.GraphID != query.GraphID {
			continue
		}
		if len(query.NodeTypes) > 0 && !containsNodeType(query.NodeTypes, node.Type) {
			continue
		}
		if query.ParentID != "" && node.ParentID != query.ParentID {
			continue
		}
		if query.TitleContains != "" && !containsFold(node.Title, query.TitleContains) {
			continue
		}
		nodes = append(nodes, node)
	}
	total := len(nodes)
	limit := limitOr(query.Limit, 50)
	nodes = page(nodes, query.Offset, limit)
	return schema.GraphQueryResult{
		Nodes:      nodes,
		TotalCount: total,
		HasMore:    total > query.Offset+limit,
	}, nil
}

func (g *InMemoryGraph) GetUserProgress(_ context.Context, userID, graphID, nodeID string) (*schema.NodeProgress, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	progress, ok := g.progress[progressKey(userID, graphID, nodeID)]
	if !ok {
		return nil, nil
	}
	return &progress, nil
}

func (g *InMemoryGraph) UpdateUserProgress(_ context.Context, progress schema.NodeProgress) (schema.NodeProgress, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.progress[progressKey(progress.UserID, progress.GraphID, progress.NodeID)] = progress
	return progress, nil
}

func nodeKey(graphID, nodeID string) string {
	return graphID + ":" + nodeID
}

func progressKey(userID, graphID, nodeID string) string {
	return userID + ":" + graphID + ":" + nodeID
}

func containsEdgeType(types []schema.EdgeType, t schema.EdgeType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsNodeType(types []schema.NodeType, t schema.NodeType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
