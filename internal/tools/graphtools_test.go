package tools

import (
	"context"
	"testing"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
)

func seedGraph(t *testing.T) *memory.InMemoryGraph {
	t.Helper()
	graph := memory.NewInMemoryGraph()
	graph.AddNode(schema.GraphNode{ID: "n1", GraphID: "g1", Type: schema.NodeTopic, Title: "Routing"})
	graph.AddNode(schema.GraphNode{ID: "n2", GraphID: "g1", Type: schema.NodeConcept, Title: "Subnets"})
	graph.AddNode(schema.GraphNode{ID: "n3", GraphID: "g1", Type: schema.NodeConcept, Title: "BGP"})
	graph.AddEdge(schema.GraphEdge{ID: "e1", GraphID: "g1", SourceID: "n1", TargetID: "n2", EdgeType: schema.EdgeContains})
	graph.AddEdge(schema.GraphEdge{ID: "e2", GraphID: "g1", SourceID: "n3", TargetID: "n1", EdgeType: schema.EdgePrerequisite})
	return graph
}

func TestGraphToolsNeighborsByDirection(t *testing.T) {
	gt := NewGraphTools(seedGraph(t))
	ctx := context.Background()

	out, err := gt.Neighbors(ctx, "g1", "n1", nil, schema.DirectionOutgoing)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(out) != 1 || out[0].ID != "n2" {
		t.Fatalf("outgoing %+v", out)
	}

	in, err := gt.Neighbors(ctx, "g1", "n1", []schema.EdgeType{schema.EdgePrerequisite}, schema.DirectionIncoming)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(in) != 1 || in[0].ID != "n3" {
		t.Fatalf("incoming %+v", in)
	}
}

func TestGraphToolsQueryFilters(t *testing.T) {
	gt := NewGraphTools(seedGraph(t))

	result, err := gt.Query(context.Background(), schema.GraphQuery{
		GraphID:   "g1",
		NodeTypes: []schema.NodeType{schema.NodeConcept},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.TotalCount != 2 || len(result.Nodes) != 2 {
		t.Fatalf("result %+v", result)
	}

	byTitle, err := gt.Query(context.Background(), schema.GraphQuery{GraphID: "g1", TitleContains: "bgp"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byTitle.Nodes) != 1 || byTitle.Nodes[0].ID != "n3" {
		t.Fatalf("title match %+v", byTitle.Nodes)
	}
}

func TestGraphToolsProgressRoundTrip(t *testing.T) {
	gt := NewGraphTools(seedGraph(t))
	ctx := context.Background()

	none, err := gt.Progress(ctx, "u1", "g1", "n1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil before first update, got %+v", none)
	}

	saved, err := gt.UpdateProgress(ctx, schema.NodeProgress{
		UserID: "u1", GraphID: "g1", NodeID: "n1",
		MasteryLevel: schema.MasteryLearning, PracticeCount: 2,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.PracticeCount != 2 {
		t.Fatalf("saved %+v", saved)
	}

	got, err := gt.Progress(ctx, "u1", "g1", "n1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if got == nil || got.MasteryLevel != schema.MasteryLearning {
		t.Fatalf("got %+v", got)
	}
}

func TestGraphToolsWithoutRepository(t *testing.T) {
	gt := NewGraphTools(nil)
	ctx := context.Background()

	node, err := gt.Node(ctx, "g1", "n1")
	if err != nil || node != nil {
		t.Fatalf("node %+v err %v", node, err)
	}
	neighbors, err := gt.Neighbors(ctx, "g1", "n1", nil, schema.DirectionBoth)
	if err != nil || len(neighbors) != 0 {
		t.Fatalf("neighbors %+v err %v", neighbors, err)
	}
	result, err := gt.Query(ctx, schema.GraphQuery{GraphID: "g1"})
	if err != nil || result.TotalCount != 0 {
		t.Fatalf("query %+v err %v", result, err)
	}
}
