package schema

import "time"

// NodeType classifies a concept graph node.
type NodeType string

const (
	NodeConcept  NodeType = "concept"
	NodeSkill    NodeType = "skill"
	NodeTopic    NodeType = "topic"
	NodeResource NodeType = "resource"
	NodeProject  NodeType = "project"
	NodeCourse   NodeType = "course"
	NodeChapter  NodeType = "chapter"
	NodePractice NodeType = "practice"
)

// EdgeType classifies a relationship between nodes.
type EdgeType string

const (
	EdgePrerequisite EdgeType = "prerequisite"
	EdgeContains     EdgeType = "contains"
	EdgeRelated      EdgeType = "related"
	EdgeSupports     EdgeType = "supports"
	EdgePracticedIn  EdgeType = "practiced_in"
)

// MasteryLevel tracks how well a user knows a node.
type MasteryLevel string

const (
	MasteryNotStarted  MasteryLevel = "not_started"
	MasteryLearning    MasteryLevel = "learning"
	MasteryPracticing  MasteryLevel = "practicing"
	MasteryComfortable MasteryLevel = "comfortable"
	MasteryMastered    MasteryLevel = "mastered"
)

// GraphNode is a node in the concept graph.
type GraphNode struct {
	ID      string `json:"id"`
	GraphID string `json:"graph_id"`

	Type        NodeType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`

	ParentID string `json:"parent_id,omitempty"`
	Depth    int    `json:"depth,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`

	Importance float64        `json:"importance,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// GraphEdge connects two nodes.
type GraphEdge struct {
	ID      string `json:"id"`
	GraphID string `json:"graph_id"`

	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	EdgeType EdgeType `json:"edge_type"`

	Weight float64 `json:"weight,omitempty"`
}

// EdgeDirection selects which edges to follow during traversal.
type EdgeDirection string

const (
	DirectionOutgoing EdgeDirection = "outgoing"
	DirectionIncoming EdgeDirection = "incoming"
	DirectionBoth     EdgeDirection = "both"
)

// GraphQuery describes a search over one graph.
type GraphQuery struct {
	GraphID string `json:"graph_id"`

	NodeTypes     []NodeType `json:"node_types,omitempty"`
	ParentID      string     `json:"parent_id,omitempty"`
	TitleContains string     `json:"title_contains,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// GraphQueryResult is the outcome of a GraphQuery.
type GraphQueryResult struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges,omitempty"`

	TotalCount int  `json:"total_count"`
	HasMore    bool `json:"has_more"`
}

// NodeProgress is one user's progress on one node.
type NodeProgress struct {
	UserID  string `json:"user_id"`
	NodeID  string `json:"node_id"`
	GraphID string `json:"graph_id"`

	MasteryLevel     MasteryLevel `json:"mastery_level"`
	PracticeCount    int          `json:"practice_count"`
	TotalTimeMinutes int          `json:"total_time_minutes"`

	LastPracticed  time.Time `json:"last_practiced,omitzero"`
	FirstPracticed time.Time `json:"first_practiced,omitzero"`

	SuccessRate float64 `json:"success_rate,omitempty"`
	Streak      int     `json:"streak,omitempty"`
}
