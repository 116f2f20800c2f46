package model

import "github.com/google/uuid"

// NeighborResult is one ranked path from the source to a neighbor.
type NeighborResult struct {
	ResourceID   uuid.UUID   `json:"resource_id"`
	Distance     int         `json:"distance"`
	Path         []uuid.UUID `json:"path"`
	EdgeTypes    []EdgeType  `json:"edge_types"`
	PathStrength float64     `json:"path_strength"`
	Quality      float64     `json:"quality"`
	Novelty      float64     `json:"novelty"`
	Score        float64     `json:"score"`
	Intermediate *uuid.UUID  `json:"intermediate,omitempty"`
}

// ConnectionType names the dominant signal of a soft relationship
type ConnectionType string

const (
	ConnectionTypeSemantic       ConnectionType = "semantic"
	ConnectionTypeTopical        ConnectionType = "topical"
	ConnectionTypeClassification ConnectionType = "classification"
)

// SoftEdge is a relationship derived from vector, subject and classification signals.
// It is computed on demand and never persisted.
type SoftEdge struct {
	SourceID         uuid.UUID      `json:"source_id"`
	TargetID         uuid.UUID      `json:"target_id"`
	Weight           float64        `json:"weight"`
	ConnectionType   ConnectionType `json:"connection_type"`
	VectorSimilarity *float64       `json:"vector_similarity,omitempty"`
	SharedSubjects   []string       `json:"shared_subjects"`
}

// GraphNode is the display projection of a resource.
type GraphNode struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Subjects       []string  `json:"subjects"`
	Classification *string   `json:"classification,omitempty"`
	QualityScore   *float64  `json:"quality_score,omitempty"`
}

// NewGraphNode projects r into a GraphNode.
func NewGraphNode(r *Resource) *GraphNode {
	return &GraphNode{
		ID:             r.ID,
		Title:          r.Title,
		Subjects:       r.Subjects,
		Classification: r.Classification,
		QualityScore:   r.QualityScore,
	}
}

// RelationshipGraph is a set of nodes and the soft edges between them.
type RelationshipGraph struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*SoftEdge  `json:"edges"`
}

// NewRelationshipGraph returns a graph with empty, non-nil slices.
func NewRelationshipGraph() *RelationshipGraph {
	return &RelationshipGraph{
		Nodes: []*GraphNode{},
		Edges: []*SoftEdge{},
	}
}
