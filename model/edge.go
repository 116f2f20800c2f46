package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EdgeType represents the kind of structural relationship between resources
type EdgeType string

const (
	EdgeTypeCitation          EdgeType = "citation"
	EdgeTypeCoAuthorship      EdgeType = "co_authorship"
	EdgeTypeSubjectSimilarity EdgeType = "subject_similarity"
	EdgeTypeTemporal          EdgeType = "temporal"
)

// AllEdgeTypes returns every structural edge type in synthesis order.
func AllEdgeTypes() []EdgeType {
	return []EdgeType{
		EdgeTypeCitation,
		EdgeTypeCoAuthorship,
		EdgeTypeSubjectSimilarity,
		EdgeTypeTemporal,
	}
}

// ParseEdgeType converts s into a known EdgeType.
func ParseEdgeType(s string) (EdgeType, error) {
	for _, t := range AllEdgeTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown edge type %q", ErrInvalidInput, s)
}

// IsValid reports whether t is a known edge type.
func (t EdgeType) IsValid() bool {
	_, err := ParseEdgeType(string(t))
	return err == nil
}

// IsDirected reports whether edges of this type keep their direction.
// Only citations are directed, all other types are symmetric.
func (t EdgeType) IsDirected() bool {
	return t == EdgeTypeCitation
}

// Edge is a persisted structural edge between two resources.
type Edge struct {
	ID        uuid.UUID    `json:"id"`
	SourceID  uuid.UUID    `json:"source_id"`
	TargetID  uuid.UUID    `json:"target_id"`
	EdgeType  EdgeType     `json:"edge_type"`
	Weight    float64      `json:"weight"`
	Metadata  EdgeMetadata `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewEdge creates an edge of type edgeType. Symmetric edges get their
// endpoints in canonical order so that one pair maps to one stored row.
func NewEdge(source, target uuid.UUID, edgeType EdgeType, weight float64, metadata EdgeMetadata) *Edge {
	if !edgeType.IsDirected() {
		source, target = CanonicalPair(source, target)
	}
	return &Edge{
		SourceID: source,
		TargetID: target,
		EdgeType: edgeType,
		Weight:   weight,
		Metadata: metadata,
	}
}

// Other returns the endpoint of e that is not id.
func (e *Edge) Other(id uuid.UUID) uuid.UUID {
	if e.SourceID == id {
		return e.TargetID
	}
	return e.SourceID
}

// Touches reports whether id is one of the endpoints of e.
func (e *Edge) Touches(id uuid.UUID) bool {
	return e.SourceID == id || e.TargetID == id
}

// CanonicalPair orders two ids so that the lower one comes first.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if CompareIDs(a, b) > 0 {
		return b, a
	}
	return a, b
}

// CompareIDs compares two uuids byte wise.
func CompareIDs(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
