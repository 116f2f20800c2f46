package model

import (
	"github.com/google/uuid"
)

// NeighborQuery describes a multi-hop neighbor lookup.
// A Limit of 0 means no limit, nil EdgeTypes means all types.
type NeighborQuery struct {
	SourceID  uuid.UUID  `json:"source_id"`
	Hops      int        `json:"hops" validate:"oneof=1 2"`
	EdgeTypes []EdgeType `json:"edge_types,omitempty" validate:"omitempty,dive,edgetype"`
	MinWeight float64    `json:"min_weight" validate:"gte=0"`
	Limit     int        `json:"limit" validate:"gte=0"`
}

// DefaultNeighborQuery returns a 1-hop query over all edge types.
func DefaultNeighborQuery(sourceID uuid.UUID) NeighborQuery {
	return NeighborQuery{
		SourceID: sourceID,
		Hops:     1,
		Limit:    20,
	}
}

// Validate checks the query by its struct tags.
func (q NeighborQuery) Validate() error {
	return ValidateStruct(q)
}

// Allows reports whether an edge passes the type and weight filters.
func (q NeighborQuery) Allows(edge *Edge) bool {
	if edge.Weight < q.MinWeight {
		return false
	}
	if len(q.EdgeTypes) == 0 {
		return true
	}
	for _, t := range q.EdgeTypes {
		if t == edge.EdgeType {
			return true
		}
	}
	return false
}
