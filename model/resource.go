package model

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a catalog item that takes part in the relationship graph.
// Optional signals are nil when absent.
type Resource struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Embedding       []float32 `json:"embedding,omitempty"`
	Subjects        []string  `json:"subjects"`
	Classification  *string   `json:"classification,omitempty"`
	Authors         []string  `json:"authors,omitempty"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	QualityScore    *float64  `json:"quality_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasEmbedding reports whether the resource carries a non-empty vector.
func (r *Resource) HasEmbedding() bool {
	return r != nil && len(r.Embedding) > 0
}

// Quality returns the quality score or fallback if the resource has none.
func (r *Resource) Quality(fallback float64) float64 {
	if r == nil || r.QualityScore == nil {
		return fallback
	}
	return *r.QualityScore
}

// Citation is a reference from one resource to another.
// CitedID is nil while the reference is not resolved to a catalog resource.
type Citation struct {
	ID           uuid.UUID  `json:"id"`
	CitingID     uuid.UUID  `json:"citing_id"`
	CitedID      *uuid.UUID `json:"cited_id,omitempty"`
	RawReference string     `json:"raw_reference,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsResolved reports whether the citation points at a catalog resource.
func (c *Citation) IsResolved() bool {
	return c.CitedID != nil && *c.CitedID != uuid.Nil
}

// TaxonomyNode is a node of the subject taxonomy.
type TaxonomyNode struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaxonomyGroup lists the resources classified under one taxonomy node.
type TaxonomyGroup struct {
	NodeID      uuid.UUID   `json:"node_id"`
	NodeName    string      `json:"node_name"`
	ResourceIDs []uuid.UUID `json:"resource_ids"`
}
