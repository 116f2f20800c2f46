package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
)

// CitationMetadata describes where a citation edge came from.
type CitationMetadata struct {
	CitationID uuid.UUID `json:"citation_id"`
}

// CoAuthorshipMetadata lists the authors two resources share.
type CoAuthorshipMetadata struct {
	SharedAuthors []string `json:"shared_authors"`
}

// SubjectMetadata names the taxonomy node both resources are classified under.
type SubjectMetadata struct {
	TaxonomyNodeID   uuid.UUID `json:"taxonomy_node_id"`
	TaxonomyNodeName string    `json:"taxonomy_node_name,omitempty"`
}

// TemporalMetadata holds the publication year of the earlier resource and
// the year distance of the pair.
type TemporalMetadata struct {
	Year     int `json:"year"`
	YearDiff int `json:"year_diff"`
}

// EdgeMetadata is the typed payload of an edge. At most one variant is set
// and it has to match the edge type.
type EdgeMetadata struct {
	Citation     *CitationMetadata     `json:"citation,omitempty"`
	CoAuthorship *CoAuthorshipMetadata `json:"co_authorship,omitempty"`
	Subject      *SubjectMetadata      `json:"subject,omitempty"`
	Temporal     *TemporalMetadata     `json:"temporal,omitempty"`
}

// NewCoAuthorshipMetadata returns metadata with the shared authors sorted.
func NewCoAuthorshipMetadata(shared []string) EdgeMetadata {
	authors := append([]string{}, shared...)
	sort.Strings(authors)
	return EdgeMetadata{CoAuthorship: &CoAuthorshipMetadata{SharedAuthors: authors}}
}

// IsEmpty reports whether no variant is set.
func (m EdgeMetadata) IsEmpty() bool {
	return m.Citation == nil && m.CoAuthorship == nil && m.Subject == nil && m.Temporal == nil
}

// Validate checks that only the variant belonging to edgeType is set.
func (m EdgeMetadata) Validate(edgeType EdgeType) error {
	set := map[EdgeType]bool{
		EdgeTypeCitation:          m.Citation != nil,
		EdgeTypeCoAuthorship:      m.CoAuthorship != nil,
		EdgeTypeSubjectSimilarity: m.Subject != nil,
		EdgeTypeTemporal:          m.Temporal != nil,
	}
	for t, ok := range set {
		if ok && t != edgeType {
			return fmt.Errorf("%w: %s metadata on %s edge", ErrInvalidInput, t, edgeType)
		}
	}
	return nil
}

// Value implements the driver.Valuer interface for database storage
func (m EdgeMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, helper.NewError("marshal edge metadata", err)
	}
	return b, nil
}

// Scan implements the sql.Scanner interface for database retrieval.
// Reads are lenient: NULL, empty or malformed payloads become empty metadata.
func (m *EdgeMetadata) Scan(value interface{}) error {
	*m = EdgeMetadata{}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil
	}
	if len(b) == 0 {
		return nil
	}

	var parsed EdgeMetadata
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil
	}
	*m = parsed

	return nil
}
