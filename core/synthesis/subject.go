package synthesis

import (
	"context"

	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// SubjectSimilaritySynthesizer links every pair of resources classified under
// the same taxonomy node. A pair sharing several nodes gets one edge.
type SubjectSimilaritySynthesizer struct {
	taxonomy TaxonomySource
	weight   float64
}

// NewSubjectSimilaritySynthesizer creates a subject similarity synthesizer.
func NewSubjectSimilaritySynthesizer(taxonomy TaxonomySource, weight float64) *SubjectSimilaritySynthesizer {
	return &SubjectSimilaritySynthesizer{taxonomy: taxonomy, weight: weight}
}

func (s *SubjectSimilaritySynthesizer) EdgeType() model.EdgeType {
	return model.EdgeTypeSubjectSimilarity
}

func (s *SubjectSimilaritySynthesizer) Synthesize(ctx context.Context, w *BatchWriter) error {
	groups, err := s.taxonomy.SelectTaxonomyGroups(ctx)
	if err != nil {
		return helper.NewError("select taxonomy groups", err)
	}

	for _, group := range groups {
		members := group.ResourceIDs
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if err := checkpoint(ctx); err != nil {
					return err
				}
				if members[i] == members[j] {
					continue
				}

				edge := model.NewEdge(
					members[i],
					members[j],
					model.EdgeTypeSubjectSimilarity,
					s.weight,
					model.EdgeMetadata{Subject: &model.SubjectMetadata{
						TaxonomyNodeID:   group.NodeID,
						TaxonomyNodeName: group.NodeName,
					}},
				)
				if err := w.Add(ctx, edge); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
