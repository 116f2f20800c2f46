package synthesis

import (
	"context"

	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// CitationSynthesizer turns every resolved citation into a directed edge.
type CitationSynthesizer struct {
	citations CitationSource
	weight    float64
}

// NewCitationSynthesizer creates a citation synthesizer.
func NewCitationSynthesizer(citations CitationSource, weight float64) *CitationSynthesizer {
	return &CitationSynthesizer{citations: citations, weight: weight}
}

func (s *CitationSynthesizer) EdgeType() model.EdgeType {
	return model.EdgeTypeCitation
}

func (s *CitationSynthesizer) Synthesize(ctx context.Context, w *BatchWriter) error {
	citations, err := s.citations.SelectResolvedCitations(ctx)
	if err != nil {
		return helper.NewError("select resolved citations", err)
	}

	for _, citation := range citations {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		if !citation.IsResolved() || *citation.CitedID == citation.CitingID {
			continue
		}

		edge := model.NewEdge(
			citation.CitingID,
			*citation.CitedID,
			model.EdgeTypeCitation,
			s.weight,
			model.EdgeMetadata{Citation: &model.CitationMetadata{CitationID: citation.ID}},
		)
		if err := w.Add(ctx, edge); err != nil {
			return err
		}
	}

	return nil
}
