package synthesis

import (
	"context"

	"github.com/siherrmann/relgraph/core/similarity"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// CoAuthorshipSynthesizer links every pair of resources sharing an author name.
// The weight is 1/|shared authors|. Compares all pairs.
type CoAuthorshipSynthesizer struct {
	resources ResourceSource
}

// NewCoAuthorshipSynthesizer creates a co-authorship synthesizer.
func NewCoAuthorshipSynthesizer(resources ResourceSource) *CoAuthorshipSynthesizer {
	return &CoAuthorshipSynthesizer{resources: resources}
}

func (s *CoAuthorshipSynthesizer) EdgeType() model.EdgeType {
	return model.EdgeTypeCoAuthorship
}

func (s *CoAuthorshipSynthesizer) Synthesize(ctx context.Context, w *BatchWriter) error {
	all, err := s.resources.SelectAllResources(ctx)
	if err != nil {
		return helper.NewError("select resources", err)
	}

	authored := make([]*model.Resource, 0, len(all))
	for _, r := range all {
		if len(r.Authors) > 0 {
			authored = append(authored, r)
		}
	}

	for i := 0; i < len(authored); i++ {
		for j := i + 1; j < len(authored); j++ {
			if err := checkpoint(ctx); err != nil {
				return err
			}

			shared := similarity.Intersection(authored[i].Authors, authored[j].Authors)
			if len(shared) == 0 {
				continue
			}

			edge := model.NewEdge(
				authored[i].ID,
				authored[j].ID,
				model.EdgeTypeCoAuthorship,
				1.0/float64(len(shared)),
				model.NewCoAuthorshipMetadata(shared),
			)
			if err := w.Add(ctx, edge); err != nil {
				return err
			}
		}
	}

	return nil
}
