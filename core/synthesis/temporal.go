package synthesis

import (
	"context"
	"sort"

	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// TemporalSynthesizer links resources published at most maxYearDiff years apart.
type TemporalSynthesizer struct {
	resources   ResourceSource
	weight      float64
	maxYearDiff int
}

// NewTemporalSynthesizer creates a temporal synthesizer.
func NewTemporalSynthesizer(resources ResourceSource, weight float64, maxYearDiff int) *TemporalSynthesizer {
	if maxYearDiff < 0 {
		maxYearDiff = 0
	}
	return &TemporalSynthesizer{resources: resources, weight: weight, maxYearDiff: maxYearDiff}
}

func (s *TemporalSynthesizer) EdgeType() model.EdgeType {
	return model.EdgeTypeTemporal
}

func (s *TemporalSynthesizer) Synthesize(ctx context.Context, w *BatchWriter) error {
	all, err := s.resources.SelectAllResources(ctx)
	if err != nil {
		return helper.NewError("select resources", err)
	}

	dated := make([]*model.Resource, 0, len(all))
	for _, r := range all {
		if r.PublicationYear != nil {
			dated = append(dated, r)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		yi, yj := *dated[i].PublicationYear, *dated[j].PublicationYear
		if yi != yj {
			return yi < yj
		}
		return model.CompareIDs(dated[i].ID, dated[j].ID) < 0
	})

	for i := 0; i < len(dated); i++ {
		year := *dated[i].PublicationYear
		for j := i + 1; j < len(dated); j++ {
			if err := checkpoint(ctx); err != nil {
				return err
			}

			diff := *dated[j].PublicationYear - year
			// Sorted by year, so no later j can be closer.
			if diff > s.maxYearDiff {
				break
			}

			edge := model.NewEdge(
				dated[i].ID,
				dated[j].ID,
				model.EdgeTypeTemporal,
				s.weight,
				model.EdgeMetadata{Temporal: &model.TemporalMetadata{Year: year, YearDiff: diff}},
			)
			if err := w.Add(ctx, edge); err != nil {
				return err
			}
		}
	}

	return nil
}
