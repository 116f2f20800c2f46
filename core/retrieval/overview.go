package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/similarity"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

type overviewRequest struct {
	Limit           int     `validate:"gte=0"`
	VectorThreshold float64 `validate:"gte=-1,lte=1"`
}

// pair indexes two resources of one overview run, i < j.
type pair struct {
	i, j int
}

// Overview finds the strongest soft relationships across the whole catalog.
// Comparing all embedded resources is quadratic, run it as a batch job.
type Overview struct {
	resources  ResourceReader
	weights    model.ScoringWeights
	noiseFloor float64
	logger     *slog.Logger
}

// NewOverview creates an overview builder. Edges weighing less than
// noiseFloor are discarded.
func NewOverview(resources ResourceReader, weights model.ScoringWeights, noiseFloor float64, logger *slog.Logger) *Overview {
	if logger == nil {
		logger = slog.Default()
	}
	return &Overview{resources: resources, weights: weights, noiseFloor: noiseFloor, logger: logger}
}

// Build returns the up to limit strongest relationships and the resources
// they touch, in first-touch order.
func (o *Overview) Build(ctx context.Context, limit int, vectorThreshold float64) (*model.RelationshipGraph, error) {
	if err := model.ValidateStruct(overviewRequest{Limit: limit, VectorThreshold: vectorThreshold}); err != nil {
		return nil, err
	}

	result := model.NewRelationshipGraph()
	if limit == 0 {
		return result, nil
	}

	resources, err := o.resources.SelectAllResources(ctx)
	if err != nil {
		return nil, helper.NewError("select resources", err)
	}

	pairs := []pair{}
	seen := map[pair]bool{}
	addPair := func(p pair) {
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	vectorPairs, err := similarPairs(ctx, resources, vectorThreshold)
	if err != nil {
		return nil, err
	}
	for _, p := range vectorPairs {
		addPair(p)
	}
	for _, p := range topSharedSubjectPairs(resources, limit) {
		addPair(p)
	}

	for _, p := range pairs {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		a, b := resources[p.i], resources[p.j]
		score := similarity.Compare(a, b, o.weights)
		if score.Weight < o.noiseFloor {
			continue
		}
		result.Edges = append(result.Edges, score.SoftEdge(a, b))
	}

	sortByWeight(result.Edges)
	if len(result.Edges) > limit {
		result.Edges = result.Edges[:limit]
	}

	byID := make(map[uuid.UUID]*model.Resource, len(resources))
	for _, r := range resources {
		byID[r.ID] = r
	}
	touched := map[uuid.UUID]bool{}
	for _, edge := range result.Edges {
		for _, id := range []uuid.UUID{edge.SourceID, edge.TargetID} {
			if !touched[id] {
				touched[id] = true
				result.Nodes = append(result.Nodes, model.NewGraphNode(byID[id]))
			}
		}
	}

	o.logger.Info("Built overview",
		slog.Int("resources", len(resources)),
		slog.Int("candidate_pairs", len(pairs)),
		slog.Int("edges", len(result.Edges)),
	)

	return result, nil
}

// similarPairs compares every pair of embedded resources.
func similarPairs(ctx context.Context, resources []*model.Resource, threshold float64) ([]pair, error) {
	embedded := []int{}
	for i, r := range resources {
		if r.HasEmbedding() {
			embedded = append(embedded, i)
		}
	}

	pairs := []pair{}
	for x := 0; x < len(embedded); x++ {
		for y := x + 1; y < len(embedded); y++ {
			if err := checkpoint(ctx); err != nil {
				return nil, err
			}
			i, j := embedded[x], embedded[y]
			if similarity.CosineSimilarity(resources[i].Embedding, resources[j].Embedding) >= threshold {
				pairs = append(pairs, pair{i: i, j: j})
			}
		}
	}

	return pairs, nil
}

// topSharedSubjectPairs returns the limit pairs sharing the most subjects.
func topSharedSubjectPairs(resources []*model.Resource, limit int) []pair {
	index := map[string][]int{}
	for i, r := range resources {
		subjects := map[string]bool{}
		for _, s := range r.Subjects {
			if s == "" || subjects[s] {
				continue
			}
			subjects[s] = true
			index[s] = append(index[s], i)
		}
	}

	counts := map[pair]int{}
	for _, postings := range index {
		for x := 0; x < len(postings); x++ {
			for y := x + 1; y < len(postings); y++ {
				counts[pair{i: postings[x], j: postings[y]}]++
			}
		}
	}

	pairs := make([]pair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if counts[pairs[a]] != counts[pairs[b]] {
			return counts[pairs[a]] > counts[pairs[b]]
		}
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}

	return pairs
}
