package retrieval

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/similarity"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// Finder ranks the resources most related to one source resource by vector,
// subject and classification signals.
type Finder struct {
	resources ResourceReader
	weights   model.ScoringWeights
	logger    *slog.Logger
}

// NewFinder creates a finder.
func NewFinder(resources ResourceReader, weights model.ScoringWeights, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{resources: resources, weights: weights, logger: logger}
}

// FindNeighbors returns the source and its up to limit strongest soft
// relationships. An unknown source yields an empty graph.
func (f *Finder) FindNeighbors(ctx context.Context, sourceID uuid.UUID, limit int) (*model.RelationshipGraph, error) {
	if err := model.ValidateLimit(limit); err != nil {
		return nil, err
	}

	result := model.NewRelationshipGraph()

	source, err := f.resources.SelectResource(ctx, sourceID)
	if err != nil {
		return nil, helper.NewError("select source resource", err)
	}
	if source == nil {
		return result, nil
	}

	result.Nodes = append(result.Nodes, model.NewGraphNode(source))
	if limit == 0 {
		return result, nil
	}

	candidates, err := f.gatherCandidates(ctx, source, limit)
	if err != nil {
		return nil, err
	}

	targets := make(map[uuid.UUID]*model.Resource, len(candidates))
	for _, candidate := range candidates {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}

		score := similarity.Compare(source, candidate, f.weights)
		if score.Weight <= 0 {
			continue
		}
		result.Edges = append(result.Edges, score.SoftEdge(source, candidate))
		targets[candidate.ID] = candidate
	}

	sortByWeight(result.Edges)
	if len(result.Edges) > limit {
		result.Edges = result.Edges[:limit]
	}
	for _, edge := range result.Edges {
		result.Nodes = append(result.Nodes, model.NewGraphNode(targets[edge.TargetID]))
	}

	f.logger.Debug("Found neighbors",
		slog.String("source_id", sourceID.String()),
		slog.Int("candidates", len(candidates)),
		slog.Int("edges", len(result.Edges)),
	)

	return result, nil
}

// gatherCandidates unions nearest embeddings, subject matches and
// classification matches.
func (f *Finder) gatherCandidates(ctx context.Context, source *model.Resource, limit int) ([]*model.Resource, error) {
	set := newCandidateSet(source.ID)

	if source.HasEmbedding() {
		nearest, err := f.resources.SelectResourcesWithEmbedding(ctx, source.ID, source.Embedding, 2*limit)
		if err != nil {
			return nil, helper.NewError("select nearest resources", err)
		}
		set.add(nearest...)
	}

	if len(source.Subjects) > 0 {
		bySubject, err := f.resources.SelectResourcesBySubjects(ctx, source.Subjects, source.ID)
		if err != nil {
			return nil, helper.NewError("select resources by subjects", err)
		}
		set.add(bySubject...)
	}

	if source.Classification != nil && *source.Classification != "" {
		byClass, err := f.resources.SelectResourcesByClassification(ctx, *source.Classification, source.ID)
		if err != nil {
			return nil, helper.NewError("select resources by classification", err)
		}
		set.add(byClass...)
	}

	return set.items, nil
}
