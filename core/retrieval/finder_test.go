package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNeighbors(t *testing.T) {
	weights := model.DefaultConfig().Weights

	source := newResource("Source", []float32{1, 0, 0}, []string{"Optics", "Lasers"}, strPtr("QC"))
	twin := newResource("Twin", []float32{1, 0, 0}, nil, nil)
	opposite := newResource("Opposite", []float32{-1, 0, 0}, nil, nil)
	topical := newResource("Topical", nil, []string{"Optics"}, nil)
	loosely := newResource("Loosely", nil, []string{"quantum optics"}, nil)
	classified := newResource("Classified", nil, nil, strPtr("QC"))
	unrelated := newResource("Unrelated", nil, []string{"History"}, strPtr("D"))
	bare := newResource("Bare", nil, nil, nil)

	finder := NewFinder(NewMockResourceReader(source, twin, opposite, topical, loosely, classified, unrelated, bare), weights, nil)

	t.Run("Ranks candidates from all signals", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), source.ID, 10)
		require.NoError(t, err, "Expected no error")

		require.Len(t, result.Edges, 3, "Expected twin, topical and classified")
		assert.Equal(t, twin.ID, result.Edges[0].TargetID, "Expected identical embedding first")
		assert.InDelta(t, 0.6, result.Edges[0].Weight, 1e-9, "Expected vector share only")
		assert.Equal(t, model.ConnectionTypeSemantic, result.Edges[0].ConnectionType, "Expected semantic connection")
		require.NotNil(t, result.Edges[0].VectorSimilarity, "Expected vector similarity")

		assert.Equal(t, topical.ID, result.Edges[1].TargetID, "Expected subject match second")
		assert.InDelta(t, 0.15, result.Edges[1].Weight, 1e-9, "Expected tag share of one shared subject")
		assert.Equal(t, model.ConnectionTypeTopical, result.Edges[1].ConnectionType, "Expected topical connection")
		assert.Equal(t, []string{"Optics"}, result.Edges[1].SharedSubjects, "Expected shared subject")
		assert.Nil(t, result.Edges[1].VectorSimilarity, "Expected no vector similarity without embedding")

		assert.Equal(t, classified.ID, result.Edges[2].TargetID, "Expected classification match last")
		assert.Equal(t, model.ConnectionTypeClassification, result.Edges[2].ConnectionType, "Expected classification connection")

		require.Len(t, result.Nodes, 4, "Expected source and three targets")
		assert.Equal(t, source.ID, result.Nodes[0].ID, "Expected source node first")
		for _, e := range result.Edges {
			assert.Equal(t, source.ID, e.SourceID, "Expected edges from the source")
		}
	})

	t.Run("Drops candidates without any contribution", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), source.ID, 10)
		require.NoError(t, err, "Expected no error")
		for _, e := range result.Edges {
			assert.NotEqual(t, opposite.ID, e.TargetID, "Expected negative similarity to be dropped")
			assert.NotEqual(t, loosely.ID, e.TargetID, "Expected containment match without exact overlap to be dropped")
			assert.NotEqual(t, unrelated.ID, e.TargetID, "Expected unrelated resource to be missing")
		}
	})

	t.Run("Limit keeps the strongest", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), source.ID, 1)
		require.NoError(t, err, "Expected no error")
		require.Len(t, result.Edges, 1, "Expected one edge")
		assert.Equal(t, twin.ID, result.Edges[0].TargetID, "Expected strongest edge")
		assert.Len(t, result.Nodes, 2, "Expected source and one target")
	})

	t.Run("Limit zero returns only the source", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), source.ID, 0)
		require.NoError(t, err, "Expected no error")
		require.Len(t, result.Nodes, 1, "Expected source node")
		assert.Empty(t, result.Edges, "Expected no edges")
	})

	t.Run("Resource without signals has no neighbors", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), bare.ID, 10)
		require.NoError(t, err, "Expected no error")
		require.Len(t, result.Nodes, 1, "Expected source node only")
		assert.Empty(t, result.Edges, "Expected no edges")
	})

	t.Run("Unknown source yields an empty graph", func(t *testing.T) {
		result, err := finder.FindNeighbors(context.Background(), uuid.New(), 10)
		require.NoError(t, err, "Expected no error")
		assert.Empty(t, result.Nodes, "Expected no nodes")
		assert.Empty(t, result.Edges, "Expected no edges")
	})

	t.Run("Negative limit is rejected", func(t *testing.T) {
		_, err := finder.FindNeighbors(context.Background(), source.ID, -1)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "Expected validation error")
	})

	t.Run("Reader errors are returned", func(t *testing.T) {
		reader := NewMockResourceReader(source)
		reader.err = errors.New("connection refused")
		_, err := NewFinder(reader, weights, nil).FindNeighbors(context.Background(), source.ID, 10)
		assert.Error(t, err, "Expected reader error")
	})
}
