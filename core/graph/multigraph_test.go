package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	a := newResource("A")
	b := newResource("B")
	c := newResource("C")
	unknown := newResource("unknown")

	first := cites(a, b)
	reverse := cites(b, a)
	parallel := temporal(a, b)
	dangling := cites(a, unknown)

	g, dropped := NewGraph(
		[]*model.Resource{a, b, c, a},
		[]*model.Edge{first, reverse, parallel, dangling},
	)

	t.Run("Nodes keep insertion order without duplicates", func(t *testing.T) {
		assert.Equal(t, 3, g.NodeCount(), "Expected three nodes")
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, g.Nodes(), "Expected insertion order")
		assert.True(t, g.HasNode(c.ID), "Expected isolated node to be present")
		assert.Same(t, a, g.Node(a.ID), "Expected stored resource")
		assert.Nil(t, g.Node(unknown.ID), "Expected nil for unknown node")
	})

	t.Run("Edges to unknown nodes are dropped", func(t *testing.T) {
		require.Len(t, dropped, 1, "Expected one dropped edge")
		assert.Same(t, dangling, dropped[0], "Expected dangling edge to be dropped")
	})

	t.Run("First edge per pair and type wins", func(t *testing.T) {
		between := g.EdgesBetween(b.ID, a.ID)
		require.Len(t, between, 2, "Expected citation and temporal edge")
		assert.Same(t, first, between[0], "Expected first citation edge")
		assert.Same(t, parallel, between[1], "Expected temporal edge")
		assert.Equal(t, 2, g.EdgeCount(), "Expected two edges")
	})

	t.Run("Incident edges and counts", func(t *testing.T) {
		assert.Len(t, g.IncidentEdges(a.ID), 2, "Expected both edges on A")
		assert.Len(t, g.IncidentEdges(b.ID), 2, "Expected both edges on B")
		assert.Empty(t, g.IncidentEdges(c.ID), "Expected no edges on C")

		counts := g.EdgeCountByType()
		assert.Equal(t, 1, counts[model.EdgeTypeCitation], "Expected one citation")
		assert.Equal(t, 1, counts[model.EdgeTypeTemporal], "Expected one temporal edge")
		assert.False(t, g.BuiltAt().IsZero(), "Expected build time")
	})
}
