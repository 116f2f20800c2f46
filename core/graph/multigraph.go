package graph

import (
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
)

// pairKey is an unordered node pair in canonical order.
type pairKey struct {
	a uuid.UUID
	b uuid.UUID
}

func newPairKey(x, y uuid.UUID) pairKey {
	a, b := model.CanonicalPair(x, y)
	return pairKey{a: a, b: b}
}

// Graph is the assembled multigraph. Every node pair holds at most one edge
// per edge type. A Graph is not mutated after it was built.
type Graph struct {
	nodes    map[uuid.UUID]*model.Resource
	order    []uuid.UUID
	pairs    map[pairKey][]*model.Edge
	incident map[uuid.UUID][]*model.Edge
	edges    int
	builtAt  time.Time
}

func newGraph() *Graph {
	return &Graph{
		nodes:    make(map[uuid.UUID]*model.Resource),
		pairs:    make(map[pairKey][]*model.Edge),
		incident: make(map[uuid.UUID][]*model.Edge),
	}
}

// NewGraph builds a graph from resources and edges. Edges with an unknown
// endpoint are skipped and returned as dropped. For a repeated (pair, type)
// the first edge is kept.
func NewGraph(resources []*model.Resource, edges []*model.Edge) (g *Graph, dropped []*model.Edge) {
	g = newGraph()
	for _, r := range resources {
		g.addNode(r)
	}
	for _, e := range edges {
		if !g.addEdge(e) {
			dropped = append(dropped, e)
		}
	}
	g.builtAt = time.Now()
	return g, dropped
}

func (g *Graph) addNode(r *model.Resource) {
	if _, ok := g.nodes[r.ID]; ok {
		return
	}
	g.nodes[r.ID] = r
	g.order = append(g.order, r.ID)
}

// addEdge reports whether e was not rejected for an unknown endpoint.
func (g *Graph) addEdge(e *model.Edge) bool {
	if !g.HasNode(e.SourceID) || !g.HasNode(e.TargetID) {
		return false
	}

	key := newPairKey(e.SourceID, e.TargetID)
	for _, existing := range g.pairs[key] {
		if existing.EdgeType == e.EdgeType {
			return true
		}
	}

	g.pairs[key] = append(g.pairs[key], e)
	g.incident[e.SourceID] = append(g.incident[e.SourceID], e)
	if e.TargetID != e.SourceID {
		g.incident[e.TargetID] = append(g.incident[e.TargetID], e)
	}
	g.edges++

	return true
}

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id uuid.UUID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the resource of id or nil.
func (g *Graph) Node(id uuid.UUID) *model.Resource {
	return g.nodes[id]
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []uuid.UUID {
	return append([]uuid.UUID(nil), g.order...)
}

func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	return g.edges
}

// EdgesBetween returns the parallel edges of the unordered pair (a, b).
func (g *Graph) EdgesBetween(a, b uuid.UUID) []*model.Edge {
	return append([]*model.Edge(nil), g.pairs[newPairKey(a, b)]...)
}

// IncidentEdges returns all edges touching id regardless of direction, in
// insertion order.
func (g *Graph) IncidentEdges(id uuid.UUID) []*model.Edge {
	return g.incident[id]
}

// EdgeCountByType counts the edges of every type.
func (g *Graph) EdgeCountByType() map[model.EdgeType]int {
	counts := make(map[model.EdgeType]int, len(model.AllEdgeTypes()))
	for _, edges := range g.pairs {
		for _, e := range edges {
			counts[e.EdgeType]++
		}
	}
	return counts
}

// BuiltAt returns when g was assembled.
func (g *Graph) BuiltAt() time.Time {
	return g.builtAt
}
