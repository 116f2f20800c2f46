package graph

import (
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
)

// hop is an edge leaving the source towards a distance-1 node.
type hop struct {
	node  uuid.UUID
	edges []*model.Edge
}

// GetNeighbors ranks the nodes reachable from the query source within one or
// two hops. Edges are followed in both directions. A source that is not part
// of g yields an empty result.
func GetNeighbors(g *Graph, query model.NeighborQuery, rank model.RankingConfig) ([]*model.NeighborResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	results := []*model.NeighborResult{}
	if g == nil || !g.HasNode(query.SourceID) {
		return results, nil
	}

	source := query.SourceID
	firstHops, visited := neighborsAtDistanceOne(g, source, query)

	for _, h := range firstHops {
		for _, e := range h.edges {
			results = append(results, newResult(g, rank, []uuid.UUID{source, h.node}, []*model.Edge{e}))
		}
	}

	if query.Hops == 2 {
		for _, h := range firstHops {
			for _, first := range h.edges {
				for _, second := range g.IncidentEdges(h.node) {
					if !query.Allows(second) {
						continue
					}
					target := second.Other(h.node)
					if target == source || target == h.node || visited[target] {
						continue
					}
					results = append(results, newResult(g, rank, []uuid.UUID{source, h.node, target}, []*model.Edge{first, second}))
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}

	return results, nil
}

// neighborsAtDistanceOne groups the filtered source edges by neighbor in
// discovery order.
func neighborsAtDistanceOne(g *Graph, source uuid.UUID, query model.NeighborQuery) ([]*hop, map[uuid.UUID]bool) {
	visited := map[uuid.UUID]bool{}
	byNode := map[uuid.UUID]*hop{}
	var hops []*hop

	for _, e := range g.IncidentEdges(source) {
		if !query.Allows(e) {
			continue
		}
		neighbor := e.Other(source)
		if neighbor == source {
			continue
		}
		h, ok := byNode[neighbor]
		if !ok {
			h = &hop{node: neighbor}
			byNode[neighbor] = h
			hops = append(hops, h)
			visited[neighbor] = true
		}
		h.edges = append(h.edges, e)
	}

	return hops, visited
}

func newResult(g *Graph, rank model.RankingConfig, path []uuid.UUID, edges []*model.Edge) *model.NeighborResult {
	strength := 1.0
	edgeTypes := make([]model.EdgeType, 0, len(edges))
	for _, e := range edges {
		strength *= e.Weight
		edgeTypes = append(edgeTypes, e.EdgeType)
	}

	targetID := path[len(path)-1]
	target := g.Node(targetID)
	quality := rank.NeutralQuality
	if target != nil {
		quality = target.Quality(rank.NeutralQuality)
	}
	novelty := rank.NoveltyOf(target)

	result := &model.NeighborResult{
		ResourceID:   targetID,
		Distance:     len(edges),
		Path:         path,
		EdgeTypes:    edgeTypes,
		PathStrength: strength,
		Quality:      quality,
		Novelty:      novelty,
		Score:        rank.PathStrengthWeight*strength + rank.QualityWeight*quality + rank.NoveltyWeight*novelty,
	}
	if len(path) == 3 {
		intermediate := path[1]
		result.Intermediate = &intermediate
	}

	return result
}
