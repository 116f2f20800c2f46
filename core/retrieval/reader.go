package retrieval

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/model"
)

// ResourceReader reads resources straight from the catalog.
type ResourceReader interface {
	SelectResource(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	SelectAllResources(ctx context.Context) ([]*model.Resource, error)
	SelectResourcesWithEmbedding(ctx context.Context, excludeID uuid.UUID, near []float32, limit int) ([]*model.Resource, error)
	SelectResourcesBySubjects(ctx context.Context, subjects []string, excludeID uuid.UUID) ([]*model.Resource, error)
	SelectResourcesByClassification(ctx context.Context, classification string, excludeID uuid.UUID) ([]*model.Resource, error)
}

// candidateSet keeps resources unique by id in insertion order.
type candidateSet struct {
	seen  map[uuid.UUID]bool
	items []*model.Resource
}

func newCandidateSet(exclude uuid.UUID) *candidateSet {
	return &candidateSet{seen: map[uuid.UUID]bool{exclude: true}}
}

func (c *candidateSet) add(resources ...*model.Resource) {
	for _, r := range resources {
		if r == nil || c.seen[r.ID] {
			continue
		}
		c.seen[r.ID] = true
		c.items = append(c.items, r)
	}
}

// sortByWeight orders edges by weight, heaviest first, keeping ties in order.
func sortByWeight(edges []*model.SoftEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Weight > edges[j].Weight
	})
}

func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
