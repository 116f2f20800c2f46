package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/similarity"
	"github.com/siherrmann/relgraph/model"
)

// MockResourceReader is an in-memory ResourceReader behaving like the
// database handler.
type MockResourceReader struct {
	resources []*model.Resource
	err       error
}

func NewMockResourceReader(resources ...*model.Resource) *MockResourceReader {
	return &MockResourceReader{resources: resources}
}

func (m *MockResourceReader) SelectResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.resources {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockResourceReader) SelectAllResources(ctx context.Context) ([]*model.Resource, error) {
	return m.resources, m.err
}

func (m *MockResourceReader) SelectResourcesWithEmbedding(ctx context.Context, excludeID uuid.UUID, near []float32, limit int) ([]*model.Resource, error) {
	var result []*model.Resource
	for _, r := range m.resources {
		if r.ID != excludeID && r.HasEmbedding() {
			result = append(result, r)
		}
	}
	if len(near) > 0 {
		sort.SliceStable(result, func(i, j int) bool {
			return similarity.CosineSimilarity(near, result[i].Embedding) > similarity.CosineSimilarity(near, result[j].Embedding)
		})
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, m.err
}

func (m *MockResourceReader) SelectResourcesBySubjects(ctx context.Context, subjects []string, excludeID uuid.UUID) ([]*model.Resource, error) {
	var result []*model.Resource
	for _, r := range m.resources {
		if r.ID == excludeID {
			continue
		}
		joined := strings.ToLower(strings.Join(r.Subjects, ","))
		for _, s := range subjects {
			if strings.Contains(joined, strings.ToLower(s)) {
				result = append(result, r)
				break
			}
		}
	}
	return result, m.err
}

func (m *MockResourceReader) SelectResourcesByClassification(ctx context.Context, classification string, excludeID uuid.UUID) ([]*model.Resource, error) {
	var result []*model.Resource
	for _, r := range m.resources {
		if r.ID != excludeID && r.Classification != nil && *r.Classification == classification {
			result = append(result, r)
		}
	}
	return result, m.err
}

func strPtr(s string) *string {
	return &s
}

func newResource(title string, embedding []float32, subjects []string, classification *string) *model.Resource {
	return &model.Resource{
		ID:             uuid.New(),
		Title:          title,
		Embedding:      embedding,
		Subjects:       subjects,
		Classification: classification,
	}
}
