package synthesis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type edgeKey struct {
	source   uuid.UUID
	target   uuid.UUID
	edgeType model.EdgeType
}

// MockEdgeStore is an in-memory EdgeStore with transactional batches.
type MockEdgeStore struct {
	mu           sync.Mutex
	edges        map[edgeKey]*model.Edge
	transactions int
	// failOnTransaction fails the n-th transaction (1-based) if set.
	failOnTransaction int
}

func NewMockEdgeStore() *MockEdgeStore {
	return &MockEdgeStore{edges: make(map[edgeKey]*model.Edge)}
}

type mockTx struct {
	store  *MockEdgeStore
	staged map[edgeKey]*model.Edge
}

func (tx *mockTx) InsertEdgeIfAbsent(ctx context.Context, edge *model.Edge) (bool, error) {
	key := edgeKey{edge.SourceID, edge.TargetID, edge.EdgeType}
	if _, ok := tx.store.edges[key]; ok {
		return false, nil
	}
	if _, ok := tx.staged[key]; ok {
		return false, nil
	}
	tx.staged[key] = edge
	return true, nil
}

func (m *MockEdgeStore) InTransaction(ctx context.Context, fn func(inserter database.EdgeInserter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions++
	tx := &mockTx{store: m, staged: make(map[edgeKey]*model.Edge)}
	if err := fn(tx); err != nil {
		return err
	}
	if m.failOnTransaction == m.transactions {
		return errors.New("commit failed")
	}
	for k, e := range tx.staged {
		m.edges[k] = e
	}
	return nil
}

func (m *MockEdgeStore) Count(edgeType model.EdgeType) int {
	count := 0
	for k := range m.edges {
		if k.edgeType == edgeType {
			count++
		}
	}
	return count
}

func (m *MockEdgeStore) Get(a, b uuid.UUID, edgeType model.EdgeType) *model.Edge {
	if !edgeType.IsDirected() {
		a, b = model.CanonicalPair(a, b)
	}
	return m.edges[edgeKey{a, b, edgeType}]
}

// MockCatalog serves resources, citations and taxonomy groups from memory.
type MockCatalog struct {
	resources []*model.Resource
	citations []*model.Citation
	groups    []*model.TaxonomyGroup
	err       error
}

func (m *MockCatalog) SelectAllResources(ctx context.Context) ([]*model.Resource, error) {
	return m.resources, m.err
}

func (m *MockCatalog) SelectResolvedCitations(ctx context.Context) ([]*model.Citation, error) {
	return m.citations, m.err
}

func (m *MockCatalog) SelectTaxonomyGroups(ctx context.Context) ([]*model.TaxonomyGroup, error) {
	return m.groups, m.err
}

func yearPtr(y int) *int {
	return &y
}

func resource(authors []string, year *int) *model.Resource {
	return &model.Resource{ID: uuid.New(), Title: "resource", Authors: authors, PublicationYear: year}
}

func citation(citing uuid.UUID, cited uuid.UUID) *model.Citation {
	return &model.Citation{ID: uuid.New(), CitingID: citing, CitedID: &cited}
}

func TestCitationSynthesizer(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	catalog := &MockCatalog{citations: []*model.Citation{
		citation(a, b),
		citation(b, a),
		citation(c, c),
		{ID: uuid.New(), CitingID: a},
	}}

	t.Run("Creates directed edges and skips self citations", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunnerWith(store, 10, nil, NewCitationSynthesizer(catalog, model.DefaultCitationWeight))

		report := runner.RunOne(context.Background(), runner.synthesizers[0])
		require.NoError(t, report.Err, "Expected synthesis to succeed")
		assert.Equal(t, 2, report.Created, "Expected both citation directions to be kept")
		assert.Equal(t, 2, report.Candidates, "Expected self and unresolved citations to be skipped")

		edge := store.Get(a, b, model.EdgeTypeCitation)
		require.NotNil(t, edge, "Expected edge a -> b")
		assert.Equal(t, a, edge.SourceID, "Expected citing resource as source")
		assert.Equal(t, 1.0, edge.Weight, "Expected citation weight 1.0")
		require.NotNil(t, edge.Metadata.Citation, "Expected citation metadata")
		assert.Equal(t, catalog.citations[0].ID, edge.Metadata.Citation.CitationID, "Expected citation id in metadata")
		assert.Nil(t, store.Get(c, c, model.EdgeTypeCitation), "Expected no self citation edge")
	})

	t.Run("Second run creates nothing", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunnerWith(store, 10, nil, NewCitationSynthesizer(catalog, model.DefaultCitationWeight))

		first := runner.RunOne(context.Background(), runner.synthesizers[0])
		second := runner.RunOne(context.Background(), runner.synthesizers[0])
		require.NoError(t, second.Err, "Expected second run to succeed")
		assert.Equal(t, 2, first.Created, "Expected first run to create edges")
		assert.Equal(t, 0, second.Created, "Expected second run to be idempotent")
		assert.Equal(t, 2, store.Count(model.EdgeTypeCitation), "Expected edge count to stay the same")
	})
}

func TestCoAuthorshipSynthesizer(t *testing.T) {
	r1 := resource([]string{"Ada", "Grace"}, nil)
	r2 := resource([]string{"Grace", "Ada", "Linus"}, nil)
	r3 := resource([]string{"Linus"}, nil)
	r4 := resource([]string{"ada"}, nil)
	r5 := resource(nil, nil)
	catalog := &MockCatalog{resources: []*model.Resource{r1, r2, r3, r4, r5}}

	store := NewMockEdgeStore()
	runner := NewRunnerWith(store, 2, nil, NewCoAuthorshipSynthesizer(catalog))
	report := runner.RunOne(context.Background(), runner.synthesizers[0])
	require.NoError(t, report.Err, "Expected synthesis to succeed")

	t.Run("Weight is the inverse of the shared author count", func(t *testing.T) {
		edge := store.Get(r1.ID, r2.ID, model.EdgeTypeCoAuthorship)
		require.NotNil(t, edge, "Expected edge between r1 and r2")
		assert.InDelta(t, 0.5, edge.Weight, 1e-9, "Expected weight 1/2")
		require.NotNil(t, edge.Metadata.CoAuthorship, "Expected co-authorship metadata")
		assert.Equal(t, []string{"Ada", "Grace"}, edge.Metadata.CoAuthorship.SharedAuthors, "Expected sorted shared authors")

		edge = store.Get(r2.ID, r3.ID, model.EdgeTypeCoAuthorship)
		require.NotNil(t, edge, "Expected edge between r2 and r3")
		assert.InDelta(t, 1.0, edge.Weight, 1e-9, "Expected weight 1/1")
	})

	t.Run("Author match is case sensitive", func(t *testing.T) {
		assert.Nil(t, store.Get(r1.ID, r4.ID, model.EdgeTypeCoAuthorship), "Expected no edge for differently cased names")
		assert.Equal(t, 2, report.Created, "Expected two co-authorship edges")
	})

	t.Run("Edges are stored in canonical order", func(t *testing.T) {
		for _, edge := range store.edges {
			assert.LessOrEqual(t, model.CompareIDs(edge.SourceID, edge.TargetID), 0, "Expected lower id as source")
		}
	})
}

func TestSubjectSimilaritySynthesizer(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	physics := uuid.New()
	optics := uuid.New()
	catalog := &MockCatalog{groups: []*model.TaxonomyGroup{
		{NodeID: physics, NodeName: "Physics", ResourceIDs: []uuid.UUID{a, b, c}},
		{NodeID: optics, NodeName: "Optics", ResourceIDs: []uuid.UUID{a, b}},
	}}

	store := NewMockEdgeStore()
	runner := NewRunnerWith(store, 100, nil, NewSubjectSimilaritySynthesizer(catalog, model.DefaultSubjectSimilarityWeight))
	report := runner.RunOne(context.Background(), runner.synthesizers[0])
	require.NoError(t, report.Err, "Expected synthesis to succeed")

	assert.Equal(t, 4, report.Candidates, "Expected one candidate per pair and group")
	assert.Equal(t, 3, report.Created, "Expected one edge per pair")

	edge := store.Get(a, b, model.EdgeTypeSubjectSimilarity)
	require.NotNil(t, edge, "Expected edge between a and b")
	assert.Equal(t, 0.5, edge.Weight, "Expected subject weight 0.5")
	require.NotNil(t, edge.Metadata.Subject, "Expected subject metadata")
	assert.Equal(t, physics, edge.Metadata.Subject.TaxonomyNodeID, "Expected first group to win")
}

func TestTemporalSynthesizer(t *testing.T) {
	r1990 := resource(nil, yearPtr(1990))
	r1991 := resource(nil, yearPtr(1991))
	r1990b := resource(nil, yearPtr(1990))
	r2000 := resource(nil, yearPtr(2000))
	undated := resource(nil, nil)
	catalog := &MockCatalog{resources: []*model.Resource{r2000, r1991, undated, r1990, r1990b}}

	t.Run("Default only links same year", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunnerWith(store, 100, nil, NewTemporalSynthesizer(catalog, model.DefaultTemporalWeight, model.DefaultMaxYearDiff))
		report := runner.RunOne(context.Background(), runner.synthesizers[0])
		require.NoError(t, report.Err, "Expected synthesis to succeed")

		assert.Equal(t, 1, report.Created, "Expected only the 1990 pair")
		edge := store.Get(r1990.ID, r1990b.ID, model.EdgeTypeTemporal)
		require.NotNil(t, edge, "Expected edge between the 1990 resources")
		assert.Equal(t, 0.3, edge.Weight, "Expected temporal weight 0.3")
		require.NotNil(t, edge.Metadata.Temporal, "Expected temporal metadata")
		assert.Equal(t, 1990, edge.Metadata.Temporal.Year, "Expected year of earlier resource")
		assert.Equal(t, 0, edge.Metadata.Temporal.YearDiff, "Expected year diff 0")
	})

	t.Run("Wider window links neighboring years", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunnerWith(store, 100, nil, NewTemporalSynthesizer(catalog, model.DefaultTemporalWeight, 1))
		report := runner.RunOne(context.Background(), runner.synthesizers[0])
		require.NoError(t, report.Err, "Expected synthesis to succeed")

		assert.Equal(t, 3, report.Created, "Expected 1990/1990, 1990/1991 and 1990b/1991")
		edge := store.Get(r1990.ID, r1991.ID, model.EdgeTypeTemporal)
		require.NotNil(t, edge, "Expected edge between 1990 and 1991")
		assert.Equal(t, 1990, edge.Metadata.Temporal.Year, "Expected earlier year")
		assert.Equal(t, 1, edge.Metadata.Temporal.YearDiff, "Expected year diff 1")
		assert.Nil(t, store.Get(r1991.ID, r2000.ID, model.EdgeTypeTemporal), "Expected no edge beyond the window")
	})
}

func TestBatchWriter(t *testing.T) {
	edges := func(n int) []*model.Edge {
		result := make([]*model.Edge, n)
		for i := range result {
			result[i] = model.NewEdge(uuid.New(), uuid.New(), model.EdgeTypeTemporal, 0.3, model.EdgeMetadata{
				Temporal: &model.TemporalMetadata{Year: 2000},
			})
		}
		return result
	}

	t.Run("Flushes full batches in separate transactions", func(t *testing.T) {
		store := NewMockEdgeStore()
		w := NewBatchWriter(store, 2)
		for _, e := range edges(5) {
			require.NoError(t, w.Add(context.Background(), e), "Expected add to succeed")
		}
		assert.Equal(t, 2, store.transactions, "Expected two full batches")
		require.NoError(t, w.Flush(context.Background()), "Expected flush to succeed")
		assert.Equal(t, 3, store.transactions, "Expected remainder in a third transaction")
		assert.Equal(t, 5, w.Created(), "Expected all edges created")
		assert.Equal(t, 5, w.Candidates(), "Expected five candidates")
	})

	t.Run("Committed batches survive a failing batch", func(t *testing.T) {
		store := NewMockEdgeStore()
		store.failOnTransaction = 2
		w := NewBatchWriter(store, 2)

		var err error
		for _, e := range edges(6) {
			if err = w.Add(context.Background(), e); err != nil {
				break
			}
		}
		require.Error(t, err, "Expected second batch to fail")
		assert.Equal(t, 2, w.Created(), "Expected only the first batch to count")
		assert.Equal(t, 2, store.Count(model.EdgeTypeTemporal), "Expected first batch to stay committed")
	})

	t.Run("Non positive batch size falls back to default", func(t *testing.T) {
		w := NewBatchWriter(NewMockEdgeStore(), 0)
		assert.Equal(t, model.DefaultSynthesisBatchSize, w.batchSize, "Expected default batch size")
	})
}

func TestRunner(t *testing.T) {
	a := resource([]string{"Ada"}, yearPtr(2001))
	b := resource([]string{"Ada"}, yearPtr(2001))
	catalog := &MockCatalog{
		resources: []*model.Resource{a, b},
		citations: []*model.Citation{citation(a.ID, b.ID)},
		groups:    []*model.TaxonomyGroup{{NodeID: uuid.New(), NodeName: "Math", ResourceIDs: []uuid.UUID{a.ID, b.ID}}},
	}

	t.Run("Runs all synthesizers", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunner(catalog, catalog, catalog, store, model.DefaultConfig().Synthesis, nil)

		reports, err := runner.Run(context.Background())
		require.NoError(t, err, "Expected run to succeed")
		require.Len(t, reports, 4, "Expected one report per synthesizer")
		assert.Equal(t, model.EdgeTypeCitation, reports[0].EdgeType, "Expected citation first")
		assert.Equal(t, model.EdgeTypeTemporal, reports[3].EdgeType, "Expected temporal last")
		assert.Equal(t, 4, TotalCreated(reports), "Expected one edge per type")

		reports, err = runner.Run(context.Background())
		require.NoError(t, err, "Expected second run to succeed")
		assert.Equal(t, 0, TotalCreated(reports), "Expected second run to create nothing")
	})

	t.Run("A failing synthesizer does not stop the others", func(t *testing.T) {
		store := NewMockEdgeStore()
		failing := &MockCatalog{err: errors.New("citations unavailable")}
		runner := NewRunner(catalog, failing, catalog, store, model.DefaultConfig().Synthesis, nil)

		reports, err := runner.Run(context.Background())
		require.Error(t, err, "Expected joined error")
		require.Len(t, reports, 4, "Expected all reports")
		assert.Error(t, reports[0].Err, "Expected citation report to carry the error")
		assert.Equal(t, 1, reports[1].Created, "Expected co-authorship to still run")
		assert.Equal(t, 1, store.Count(model.EdgeTypeTemporal), "Expected temporal edge to be created")
	})

	t.Run("Cancelled context stops synthesis", func(t *testing.T) {
		store := NewMockEdgeStore()
		runner := NewRunner(catalog, catalog, catalog, store, model.DefaultConfig().Synthesis, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		reports, err := runner.Run(ctx)
		require.ErrorIs(t, err, context.Canceled, "Expected cancellation error")
		assert.Equal(t, 0, TotalCreated(reports), "Expected nothing to be created")
	})
}
