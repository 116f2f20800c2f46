package relgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/core/graph"
	"github.com/siherrmann/relgraph/core/pipeline"
	"github.com/siherrmann/relgraph/core/retrieval"
	"github.com/siherrmann/relgraph/core/synthesis"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// Relgraph provides a unified interface to the catalog, the structural graph
// and the soft relationship queries.
type Relgraph struct {
	DB        *helper.Database
	Resources *database.ResourcesDBHandler
	Edges     *database.EdgesDBHandler
	Citations *database.CitationsDBHandler
	Taxonomy  *database.TaxonomyDBHandler
	Pipeline  *pipeline.Pipeline // Optional embedding pipeline
	Synthesis *synthesis.Runner
	Cache     *graph.GraphCache
	Finder    *retrieval.Finder
	Overviews *retrieval.Overview

	config       *model.Config
	embeddingDim int
	// Logging
	log *slog.Logger
}

// NewRelgraph creates a new Relgraph instance with all handlers initialized.
// A nil config uses model.DefaultConfig.
func NewRelgraph(dbConfig *helper.DatabaseConfiguration, config *model.Config, embeddingDim int) (*Relgraph, error) {
	if config == nil {
		config = model.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	db := helper.NewDatabase("relgraph", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}
	if dbConfig.WithTableDrop {
		if err := loadSql.DropTables(db.Instance); err != nil {
			return nil, helper.NewError("drop tables", err)
		}
	}

	// Resources first, all other tables reference them.
	// force=false to not reload if functions already exist
	resources, err := database.NewResourcesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create resources handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	citations, err := database.NewCitationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create citations handler", err)
	}

	taxonomy, err := database.NewTaxonomyDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create taxonomy handler", err)
	}

	runner := synthesis.NewRunner(resources, citations, taxonomy, edges, config.Synthesis, logger)
	assembler := graph.NewAssembler(resources, edges, runner, logger)

	return &Relgraph{
		DB:           db,
		Resources:    resources,
		Edges:        edges,
		Citations:    citations,
		Taxonomy:     taxonomy,
		Synthesis:    runner,
		Cache:        graph.NewGraphCache(assembler, logger),
		Finder:       retrieval.NewFinder(resources, config.Weights, logger),
		Overviews:    retrieval.NewOverview(resources, config.Weights, config.OverviewNoiseFloor, logger),
		config:       config,
		embeddingDim: embeddingDim,
		log:          logger,
	}, nil
}

// Close closes the database connection
func (r *Relgraph) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// Config returns the engine configuration.
func (r *Relgraph) Config() *model.Config {
	return r.config
}

// SetEmbedder sets the function used to embed resources.
func (r *Relgraph) SetEmbedder(embedder pipeline.EmbedFunc) {
	r.Pipeline = pipeline.NewPipeline(embedder, r.log)
}

// UseDefaultEmbedder embeds resources with the all-MiniLM-L6-v2 model
// (384 dimensions). The catalog has to be created with that dimension.
func (r *Relgraph) UseDefaultEmbedder() error {
	if r.embeddingDim != pipeline.DefaultEmbeddingDim {
		return helper.NewError("use default embedder", fmt.Errorf("%w: default embedder produces %d dimensions, catalog uses %d", model.ErrInvalidInput, pipeline.DefaultEmbeddingDim, r.embeddingDim))
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	r.SetEmbedder(embedder)
	return nil
}

// BackfillEmbeddings embeds every resource without a vector.
// Returns the number of embedded resources.
func (r *Relgraph) BackfillEmbeddings(ctx context.Context) (int, error) {
	if r.Pipeline == nil {
		return 0, helper.NewError("backfill embeddings", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	updated, err := r.Pipeline.Backfill(ctx, r.Resources)
	if updated > 0 {
		r.InvalidateCache()
	}
	if err != nil {
		return updated, helper.NewError("backfill embeddings", err)
	}

	return updated, nil
}

// InsertResource inserts a resource into the catalog. Without an embedding
// the resource is embedded first if an embedder is set.
func (r *Relgraph) InsertResource(ctx context.Context, resource *model.Resource) error {
	if !resource.HasEmbedding() && r.Pipeline != nil {
		embedding, err := r.Pipeline.Embed(resource)
		if err != nil {
			return helper.NewError("embed resource", err)
		}
		resource.Embedding = embedding
	}

	if err := r.Resources.InsertResource(ctx, resource); err != nil {
		return helper.NewError("insert resource", err)
	}
	r.InvalidateCache()

	r.log.Info("Inserted resource", slog.String("resource_id", resource.ID.String()), slog.String("title", resource.Title))

	return nil
}

// DeleteResource deletes a resource with its edges, citations and memberships.
func (r *Relgraph) DeleteResource(ctx context.Context, id uuid.UUID) error {
	if err := r.Resources.DeleteResource(ctx, id); err != nil {
		return helper.NewError("delete resource", err)
	}
	r.InvalidateCache()
	return nil
}

// AddCitation records that one resource cites another. CitedID may be nil
// for a reference not yet resolved to the catalog.
func (r *Relgraph) AddCitation(ctx context.Context, citation *model.Citation) error {
	if err := r.Citations.InsertCitation(ctx, citation); err != nil {
		return helper.NewError("add citation", err)
	}
	r.InvalidateCache()
	return nil
}

// ResolveCitation points a stored citation at a catalog resource.
func (r *Relgraph) ResolveCitation(ctx context.Context, id uuid.UUID, citedID uuid.UUID) (*model.Citation, error) {
	citation, err := r.Citations.ResolveCitation(ctx, id, citedID)
	if err != nil {
		return nil, helper.NewError("resolve citation", err)
	}
	r.InvalidateCache()
	return citation, nil
}

// AddTaxonomyNode inserts a subject taxonomy node.
func (r *Relgraph) AddTaxonomyNode(ctx context.Context, node *model.TaxonomyNode) error {
	if err := r.Taxonomy.InsertTaxonomyNode(ctx, node); err != nil {
		return helper.NewError("add taxonomy node", err)
	}
	r.InvalidateCache()
	return nil
}

// AddTaxonomyMembership classifies a resource under a taxonomy node.
// It returns false if the resource already was a member.
func (r *Relgraph) AddTaxonomyMembership(ctx context.Context, nodeID uuid.UUID, resourceID uuid.UUID) (bool, error) {
	created, err := r.Taxonomy.InsertTaxonomyMembership(ctx, nodeID, resourceID)
	if err != nil {
		return false, helper.NewError("add taxonomy membership", err)
	}
	if created {
		r.InvalidateCache()
	}
	return created, nil
}

// SynthesizeEdges derives and stores structural edges from the catalog
// without assembling the graph.
func (r *Relgraph) SynthesizeEdges(ctx context.Context) ([]*synthesis.Report, error) {
	reports, err := r.Synthesis.Run(ctx)
	if synthesis.TotalCreated(reports) > 0 {
		r.InvalidateCache()
	}
	if err != nil {
		return reports, helper.NewError("synthesize edges", err)
	}
	return reports, nil
}

// BuildMultilayerGraph returns the cached graph or assembles a new one.
// The returned graph is shared and must not be modified.
func (r *Relgraph) BuildMultilayerGraph(ctx context.Context, force bool) (*graph.Graph, error) {
	g, err := r.Cache.Build(ctx, force)
	if err != nil {
		return nil, helper.NewError("build multilayer graph", err)
	}
	return g, nil
}

// InvalidateCache drops the cached graph.
func (r *Relgraph) InvalidateCache() {
	r.Cache.Invalidate()
}

// CacheStats returns the graph cache counters.
func (r *Relgraph) CacheStats() graph.CacheStats {
	return r.Cache.Stats()
}

// GetNeighborsMultihop ranks the structural neighbors of a resource within
// one or two hops over the cached graph.
func (r *Relgraph) GetNeighborsMultihop(ctx context.Context, query model.NeighborQuery) ([]*model.NeighborResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	g, err := r.BuildMultilayerGraph(ctx, false)
	if err != nil {
		return nil, err
	}

	return graph.GetNeighbors(g, query, r.config.Ranking)
}

// FindNeighbors returns the strongest soft relationships of one resource.
func (r *Relgraph) FindNeighbors(ctx context.Context, id uuid.UUID, limit int) (*model.RelationshipGraph, error) {
	return r.Finder.FindNeighbors(ctx, id, limit)
}

// Overview returns the strongest soft relationships across the catalog.
func (r *Relgraph) Overview(ctx context.Context, limit int, vectorThreshold float64) (*model.RelationshipGraph, error) {
	return r.Overviews.Build(ctx, limit, vectorThreshold)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (r *Relgraph) ChangeIndexType(ctx context.Context, indexType database.IndexType, params database.IndexParams) error {
	return r.Resources.ChangeIndexType(ctx, indexType, params)
}
