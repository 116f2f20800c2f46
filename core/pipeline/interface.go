package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

const DefaultBackfillBatchSize = 100

// EmbedFunc generates an embedding for text.
type EmbedFunc func(text string) ([]float32, error)

// TextFunc renders the text a resource is embedded from.
type TextFunc func(resource *model.Resource) string

// EmbeddingStore reads resources lacking a vector and stores new vectors.
type EmbeddingStore interface {
	SelectResourcesWithoutEmbedding(ctx context.Context, limit int) ([]*model.Resource, error)
	UpdateResourceEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) (*model.Resource, error)
}

// ResourceText joins the title and the subjects of a resource.
func ResourceText(resource *model.Resource) string {
	if len(resource.Subjects) == 0 {
		return resource.Title
	}
	return resource.Title + ". " + strings.Join(resource.Subjects, ", ")
}

// Pipeline embeds catalog resources.
type Pipeline struct {
	Embedder  EmbedFunc
	Text      TextFunc
	BatchSize int
	logger    *slog.Logger
}

// NewPipeline creates a pipeline embedding ResourceText with embedder.
func NewPipeline(embedder EmbedFunc, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Embedder:  embedder,
		Text:      ResourceText,
		BatchSize: DefaultBackfillBatchSize,
		logger:    logger,
	}
}

// SetText replaces the text rendering of resources.
func (p *Pipeline) SetText(text TextFunc) {
	p.Text = text
}

// Embed returns the embedding of one resource.
// An empty embedding is rejected.
func (p *Pipeline) Embed(resource *model.Resource) ([]float32, error) {
	embedding, err := p.Embedder(p.Text(resource))
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", model.ErrInvalidInput)
	}
	return embedding, nil
}

// Backfill embeds every resource without a vector and returns how many were
// updated. It stops at the first failing resource.
func (p *Pipeline) Backfill(ctx context.Context, store EmbeddingStore) (int, error) {
	batchSize := p.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBackfillBatchSize
	}

	updated := 0
	for {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		resources, err := store.SelectResourcesWithoutEmbedding(ctx, batchSize)
		if err != nil {
			return updated, helper.NewError("select resources without embedding", err)
		}
		if len(resources) == 0 {
			break
		}

		for _, resource := range resources {
			embedding, err := p.Embed(resource)
			if err != nil {
				return updated, helper.NewError("embed resource "+resource.ID.String(), err)
			}
			if _, err := store.UpdateResourceEmbedding(ctx, resource.ID, embedding); err != nil {
				return updated, helper.NewError("update embedding", err)
			}
			updated++
		}

		p.logger.Debug("Embedded resource batch", slog.Int("batch", len(resources)), slog.Int("updated", updated))
	}

	p.logger.Info("Backfilled embeddings", slog.Int("updated", updated))

	return updated, nil
}
