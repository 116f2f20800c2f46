// Package synthesis derives structural edges from catalog facts and stores
// them idempotently.
package synthesis

import (
	"context"
	"log/slog"
	"time"

	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/model"
)

// ResourceSource provides the resources to compare.
type ResourceSource interface {
	SelectAllResources(ctx context.Context) ([]*model.Resource, error)
}

// CitationSource provides citations with a resolved target.
type CitationSource interface {
	SelectResolvedCitations(ctx context.Context) ([]*model.Citation, error)
}

// TaxonomySource provides taxonomy nodes with their member resources.
type TaxonomySource interface {
	SelectTaxonomyGroups(ctx context.Context) ([]*model.TaxonomyGroup, error)
}

// EdgeStore persists edges inside transactions.
type EdgeStore interface {
	InTransaction(ctx context.Context, fn func(inserter database.EdgeInserter) error) error
}

// Synthesizer derives edges of one type and hands them to the writer.
type Synthesizer interface {
	EdgeType() model.EdgeType
	Synthesize(ctx context.Context, w *BatchWriter) error
}

// Report summarizes one synthesizer run. Created counts committed edges only,
// so it is the partial count if Err is set.
type Report struct {
	EdgeType   model.EdgeType `json:"edge_type"`
	Candidates int            `json:"candidates"`
	Created    int            `json:"created"`
	Duration   time.Duration  `json:"duration"`
	Err        error          `json:"-"`
}

// checkpoint returns the context error once ctx is done.
func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func logReport(logger *slog.Logger, report *Report) {
	attrs := []any{
		slog.String("edge_type", string(report.EdgeType)),
		slog.Int("candidates", report.Candidates),
		slog.Int("created", report.Created),
		slog.Duration("duration", report.Duration),
	}
	if report.Err != nil {
		logger.Error("Edge synthesis failed", append(attrs, slog.String("error", report.Err.Error()))...)
		return
	}
	logger.Info("Synthesized edges", attrs...)
}
