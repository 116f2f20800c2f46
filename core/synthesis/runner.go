package synthesis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/siherrmann/relgraph/model"
)

// Runner executes all synthesizers against one edge store.
type Runner struct {
	store        EdgeStore
	batchSize    int
	synthesizers []Synthesizer
	logger       *slog.Logger
}

// NewRunner creates a runner with the citation, co-authorship, subject
// similarity and temporal synthesizers, in that order.
func NewRunner(resources ResourceSource, citations CitationSource, taxonomy TaxonomySource, store EdgeStore, config model.SynthesisConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:     store,
		batchSize: config.BatchSize,
		synthesizers: []Synthesizer{
			NewCitationSynthesizer(citations, config.CitationWeight),
			NewCoAuthorshipSynthesizer(resources),
			NewSubjectSimilaritySynthesizer(taxonomy, config.SubjectSimilarityWeight),
			NewTemporalSynthesizer(resources, config.TemporalWeight, config.MaxYearDiff),
		},
		logger: logger,
	}
}

// NewRunnerWith creates a runner for the given synthesizers.
func NewRunnerWith(store EdgeStore, batchSize int, logger *slog.Logger, synthesizers ...Synthesizer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, batchSize: batchSize, synthesizers: synthesizers, logger: logger}
}

// RunOne runs a single synthesizer and flushes its remaining edges.
func (r *Runner) RunOne(ctx context.Context, s Synthesizer) *Report {
	start := time.Now()
	w := NewBatchWriter(r.store, r.batchSize)

	err := s.Synthesize(ctx, w)
	if err == nil {
		err = w.Flush(ctx)
	} else {
		w.Discard()
	}

	report := &Report{
		EdgeType:   s.EdgeType(),
		Candidates: w.Candidates(),
		Created:    w.Created(),
		Duration:   time.Since(start),
		Err:        err,
	}
	logReport(r.logger, report)

	return report
}

// Run executes every synthesizer. A failing synthesizer does not stop the
// others. The returned error joins all failures. Cancellation stops the
// remaining synthesizers.
func (r *Runner) Run(ctx context.Context) ([]*Report, error) {
	reports := make([]*Report, 0, len(r.synthesizers))
	var errs []error

	for _, s := range r.synthesizers {
		if err := checkpoint(ctx); err != nil {
			reports = append(reports, &Report{EdgeType: s.EdgeType(), Err: err})
			errs = append(errs, err)
			continue
		}

		report := r.RunOne(ctx, s)
		reports = append(reports, report)
		if report.Err != nil {
			errs = append(errs, report.Err)
		}
	}

	return reports, errors.Join(errs...)
}

// TotalCreated sums the created edges of all reports.
func TotalCreated(reports []*Report) int {
	total := 0
	for _, report := range reports {
		total += report.Created
	}
	return total
}
