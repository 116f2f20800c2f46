package synthesis

import (
	"context"

	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// BatchWriter buffers candidate edges and writes every full batch in its own
// transaction. A failed batch is rolled back, earlier batches stay committed.
type BatchWriter struct {
	store      EdgeStore
	batchSize  int
	pending    []*model.Edge
	candidates int
	created    int
}

// NewBatchWriter creates a writer flushing every batchSize edges.
func NewBatchWriter(store EdgeStore, batchSize int) *BatchWriter {
	if batchSize < 1 {
		batchSize = model.DefaultSynthesisBatchSize
	}
	return &BatchWriter{
		store:     store,
		batchSize: batchSize,
		pending:   make([]*model.Edge, 0, batchSize),
	}
}

// Add buffers edge and flushes if the batch is full.
func (w *BatchWriter) Add(ctx context.Context, edge *model.Edge) error {
	w.candidates++
	w.pending = append(w.pending, edge)
	if len(w.pending) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes all pending edges in one transaction.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	batch := w.pending
	w.pending = make([]*model.Edge, 0, w.batchSize)

	created := 0
	err := w.store.InTransaction(ctx, func(inserter database.EdgeInserter) error {
		for _, edge := range batch {
			ok, err := inserter.InsertEdgeIfAbsent(ctx, edge)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return helper.NewError("write edge batch", err)
	}

	w.created += created

	return nil
}

// Discard drops pending edges without writing them.
func (w *BatchWriter) Discard() {
	w.pending = w.pending[:0]
}

// Candidates returns how many edges were handed to the writer.
func (w *BatchWriter) Candidates() int {
	return w.candidates
}

// Created returns how many edges were committed as new.
func (w *BatchWriter) Created() int {
	return w.created
}
