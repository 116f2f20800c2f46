package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/relgraph/helper"
)

// IndexType is a pgvector index method.
type IndexType string

const (
	IndexTypeHNSW    IndexType = "hnsw"
	IndexTypeIVFFlat IndexType = "ivfflat"
)

// IndexParams tunes vector index creation. Zero values use the defaults
// (m 16, ef_construction 64 for HNSW, lists 100 for IVFFlat).
type IndexParams struct {
	M              int
	EfConstruction int
	Lists          int
}

// ChangeIndexType rebuilds the resource embedding index with another method.
// The index serves the nearest candidate lookup of the neighbor finder.
func (h *ResourcesDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, params IndexParams) error {
	var createIndexSQL string

	switch indexType {
	case IndexTypeHNSW:
		m := 16
		efConstruction := 64
		if params.M > 0 {
			m = params.M
		}
		if params.EfConstruction > 0 {
			efConstruction = params.EfConstruction
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_resources_embedding ON resources USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)
	case IndexTypeIVFFlat:
		lists := 100
		if params.Lists > 0 {
			lists = params.Lists
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_resources_embedding ON resources USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)
	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_resources_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = tx.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	h.db.Logger.Info("Changed resource embedding index", slog.String("index_type", string(indexType)))

	return nil
}
