package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// EdgeInserter inserts structural edges idempotently.
type EdgeInserter interface {
	// InsertEdgeIfAbsent checks whether an edge with the same source, target
	// and type exists and inserts it otherwise. created is false if it existed.
	InsertEdgeIfAbsent(ctx context.Context, edge *model.Edge) (created bool, err error)
}

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	EdgeInserter
	InTransaction(ctx context.Context, fn func(inserter EdgeInserter) error) error
	SelectEdge(ctx context.Context, id uuid.UUID) (*model.Edge, error)
	SelectAllEdges(ctx context.Context) ([]*model.Edge, error)
	SelectEdgesConnectedToResource(ctx context.Context, resourceID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	CountEdges(ctx context.Context, edgeType *model.EdgeType) (int64, error)
	DeleteEdge(ctx context.Context, id uuid.UUID) error
	DeleteEdgesByType(ctx context.Context, edgeType model.EdgeType) (int64, error)
}

// EdgesDBHandler handles structural edge database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
// The resources table has to exist before.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'structural_edges' table in the database.
// If the table already exists, it does not create it again.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		log.Panicf("error initializing edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table structural_edges")

	return nil
}

// InsertEdgeIfAbsent inserts edge outside of an explicit transaction.
func (h *EdgesDBHandler) InsertEdgeIfAbsent(ctx context.Context, edge *model.Edge) (bool, error) {
	return insertEdgeIfAbsent(ctx, h.db.Instance, edge)
}

// InTransaction runs fn in one transaction. The transaction is committed if
// fn returns nil and rolled back otherwise.
func (h *EdgesDBHandler) InTransaction(ctx context.Context, fn func(inserter EdgeInserter) error) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = fn(&edgesTx{tx: tx})
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// edgesTx inserts edges within a running transaction.
type edgesTx struct {
	tx *sql.Tx
}

func (t *edgesTx) InsertEdgeIfAbsent(ctx context.Context, edge *model.Edge) (bool, error) {
	return insertEdgeIfAbsent(ctx, t.tx, edge)
}

func insertEdgeIfAbsent(ctx context.Context, q queryer, edge *model.Edge) (bool, error) {
	if !edge.EdgeType.IsValid() {
		return false, helper.NewError("edge validation", fmt.Errorf("%w: unknown edge type %q", model.ErrInvalidInput, edge.EdgeType))
	}
	if err := edge.Metadata.Validate(edge.EdgeType); err != nil {
		return false, helper.NewError("edge validation", err)
	}

	rows, err := q.QueryContext(
		ctx,
		`SELECT * FROM insert_edge_if_absent($1, $2, $3, $4, $5)`,
		edge.SourceID,
		edge.TargetID,
		edge.EdgeType,
		edge.Weight,
		edge.Metadata,
	)
	if err != nil {
		return false, helper.NewError("query", err)
	}
	defer rows.Close()

	created := false
	if rows.Next() {
		err = scanEdgeInto(rows, edge)
		if err != nil {
			return false, helper.NewError("scan", err)
		}
		created = true
	}

	err = rows.Err()
	if err != nil {
		return false, helper.NewError("rows error", err)
	}

	return created, nil
}

// SelectEdge retrieves an edge by ID.
// It returns nil and no error if the edge does not exist.
func (h *EdgesDBHandler) SelectEdge(ctx context.Context, id uuid.UUID) (*model.Edge, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_edge($1)`,
		id,
	)

	edge := &model.Edge{}
	err := scanEdgeInto(row, edge)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return edge, nil
}

// SelectAllEdges retrieves every persisted structural edge
func (h *EdgesDBHandler) SelectAllEdges(ctx context.Context) ([]*model.Edge, error) {
	return h.queryEdges(ctx, `SELECT * FROM select_all_edges()`)
}

// SelectEdgesConnectedToResource retrieves edges touching a resource in either direction.
// A nil edgeType selects all types.
func (h *EdgesDBHandler) SelectEdgesConnectedToResource(ctx context.Context, resourceID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	return h.queryEdges(
		ctx,
		`SELECT * FROM select_edges_connected_to_resource($1, $2)`,
		resourceID,
		nullableEdgeType(edgeType),
	)
}

// CountEdges counts edges of one type, or all edges if edgeType is nil.
func (h *EdgesDBHandler) CountEdges(ctx context.Context, edgeType *model.EdgeType) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_edges($1)`,
		nullableEdgeType(edgeType),
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// DeleteEdge deletes an edge
func (h *EdgesDBHandler) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// DeleteEdgesByType deletes all edges of one type and returns how many were removed.
func (h *EdgesDBHandler) DeleteEdgesByType(ctx context.Context, edgeType model.EdgeType) (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_edges_by_type($1)`,
		edgeType,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}

func (h *EdgesDBHandler) queryEdges(ctx context.Context, query string, args ...interface{}) ([]*model.Edge, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	edges := []*model.Edge{}
	for rows.Next() {
		edge := &model.Edge{}
		err := scanEdgeInto(rows, edge)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

func scanEdgeInto(row rowScanner, edge *model.Edge) error {
	return row.Scan(
		&edge.ID,
		&edge.SourceID,
		&edge.TargetID,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Metadata,
		&edge.CreatedAt,
	)
}

func nullableEdgeType(edgeType *model.EdgeType) interface{} {
	if edgeType == nil {
		return nil
	}
	return string(*edgeType)
}
