package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// CitationsDBHandlerFunctions defines the interface for Citations database operations.
type CitationsDBHandlerFunctions interface {
	InsertCitation(ctx context.Context, citation *model.Citation) error
	ResolveCitation(ctx context.Context, id uuid.UUID, citedID uuid.UUID) (*model.Citation, error)
	SelectResolvedCitations(ctx context.Context) ([]*model.Citation, error)
	DeleteCitation(ctx context.Context, id uuid.UUID) error
}

// CitationsDBHandler handles citation database operations
type CitationsDBHandler struct {
	db *helper.Database
}

// NewCitationsDBHandler creates a new citations database handler.
// If force is true, it will reload the SQL functions even if they already exist.
// The resources table has to exist before.
func NewCitationsDBHandler(db *helper.Database, force bool) (*CitationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	citationsDbHandler := &CitationsDBHandler{
		db: db,
	}

	err := loadSql.LoadCitationsSql(citationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load citations sql", err)
	}

	err = citationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CitationsDBHandler")

	return citationsDbHandler, nil
}

// CreateTable creates the 'citations' table in the database.
func (h *CitationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_citations();`)
	if err != nil {
		log.Panicf("error initializing citations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table citations")

	return nil
}

// InsertCitation inserts a citation. CitedID may be nil for an unresolved reference.
func (h *CitationsDBHandler) InsertCitation(ctx context.Context, citation *model.Citation) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_citation($1, $2, $3)`,
		citation.CitingID,
		citation.CitedID,
		citation.RawReference,
	)

	err := scanCitationInto(row, citation)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// ResolveCitation points an existing citation at a catalog resource
func (h *CitationsDBHandler) ResolveCitation(ctx context.Context, id uuid.UUID, citedID uuid.UUID) (*model.Citation, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM resolve_citation($1, $2)`,
		id,
		citedID,
	)

	citation := &model.Citation{}
	err := scanCitationInto(row, citation)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return citation, nil
}

// SelectResolvedCitations retrieves all citations with a resolved target resource.
func (h *CitationsDBHandler) SelectResolvedCitations(ctx context.Context) ([]*model.Citation, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_resolved_citations()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	citations := []*model.Citation{}
	for rows.Next() {
		citation := &model.Citation{}
		err := scanCitationInto(rows, citation)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		citations = append(citations, citation)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return citations, nil
}

// DeleteCitation deletes a citation. Edges synthesized from it stay in place.
func (h *CitationsDBHandler) DeleteCitation(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_citation($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

func scanCitationInto(row rowScanner, citation *model.Citation) error {
	return row.Scan(
		&citation.ID,
		&citation.CitingID,
		&citation.CitedID,
		&citation.RawReference,
		&citation.CreatedAt,
	)
}
