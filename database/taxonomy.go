package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// TaxonomyDBHandlerFunctions defines the interface for Taxonomy database operations.
type TaxonomyDBHandlerFunctions interface {
	InsertTaxonomyNode(ctx context.Context, node *model.TaxonomyNode) error
	SelectTaxonomyNode(ctx context.Context, id uuid.UUID) (*model.TaxonomyNode, error)
	InsertTaxonomyMembership(ctx context.Context, nodeID uuid.UUID, resourceID uuid.UUID) (bool, error)
	SelectTaxonomyGroups(ctx context.Context) ([]*model.TaxonomyGroup, error)
	DeleteTaxonomyMembership(ctx context.Context, nodeID uuid.UUID, resourceID uuid.UUID) error
	DeleteTaxonomyNode(ctx context.Context, id uuid.UUID) error
}

// TaxonomyDBHandler handles taxonomy node and membership database operations
type TaxonomyDBHandler struct {
	db *helper.Database
}

// NewTaxonomyDBHandler creates a new taxonomy database handler.
// If force is true, it will reload the SQL functions even if they already exist.
// The resources table has to exist before.
func NewTaxonomyDBHandler(db *helper.Database, force bool) (*TaxonomyDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	taxonomyDbHandler := &TaxonomyDBHandler{
		db: db,
	}

	err := loadSql.LoadTaxonomySql(taxonomyDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load taxonomy sql", err)
	}

	err = taxonomyDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TaxonomyDBHandler")

	return taxonomyDbHandler, nil
}

// CreateTable creates the 'taxonomy_nodes' and 'taxonomy_memberships' tables.
func (h *TaxonomyDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_taxonomy();`)
	if err != nil {
		log.Panicf("error initializing taxonomy tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables taxonomy_nodes and taxonomy_memberships")

	return nil
}

// InsertTaxonomyNode inserts a taxonomy node
func (h *TaxonomyDBHandler) InsertTaxonomyNode(ctx context.Context, node *model.TaxonomyNode) error {
	if strings.TrimSpace(node.Name) == "" {
		return helper.NewError("taxonomy node validation", fmt.Errorf("%w: taxonomy node name is empty", model.ErrInvalidInput))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_taxonomy_node($1, $2)`,
		node.Name,
		node.ParentID,
	)

	err := row.Scan(&node.ID, &node.Name, &node.ParentID, &node.CreatedAt)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectTaxonomyNode retrieves a taxonomy node by ID.
// It returns nil and no error if the node does not exist.
func (h *TaxonomyDBHandler) SelectTaxonomyNode(ctx context.Context, id uuid.UUID) (*model.TaxonomyNode, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_taxonomy_node($1)`, id)

	node := &model.TaxonomyNode{}
	err := row.Scan(&node.ID, &node.Name, &node.ParentID, &node.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// InsertTaxonomyMembership classifies a resource under a node.
// It returns false if the membership already existed.
func (h *TaxonomyDBHandler) InsertTaxonomyMembership(ctx context.Context, nodeID uuid.UUID, resourceID uuid.UUID) (bool, error) {
	var created bool
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT insert_taxonomy_membership($1, $2)`,
		nodeID,
		resourceID,
	).Scan(&created)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return created, nil
}

// SelectTaxonomyGroups retrieves all taxonomy nodes with at least two member resources.
func (h *TaxonomyDBHandler) SelectTaxonomyGroups(ctx context.Context) ([]*model.TaxonomyGroup, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_taxonomy_groups()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	groups := []*model.TaxonomyGroup{}
	for rows.Next() {
		group := &model.TaxonomyGroup{}
		var resourceIDs []byte

		err := rows.Scan(&group.NodeID, &group.NodeName, &resourceIDs)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		err = parseUUIDArray(resourceIDs, &group.ResourceIDs)
		if err != nil {
			return nil, helper.NewError("parse resource ids", err)
		}

		groups = append(groups, group)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return groups, nil
}

// DeleteTaxonomyMembership removes a resource from a node
func (h *TaxonomyDBHandler) DeleteTaxonomyMembership(ctx context.Context, nodeID uuid.UUID, resourceID uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_taxonomy_membership($1, $2)`, nodeID, resourceID)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// DeleteTaxonomyNode deletes a node and its memberships
func (h *TaxonomyDBHandler) DeleteTaxonomyNode(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_taxonomy_node($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// parseUUIDArray parses PostgreSQL UUID array format
func parseUUIDArray(data []byte, result *[]uuid.UUID) error {
	// PostgreSQL array format: {uuid1,uuid2,uuid3}
	str := string(data)
	if len(str) < 2 || str[0] != '{' || str[len(str)-1] != '}' {
		return helper.NewError("invalid array format", fmt.Errorf("%s", str))
	}

	str = str[1 : len(str)-1]
	if str == "" {
		*result = []uuid.UUID{}
		return nil
	}

	parts := strings.Split(str, ",")
	*result = make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return helper.NewError("parse uuid", err)
		}
		*result = append(*result, id)
	}

	return nil
}
