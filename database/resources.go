package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	loadSql "github.com/siherrmann/relgraph/sql"
)

// ResourcesDBHandlerFunctions defines the interface for Resources database operations.
type ResourcesDBHandlerFunctions interface {
	InsertResource(ctx context.Context, resource *model.Resource) error
	SelectResource(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	SelectAllResources(ctx context.Context) ([]*model.Resource, error)
	SelectResourcesWithEmbedding(ctx context.Context, excludeID uuid.UUID, near []float32, limit int) ([]*model.Resource, error)
	SelectResourcesBySubjects(ctx context.Context, subjects []string, excludeID uuid.UUID) ([]*model.Resource, error)
	SelectResourcesByClassification(ctx context.Context, classification string, excludeID uuid.UUID) ([]*model.Resource, error)
	SelectResourcesWithoutEmbedding(ctx context.Context, limit int) ([]*model.Resource, error)
	UpdateResourceEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) (*model.Resource, error)
	DeleteResource(ctx context.Context, id uuid.UUID) error
}

// ResourcesDBHandler handles resource catalog database operations
type ResourcesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewResourcesDBHandler creates a new resources database handler.
// It initializes the database connection and loads resource-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewResourcesDBHandler(db *helper.Database, embeddingDim int, force bool) (*ResourcesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	resourcesDbHandler := &ResourcesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadResourcesSql(resourcesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load resources sql", err)
	}

	err = resourcesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ResourcesDBHandler")

	return resourcesDbHandler, nil
}

// CreateTable creates the 'resources' table with its vector and subject indexes.
// If the table already exists, it does not create it again.
func (h *ResourcesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_resources($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing resources table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table resources")

	return nil
}

// InsertResource inserts a new resource and fills its generated fields.
func (h *ResourcesDBHandler) InsertResource(ctx context.Context, resource *model.Resource) error {
	if err := h.checkDimension(resource.Embedding); err != nil {
		return err
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_resource($1, $2, $3, $4, $5, $6, $7)`,
		resource.Title,
		vectorOrNil(resource.Embedding),
		pq.Array(nonNilStrings(resource.Subjects)),
		resource.Classification,
		pq.Array(resource.Authors),
		resource.PublicationYear,
		resource.QualityScore,
	)

	inserted, err := scanResource(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*resource = *inserted

	return nil
}

// SelectResource retrieves a resource by ID.
// It returns nil and no error if the resource does not exist.
func (h *ResourcesDBHandler) SelectResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_resource($1)`,
		id,
	)

	resource, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return resource, nil
}

// SelectAllResources retrieves the whole catalog in insertion order.
func (h *ResourcesDBHandler) SelectAllResources(ctx context.Context) ([]*model.Resource, error) {
	return h.queryResources(ctx, `SELECT * FROM select_all_resources()`)
}

// SelectResourcesWithEmbedding retrieves up to limit resources that carry an
// embedding, excluding excludeID. If near is given, the nearest resources by
// cosine distance come first.
func (h *ResourcesDBHandler) SelectResourcesWithEmbedding(ctx context.Context, excludeID uuid.UUID, near []float32, limit int) ([]*model.Resource, error) {
	if limit <= 0 {
		return []*model.Resource{}, nil
	}
	if err := h.checkDimension(near); err != nil {
		return nil, err
	}
	return h.queryResources(
		ctx,
		`SELECT * FROM select_resources_with_embedding($1, $2, $3)`,
		excludeID,
		vectorOrNil(near),
		limit,
	)
}

// SelectResourcesBySubjects retrieves resources whose subjects contain any of
// the given subjects, compared case-insensitively.
func (h *ResourcesDBHandler) SelectResourcesBySubjects(ctx context.Context, subjects []string, excludeID uuid.UUID) ([]*model.Resource, error) {
	if len(subjects) == 0 {
		return []*model.Resource{}, nil
	}
	return h.queryResources(
		ctx,
		`SELECT * FROM select_resources_by_subjects($1, $2)`,
		pq.Array(subjects),
		excludeID,
	)
}

// SelectResourcesByClassification retrieves resources with exactly the given classification code.
func (h *ResourcesDBHandler) SelectResourcesByClassification(ctx context.Context, classification string, excludeID uuid.UUID) ([]*model.Resource, error) {
	if classification == "" {
		return []*model.Resource{}, nil
	}
	return h.queryResources(
		ctx,
		`SELECT * FROM select_resources_by_classification($1, $2)`,
		classification,
		excludeID,
	)
}

// SelectResourcesWithoutEmbedding retrieves up to limit resources lacking an embedding.
func (h *ResourcesDBHandler) SelectResourcesWithoutEmbedding(ctx context.Context, limit int) ([]*model.Resource, error) {
	return h.queryResources(ctx, `SELECT * FROM select_resources_without_embedding($1)`, limit)
}

// UpdateResourceEmbedding sets the embedding of a resource
func (h *ResourcesDBHandler) UpdateResourceEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) (*model.Resource, error) {
	if err := h.checkDimension(embedding); err != nil {
		return nil, err
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM update_resource_embedding($1, $2)`,
		id,
		vectorOrNil(embedding),
	)

	resource, err := scanResource(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return resource, nil
}

// DeleteResource deletes a resource. Its edges, citations and memberships cascade.
func (h *ResourcesDBHandler) DeleteResource(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_resource($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

func (h *ResourcesDBHandler) queryResources(ctx context.Context, query string, args ...interface{}) ([]*model.Resource, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	resources := []*model.Resource{}
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		resources = append(resources, resource)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return resources, nil
}

func (h *ResourcesDBHandler) checkDimension(embedding []float32) error {
	if len(embedding) > 0 && len(embedding) != h.embeddingDim {
		return helper.NewError(
			"embedding dimension validation",
			fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrInvalidInput, h.embeddingDim, len(embedding)),
		)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*model.Resource, error) {
	resource := &model.Resource{}
	var embedding *pgvector.Vector

	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&embedding,
		pq.Array(&resource.Subjects),
		&resource.Classification,
		pq.Array(&resource.Authors),
		&resource.PublicationYear,
		&resource.QualityScore,
		&resource.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if embedding != nil {
		resource.Embedding = embedding.Slice()
	}
	if resource.Subjects == nil {
		resource.Subjects = []string{}
	}

	return resource, nil
}

// vectorOrNil maps an empty embedding to SQL NULL.
func vectorOrNil(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
