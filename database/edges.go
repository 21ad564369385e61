package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/amiralpert/SmartReach-sub000/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EdgesDBHandlerFunctions defines the interface for relationship edge database operations.
type EdgesDBHandlerFunctions interface {
	UpsertRelationshipEdge(edge *model.RelationshipEdge) error
	SelectRelationshipEdge(id uuid.UUID) (*model.RelationshipEdge, error)
	SelectEdgesFromEntity(entityID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.RelationshipEdge, error)
	SelectEdgesToEntity(entityID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.RelationshipEdge, error)
	SelectEdgesBetween(sourceID uuid.UUID, targetID uuid.UUID) ([]*model.RelationshipEdge, error)
	SelectEntitiesWithEdgesWithoutStats(limit int) ([]uuid.UUID, error)
	DeleteRelationshipEdge(id uuid.UUID) error
}

// EdgesDBHandler handles relationship edge database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new relationship edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := sql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
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

// CreateTable creates the 'relationship_edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationship_edges();`)
	if err != nil {
		log.Panicf("error initializing relationship_edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationship_edges")

	return nil
}

// UpsertRelationshipEdge inserts a relationship edge or merges it into the
// existing edge with the same (source, target, type). On merge the new
// summary is appended as a dated addendum, name arrays are set-unioned and
// the mention count is incremented. The edge is populated with the stored
// row, so after a merge MentionCount reflects the total detections.
func (h *EdgesDBHandler) UpsertRelationshipEdge(edge *model.RelationshipEdge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_relationship_edge($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.RelationshipType,
		edge.EdgeLabel,
		edge.ReverseEdgeLabel,
		edge.DetailedSummary,
		edge.DealTerms,
		edge.MonetaryValue,
		pq.Array(edge.TechnologyNames),
		pq.Array(edge.ProductNames),
		pq.Array(edge.TherapeuticAreas),
		edge.EventDate,
		edge.SECFilingRef,
	)

	err := scanEdge(row, edge)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationshipEdge retrieves an edge by ID
func (h *EdgesDBHandler) SelectRelationshipEdge(id uuid.UUID) (*model.RelationshipEdge, error) {
	edge := &model.RelationshipEdge{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relationship_edge($1)`,
		id,
	)

	err := scanEdge(row, edge)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return edge, nil
}

// SelectEdgesFromEntity retrieves all outgoing edges of an entity,
// optionally filtered by relationship type
func (h *EdgesDBHandler) SelectEdgesFromEntity(entityID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.RelationshipEdge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_from_entity($1, $2)`,
		entityID,
		relationshipType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesToEntity retrieves all incoming edges of an entity,
// optionally filtered by relationship type
func (h *EdgesDBHandler) SelectEdgesToEntity(entityID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.RelationshipEdge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_to_entity($1, $2)`,
		entityID,
		relationshipType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesBetween retrieves all edges from one entity to another
func (h *EdgesDBHandler) SelectEdgesBetween(sourceID uuid.UUID, targetID uuid.UUID) ([]*model.RelationshipEdge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_between($1, $2)`,
		sourceID,
		targetID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEntitiesWithEdgesWithoutStats retrieves entities that appear as an
// edge source but have no network stats row yet. Used by the aggregator as
// a fallback when no entities are explicitly flagged.
func (h *EdgesDBHandler) SelectEntitiesWithEdgesWithoutStats(limit int) ([]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_with_edges_without_stats($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		err := rows.Scan(&id)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// DeleteRelationshipEdge deletes an edge by ID
func (h *EdgesDBHandler) DeleteRelationshipEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relationship_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanEdge(row rowScanner, edge *model.RelationshipEdge) error {
	return row.Scan(
		&edge.ID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.RelationshipType,
		&edge.EdgeLabel,
		&edge.ReverseEdgeLabel,
		&edge.DetailedSummary,
		&edge.DealTerms,
		&edge.MonetaryValue,
		pq.Array(&edge.TechnologyNames),
		pq.Array(&edge.ProductNames),
		pq.Array(&edge.TherapeuticAreas),
		&edge.EventDate,
		&edge.SECFilingRef,
		&edge.MentionCount,
		&edge.FirstSeenAt,
		&edge.LastUpdatedAt,
	)
}

func scanEdges(rows *stdsql.Rows) ([]*model.RelationshipEdge, error) {
	var edges []*model.RelationshipEdge
	for rows.Next() {
		edge := &model.RelationshipEdge{}
		err := scanEdge(rows, edge)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}
