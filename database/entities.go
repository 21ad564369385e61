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
)

// EntitiesDBHandlerFunctions defines the interface for canonical entity database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.CanonicalEntity) error
	SelectEntity(id uuid.UUID) (*model.CanonicalEntity, error)
	SelectEntityByCanonicalName(name string, entityType model.EntityType) (*model.CanonicalEntity, error)
	SelectEntitiesByType(entityType model.EntityType, limit int) ([]*model.CanonicalEntity, error)
	SelectOrganizationEntities() ([]*model.CanonicalEntity, error)
	SearchEntities(searchTerm string, entityType *model.EntityType, limit int) ([]*model.CanonicalEntity, error)
	TouchEntity(id uuid.UUID) error
	UpdateEntityType(id uuid.UUID, entityType model.EntityType, companyDomain string) (*model.CanonicalEntity, error)
	DeleteEntity(id uuid.UUID) error
}

// EntitiesDBHandler handles canonical entity database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new canonical entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := sql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'canonical_entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing canonical_entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table canonical_entities")

	return nil
}

// InsertEntity inserts a new canonical entity. If an entity with the same
// (canonical_name, entity_type) already exists, the existing identity is
// returned and the entity is populated with its row. Concurrent inserts of
// the same identity are serialized inside the database, so only one row
// ever exists.
func (h *EntitiesDBHandler) InsertEntity(entity *model.CanonicalEntity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4)`,
		entity.CanonicalName,
		entity.EntityType,
		entity.CompanyDomain,
		entity.AutoCreated,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves a canonical entity by ID
func (h *EntitiesDBHandler) SelectEntity(id uuid.UUID) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByCanonicalName retrieves a canonical entity by exact name.
// A query type of UNKNOWN matches entities of any type.
func (h *EntitiesDBHandler) SelectEntityByCanonicalName(name string, entityType model.EntityType) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_canonical_name($1, $2)`,
		name,
		entityType,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByType retrieves canonical entities by type
func (h *EntitiesDBHandler) SelectEntitiesByType(entityType model.EntityType, limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// SelectOrganizationEntities retrieves all organization-like entities
// (companies and agencies). These are the fuzzy-match candidates for
// name resolution.
func (h *EntitiesDBHandler) SelectOrganizationEntities() ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_organization_entities()`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// SearchEntities searches canonical entities by name pattern
func (h *EntitiesDBHandler) SearchEntities(searchTerm string, entityType *model.EntityType, limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_entities($1, $2, $3)`,
		searchTerm,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// TouchEntity increments the mention count of an entity and refreshes its
// last seen timestamp
func (h *EntitiesDBHandler) TouchEntity(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT touch_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateEntityType enriches an auto-created placeholder entity once it is
// seen directly in an extraction, setting its real type and clearing the
// auto_created flag
func (h *EntitiesDBHandler) UpdateEntityType(id uuid.UUID, entityType model.EntityType, companyDomain string) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_entity_type($1, $2, $3)`,
		id,
		entityType,
		companyDomain,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// DeleteEntity deletes a canonical entity by ID. Variants, edges and stats
// referencing it are removed by cascade.
func (h *EntitiesDBHandler) DeleteEntity(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner, entity *model.CanonicalEntity) error {
	return row.Scan(
		&entity.ID,
		&entity.CanonicalName,
		&entity.EntityType,
		&entity.CompanyDomain,
		&entity.FirstSeenAt,
		&entity.LastSeenAt,
		&entity.MentionCount,
		&entity.AutoCreated,
	)
}

func scanEntities(rows *stdsql.Rows) ([]*model.CanonicalEntity, error) {
	var entities []*model.CanonicalEntity
	for rows.Next() {
		entity := &model.CanonicalEntity{}
		err := scanEntity(rows, entity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}
