package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/amiralpert/SmartReach-sub000/sql"
	"github.com/google/uuid"
)

// VariantsDBHandlerFunctions defines the interface for name variant registry operations.
type VariantsDBHandlerFunctions interface {
	UpsertNameVariant(variant *model.NameVariant) error
	SelectNameVariant(name string, entityType model.EntityType) (*model.NameVariant, error)
	SelectVariantsByEntity(canonicalID uuid.UUID) ([]*model.NameVariant, error)
	DeleteNameVariant(id int64) error
}

// VariantsDBHandler handles name variant registry database operations
type VariantsDBHandler struct {
	db *helper.Database
}

// NewVariantsDBHandler creates a new name variants database handler.
// It initializes the database connection and loads variant-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVariantsDBHandler(db *helper.Database, force bool) (*VariantsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	variantsDbHandler := &VariantsDBHandler{
		db: db,
	}

	err := sql.LoadVariantsSql(variantsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load variants sql", err)
	}

	err = variantsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VariantsDBHandler")

	return variantsDbHandler, nil
}

// CreateTable creates the 'name_variants' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *VariantsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_name_variants();`)
	if err != nil {
		log.Panicf("error initializing name_variants table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table name_variants")

	return nil
}

// UpsertNameVariant registers a surface form for a canonical entity. If the
// same (entity_name, entity_type) variant already exists, its occurrence
// count is bumped instead of creating a second registry row. Concurrent
// registrations of the same variant are serialized inside the database.
func (h *VariantsDBHandler) UpsertNameVariant(variant *model.NameVariant) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_name_variant($1, $2, $3, $4, $5, $6)`,
		variant.EntityName,
		variant.EntityNameNormalized,
		variant.CanonicalEntityID,
		variant.EntityType,
		variant.ResolutionMethod,
		variant.Confidence,
	)

	err := scanVariant(row, variant)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNameVariant retrieves a variant by exact surface form. A query type
// of UNKNOWN matches variants of any type.
func (h *VariantsDBHandler) SelectNameVariant(name string, entityType model.EntityType) (*model.NameVariant, error) {
	variant := &model.NameVariant{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_name_variant($1, $2)`,
		name,
		entityType,
	)

	err := scanVariant(row, variant)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return variant, nil
}

// SelectVariantsByEntity retrieves all registered surface forms of a
// canonical entity, most frequent first
func (h *VariantsDBHandler) SelectVariantsByEntity(canonicalID uuid.UUID) ([]*model.NameVariant, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_variants_by_entity($1)`,
		canonicalID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var variants []*model.NameVariant
	for rows.Next() {
		variant := &model.NameVariant{}
		err := scanVariant(rows, variant)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		variants = append(variants, variant)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return variants, nil
}

// DeleteNameVariant deletes a variant by ID
func (h *VariantsDBHandler) DeleteNameVariant(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_name_variant($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanVariant(row rowScanner, variant *model.NameVariant) error {
	return row.Scan(
		&variant.ID,
		&variant.EntityName,
		&variant.EntityNameNormalized,
		&variant.CanonicalEntityID,
		&variant.EntityType,
		&variant.ResolutionMethod,
		&variant.Confidence,
		&variant.OccurrenceCount,
		&variant.CreatedAt,
		&variant.LastSeenAt,
	)
}
