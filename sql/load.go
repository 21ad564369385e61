package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed variants.sql
var variantsSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed stats.sql
var statsSQL string

//go:embed filings.sql
var filingsSQL string

// Function lists for verification
var EntitiesFunctions = []string{
	"init_entities",
	"insert_entity",
	"select_entity",
	"select_entity_by_canonical_name",
	"select_entities_by_type",
	"select_organization_entities",
	"search_entities",
	"touch_entity",
	"update_entity_type",
	"delete_entity",
}

var VariantsFunctions = []string{
	"init_name_variants",
	"upsert_name_variant",
	"select_name_variant",
	"select_variants_by_entity",
	"delete_name_variant",
}

var EdgesFunctions = []string{
	"init_relationship_edges",
	"upsert_relationship_edge",
	"select_relationship_edge",
	"select_edges_from_entity",
	"select_edges_to_entity",
	"select_edges_between",
	"select_entities_with_edges_without_stats",
	"delete_relationship_edge",
}

var StatsFunctions = []string{
	"init_network_stats",
	"mark_stats_dirty",
	"select_entities_needing_recalculation",
	"upsert_network_stats",
	"select_network_stats",
	"delete_network_stats",
}

var FilingsFunctions = []string{
	"init_filings",
	"insert_filing",
	"select_filing",
	"select_unprocessed_filings",
	"mark_filing_processed",
	"delete_filing",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadEntitiesSql loads canonical-entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadBundle(db, force, "entities", entitiesSQL, EntitiesFunctions)
}

// LoadVariantsSql loads name-variant-registry SQL functions
func LoadVariantsSql(db *sql.DB, force bool) error {
	return loadBundle(db, force, "variants", variantsSQL, VariantsFunctions)
}

// LoadEdgesSql loads relationship-edge SQL functions
func LoadEdgesSql(db *sql.DB, force bool) error {
	return loadBundle(db, force, "edges", edgesSQL, EdgesFunctions)
}

// LoadStatsSql loads network-stats SQL functions
func LoadStatsSql(db *sql.DB, force bool) error {
	return loadBundle(db, force, "stats", statsSQL, StatsFunctions)
}

// LoadFilingsSql loads filing-queue SQL functions
func LoadFilingsSql(db *sql.DB, force bool) error {
	return loadBundle(db, force, "filings", filingsSQL, FilingsFunctions)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadVariantsSql(db, force); err != nil {
		return err
	}

	if err := LoadEdgesSql(db, force); err != nil {
		return err
	}

	if err := LoadStatsSql(db, force); err != nil {
		return err
	}

	if err := LoadFilingsSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadBundle(db *sql.DB, force bool, name string, bundleSQL string, functions []string) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(bundleSQL)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions reports whether all named functions exist in the database
func checkFunctions(db *sql.DB, functions []string) (bool, error) {
	for _, function := range functions {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`,
			function,
		).Scan(&exists)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}
