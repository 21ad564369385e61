package resolver

import (
	"context"
	"log"
	"testing"

	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/helper"
	loadSql "github.com/amiralpert/SmartReach-sub000/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

func initResolver(t *testing.T) (*Resolver, *database.EntitiesDBHandler, *database.VariantsDBHandler) {
	db := initDB(t)

	entities, err := database.NewEntitiesDBHandler(db, true)
	require.NoError(t, err)

	variants, err := database.NewVariantsDBHandler(db, true)
	require.NoError(t, err)

	resolver, err := NewResolver(entities, variants, nil, nil)
	require.NoError(t, err)

	return resolver, entities, variants
}
