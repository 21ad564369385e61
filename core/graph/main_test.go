package graph

import (
	"context"
	"log"
	"testing"

	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
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

type testHandlers struct {
	entities *database.EntitiesDBHandler
	edges    *database.EdgesDBHandler
	stats    *database.StatsDBHandler
}

func initEngine(t *testing.T) (*Engine, *testHandlers) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	entities, err := database.NewEntitiesDBHandler(db, true)
	require.NoError(t, err)
	edges, err := database.NewEdgesDBHandler(db, true)
	require.NoError(t, err)
	stats, err := database.NewStatsDBHandler(db, true)
	require.NoError(t, err)

	engine := NewEngine(entities, edges, stats)

	return engine, &testHandlers{
		entities: entities,
		edges:    edges,
		stats:    stats,
	}
}

func insertTestEntity(t *testing.T, handlers *testHandlers, name string) *model.CanonicalEntity {
	t.Helper()

	entity := &model.CanonicalEntity{
		CanonicalName: name,
		EntityType:    model.EntityTypeCompany,
	}
	err := handlers.entities.InsertEntity(entity)
	require.NoError(t, err)
	t.Cleanup(func() { handlers.entities.DeleteEntity(entity.ID) })

	return entity
}

func upsertTestEdge(t *testing.T, handlers *testHandlers, source *model.CanonicalEntity, target *model.CanonicalEntity, relationshipType model.RelationshipType) {
	t.Helper()

	err := handlers.edges.UpsertRelationshipEdge(&model.RelationshipEdge{
		SourceEntityID:   source.ID,
		TargetEntityID:   target.ID,
		RelationshipType: relationshipType,
		EdgeLabel:        "connected to",
		ReverseEdgeLabel: "connected to",
		DetailedSummary:  "Test relationship.",
	})
	require.NoError(t, err)
}
