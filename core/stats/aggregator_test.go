package stats

import (
	"testing"

	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func upsertTestEdge(t *testing.T, handlers *testHandlers, edge *model.RelationshipEdge) {
	t.Helper()

	err := handlers.edges.UpsertRelationshipEdge(edge)
	require.NoError(t, err)
}

func TestNewAggregator(t *testing.T) {
	t.Run("Invalid call NewAggregator without handlers", func(t *testing.T) {
		_, err := NewAggregator(nil, nil, nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "needs entity, edge and stats handlers")
	})
}

func TestAggregatorRecalculate(t *testing.T) {
	aggregator, handlers := initAggregator(t)

	t.Run("Fallback picks up entities with edges but no stats row", func(t *testing.T) {
		// Drain any leftover flags so the fallback path is exercised.
		_, err := aggregator.Recalculate(1000)
		require.NoError(t, err)

		source := insertTestEntity(t, handlers, "Helix Bio")
		target := insertTestEntity(t, handlers, "Verily Life Sciences")
		upsertTestEdge(t, handlers, &model.RelationshipEdge{
			SourceEntityID:   source.ID,
			TargetEntityID:   target.ID,
			RelationshipType: model.RelationshipPartnership,
			EdgeLabel:        "partnered with",
			ReverseEdgeLabel: "partnered with",
			DetailedSummary:  "Population genomics partnership.",
		})

		recalculated, err := aggregator.Recalculate(100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, recalculated, 2, "Expected both edge endpoints to get a stats row")

		sourceStats, err := handlers.stats.SelectNetworkStats(source.ID)
		require.NoError(t, err)
		assert.False(t, sourceStats.NeedsRecalculation)
		assert.Equal(t, 1, sourceStats.OutgoingConnections)
		assert.Equal(t, 0, sourceStats.IncomingConnections)
	})

	t.Run("Recalculate flagged entity from its edges", func(t *testing.T) {
		source := insertTestEntity(t, handlers, "GRAIL")
		partner := insertTestEntity(t, handlers, "Illumina")
		competitor := insertTestEntity(t, handlers, "Exact Sciences")

		monetary := 2500000.0
		upsertTestEdge(t, handlers, &model.RelationshipEdge{
			SourceEntityID:   source.ID,
			TargetEntityID:   partner.ID,
			RelationshipType: model.RelationshipPartnership,
			EdgeLabel:        "partnered with",
			ReverseEdgeLabel: "partnered with",
			DetailedSummary:  "Sequencing supply partnership.",
			MonetaryValue:    &monetary,
			TechnologyNames:  []string{"Galleri", "NovaSeq"},
			TherapeuticAreas: []string{"oncology"},
		})
		// The reverse edge carries the same deal value; it must not be
		// counted a second time.
		upsertTestEdge(t, handlers, &model.RelationshipEdge{
			SourceEntityID:   partner.ID,
			TargetEntityID:   source.ID,
			RelationshipType: model.RelationshipPartnership,
			EdgeLabel:        "partnered with",
			ReverseEdgeLabel: "partnered with",
			DetailedSummary:  "Sequencing supply partnership.",
			MonetaryValue:    &monetary,
			TechnologyNames:  []string{"Galleri", "NovaSeq"},
			TherapeuticAreas: []string{"oncology"},
		})
		upsertTestEdge(t, handlers, &model.RelationshipEdge{
			SourceEntityID:   source.ID,
			TargetEntityID:   competitor.ID,
			RelationshipType: model.RelationshipCompetitor,
			EdgeLabel:        "competes with",
			ReverseEdgeLabel: "competes with",
			DetailedSummary:  "Competing early-detection assays.",
			TechnologyNames:  []string{"Cologuard"},
		})

		err := handlers.stats.MarkStatsDirty(source.ID)
		require.NoError(t, err)

		recalculated, err := aggregator.Recalculate(100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, recalculated, 1)

		sourceStats, err := handlers.stats.SelectNetworkStats(source.ID)
		require.NoError(t, err)
		assert.False(t, sourceStats.NeedsRecalculation, "Expected the recalculation flag to be cleared")
		assert.Equal(t, 2, sourceStats.OutgoingConnections)
		assert.Equal(t, 1, sourceStats.IncomingConnections)
		assert.Equal(t, 3, sourceStats.TotalConnections)
		assert.Equal(t, 3.0, sourceStats.DegreeCentrality)
		assert.Equal(t, 2, sourceStats.ConnectionsByType[model.RelationshipPartnership])
		assert.Equal(t, 1, sourceStats.ConnectionsByType[model.RelationshipCompetitor])
		assert.Equal(t, monetary, sourceStats.TotalMonetaryValue, "Expected the deal counted once despite forward and reverse edges")
		assert.Equal(t, monetary, sourceStats.AvgMonetaryValue, "Expected the average over edges carrying a value")
		assert.ElementsMatch(t, []string{"Cologuard", "Galleri", "NovaSeq"}, sourceStats.TechnologyPortfolio)
		assert.ElementsMatch(t, []string{"oncology"}, sourceStats.TherapeuticAreas)

		require.NotEmpty(t, sourceStats.TopPartners)
		assert.Equal(t, partner.ID, sourceStats.TopPartners[0].EntityID, "Expected the partner with the most edges first")
		assert.Equal(t, "Illumina", sourceStats.TopPartners[0].EntityName)
		assert.Equal(t, 2, sourceStats.TopPartners[0].EdgeCount)

		require.NotEmpty(t, sourceStats.Timeline)
		total := 0
		for _, bucket := range sourceStats.Timeline {
			total += bucket.Count
		}
		assert.Equal(t, 3, total, "Expected every edge counted in some month bucket")
	})

	t.Run("Recalculation is idempotent", func(t *testing.T) {
		entity := insertTestEntity(t, handlers, "Freenome")
		err := handlers.stats.MarkStatsDirty(entity.ID)
		require.NoError(t, err)

		_, err = aggregator.Recalculate(100)
		require.NoError(t, err)
		first, err := handlers.stats.SelectNetworkStats(entity.ID)
		require.NoError(t, err)

		err = aggregator.RecalculateEntity(entity.ID)
		require.NoError(t, err)
		second, err := handlers.stats.SelectNetworkStats(entity.ID)
		require.NoError(t, err)

		assert.Equal(t, first.TotalConnections, second.TotalConnections)
		assert.Equal(t, first.TopPartners, second.TopPartners)
		assert.False(t, second.NeedsRecalculation)
	})
}
