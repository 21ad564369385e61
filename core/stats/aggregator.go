// Package stats recomputes the derived per-entity network statistics from
// the relationship edge table. The aggregator is pull-based and idempotent.
// It only ever reads edge and entity rows, never its own previous output,
// so a recalculation pass can be repeated safely at any time.
package stats

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/model"
)

const monthLayout = "2006-01"

// Aggregator rebuilds EntityNetworkStats rows for entities flagged as
// needing recalculation.
type Aggregator struct {
	entities database.EntitiesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
	stats    database.StatsDBHandlerFunctions
	logger   *slog.Logger
}

// NewAggregator creates a stats aggregator over the given handlers.
func NewAggregator(entities database.EntitiesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, stats database.StatsDBHandlerFunctions, logger *slog.Logger) (*Aggregator, error) {
	if entities == nil || edges == nil || stats == nil {
		return nil, fmt.Errorf("stats aggregator needs entity, edge and stats handlers")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		entities: entities,
		edges:    edges,
		stats:    stats,
		logger:   logger,
	}, nil
}

// Recalculate recomputes stats for up to limit flagged entities. When no
// entity is flagged it falls back to entities that appear in at least one
// edge but have no stats row yet. Per-entity failures are logged and
// skipped. Returns the number of entities recalculated.
func (a *Aggregator) Recalculate(limit int) (int, error) {
	entityIDs, err := a.stats.SelectEntitiesNeedingRecalculation(limit)
	if err != nil {
		return 0, fmt.Errorf("select flagged entities: %w", err)
	}
	if len(entityIDs) == 0 {
		entityIDs, err = a.edges.SelectEntitiesWithEdgesWithoutStats(limit)
		if err != nil {
			return 0, fmt.Errorf("select entities without stats: %w", err)
		}
	}

	recalculated := 0
	for _, entityID := range entityIDs {
		err := a.RecalculateEntity(entityID)
		if err != nil {
			a.logger.Warn("Skipping stats recalculation",
				slog.String("entityId", entityID.String()),
				slog.Any("error", err))
			continue
		}
		recalculated++
	}
	return recalculated, nil
}

// RecalculateEntity rebuilds the stats row for one entity from its edges.
func (a *Aggregator) RecalculateEntity(entityID uuid.UUID) error {
	outgoing, err := a.edges.SelectEdgesFromEntity(entityID, nil)
	if err != nil {
		return fmt.Errorf("select outgoing edges: %w", err)
	}
	incoming, err := a.edges.SelectEdgesToEntity(entityID, nil)
	if err != nil {
		return fmt.Errorf("select incoming edges: %w", err)
	}

	networkStats := a.compute(entityID, outgoing, incoming)

	err = a.stats.UpsertNetworkStats(networkStats)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

func (a *Aggregator) compute(entityID uuid.UUID, outgoing []*model.RelationshipEdge, incoming []*model.RelationshipEdge) *model.EntityNetworkStats {
	networkStats := &model.EntityNetworkStats{
		EntityID:            entityID,
		OutgoingConnections: len(outgoing),
		IncomingConnections: len(incoming),
		TotalConnections:    len(outgoing) + len(incoming),
		ConnectionsByType:   map[model.RelationshipType]int{},
	}
	networkStats.DegreeCentrality = float64(networkStats.TotalConnections)

	partnerCounts := map[uuid.UUID]int{}
	technologies := map[string]bool{}
	therapeuticAreas := map[string]bool{}
	timeline := map[string]int{}
	monetaryTotal := 0.0
	monetaryCount := 0

	all := append(append([]*model.RelationshipEdge{}, outgoing...), incoming...)
	for _, edge := range all {
		networkStats.ConnectionsByType[edge.RelationshipType]++

		partner := edge.TargetEntityID
		if partner == entityID {
			partner = edge.SourceEntityID
		}
		partnerCounts[partner]++

		for _, technology := range edge.TechnologyNames {
			technologies[technology] = true
		}
		for _, area := range edge.TherapeuticAreas {
			therapeuticAreas[area] = true
		}
		timeline[edge.FirstSeenAt.Format(monthLayout)]++
	}

	// Every relationship is stored as a forward and a reverse edge, and the
	// outgoing set alone covers all of them, so monetary values are summed
	// over outgoing edges only to count each deal once.
	for _, edge := range outgoing {
		if edge.MonetaryValue != nil {
			monetaryTotal += *edge.MonetaryValue
			monetaryCount++
		}
	}

	networkStats.TotalMonetaryValue = monetaryTotal
	if monetaryCount > 0 {
		networkStats.AvgMonetaryValue = monetaryTotal / float64(monetaryCount)
	}
	networkStats.TechnologyPortfolio = sortedKeys(technologies)
	networkStats.TherapeuticAreas = sortedKeys(therapeuticAreas)
	networkStats.TopPartners = a.topPartners(partnerCounts)
	networkStats.Timeline = bucketTimeline(timeline)

	return networkStats
}

// topPartners resolves partner names and returns the ten most connected
// partners ordered by descending edge count.
func (a *Aggregator) topPartners(partnerCounts map[uuid.UUID]int) []model.PartnerCount {
	partners := make([]model.PartnerCount, 0, len(partnerCounts))
	for partnerID, count := range partnerCounts {
		partner := model.PartnerCount{EntityID: partnerID, EdgeCount: count}
		entity, err := a.entities.SelectEntity(partnerID)
		if err != nil {
			a.logger.Warn("Partner entity lookup failed",
				slog.String("entityId", partnerID.String()),
				slog.Any("error", err))
		} else {
			partner.EntityName = entity.CanonicalName
		}
		partners = append(partners, partner)
	}

	sort.Slice(partners, func(i, j int) bool {
		if partners[i].EdgeCount != partners[j].EdgeCount {
			return partners[i].EdgeCount > partners[j].EdgeCount
		}
		return partners[i].EntityName < partners[j].EntityName
	})
	if len(partners) > 10 {
		partners = partners[:10]
	}
	return partners
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func bucketTimeline(counts map[string]int) []model.TimelineBucket {
	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Strings(months)

	buckets := make([]model.TimelineBucket, 0, len(months))
	for _, month := range months {
		buckets = append(buckets, model.TimelineBucket{Month: month, Count: counts[month]})
	}
	return buckets
}
