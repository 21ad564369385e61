package graphstore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/core/resolver"
	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/model"
)

// Store persists extracted relationship records as dual directed edges.
// Target names are resolved (or auto-created as placeholders) on the way
// in, and both endpoint entities are flagged for stats recalculation.
type Store struct {
	resolver *resolver.Resolver
	edges    database.EdgesDBHandlerFunctions
	stats    database.StatsDBHandlerFunctions
	logger   *slog.Logger
}

// NewStore creates a graph store over the edge and stats handlers.
func NewStore(entityResolver *resolver.Resolver, edges database.EdgesDBHandlerFunctions, stats database.StatsDBHandlerFunctions, logger *slog.Logger) (*Store, error) {
	if entityResolver == nil {
		return nil, fmt.Errorf("graph store needs a resolver")
	}
	if edges == nil || stats == nil {
		return nil, fmt.Errorf("graph store needs edge and stats handlers")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		resolver: entityResolver,
		edges:    edges,
		stats:    stats,
		logger:   logger,
	}, nil
}

// StoreRelationships stores every record as a forward and a reverse edge.
// A record whose source or target cannot be resolved is logged and skipped
// without aborting the remaining records. Returns the number of records
// stored.
func (s *Store) StoreRelationships(filingRef string, records []model.RelationshipRecord) int {
	stored := 0
	for _, record := range records {
		err := s.storeOne(filingRef, record)
		if err != nil {
			s.logger.Warn("Skipping relationship record",
				slog.String("source", record.SourceEntityName),
				slog.String("target", record.TargetEntityName),
				slog.Any("error", err))
			continue
		}
		stored++
	}
	return stored
}

func (s *Store) storeOne(filingRef string, record model.RelationshipRecord) error {
	if record.SourceEntityID == uuid.Nil {
		return fmt.Errorf("record has no resolved source entity")
	}
	if !record.Storable() {
		return fmt.Errorf("relationship type %v is not storable", record.RelationshipType)
	}

	target, err := s.resolver.ResolveTarget(record.TargetEntityName)
	if err != nil {
		return fmt.Errorf("resolve target %v: %w", record.TargetEntityName, err)
	}

	eventDate := parseEventDate(record.EventDate)

	forward := &model.RelationshipEdge{
		SourceEntityID:   record.SourceEntityID,
		TargetEntityID:   target.ID,
		RelationshipType: record.RelationshipType,
		EdgeLabel:        record.EdgeLabel,
		ReverseEdgeLabel: record.ReverseEdgeLabel,
		DetailedSummary:  record.DetailedSummary,
		DealTerms:        record.DealTerms,
		MonetaryValue:    record.MonetaryValue,
		TechnologyNames:  record.TechnologyNames,
		ProductNames:     record.ProductNames,
		TherapeuticAreas: record.TherapeuticAreas,
		EventDate:        eventDate,
		SECFilingRef:     filingRef,
	}
	err = s.edges.UpsertRelationshipEdge(forward)
	if err != nil {
		return fmt.Errorf("upsert forward edge: %w", err)
	}

	reverse := &model.RelationshipEdge{
		SourceEntityID:   target.ID,
		TargetEntityID:   record.SourceEntityID,
		RelationshipType: record.RelationshipType,
		EdgeLabel:        record.ReverseEdgeLabel,
		ReverseEdgeLabel: record.EdgeLabel,
		DetailedSummary:  record.DetailedSummary,
		DealTerms:        record.DealTerms,
		MonetaryValue:    record.MonetaryValue,
		TechnologyNames:  record.TechnologyNames,
		ProductNames:     record.ProductNames,
		TherapeuticAreas: record.TherapeuticAreas,
		EventDate:        eventDate,
		SECFilingRef:     filingRef,
	}
	err = s.edges.UpsertRelationshipEdge(reverse)
	if err != nil {
		return fmt.Errorf("upsert reverse edge: %w", err)
	}

	// Stats of both endpoints are stale now.
	err = s.stats.MarkStatsDirty(record.SourceEntityID)
	if err != nil {
		return fmt.Errorf("mark source stats dirty: %w", err)
	}
	err = s.stats.MarkStatsDirty(target.ID)
	if err != nil {
		return fmt.Errorf("mark target stats dirty: %w", err)
	}

	return nil
}

// parseEventDate accepts the YYYY-MM-DD contract format. Anything else is
// treated as no date rather than failing the record.
func parseEventDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &parsed
}
