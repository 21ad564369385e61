package graph

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/model"
)

// Engine provides graph queries over the database handlers. It implements
// GraphDB, so the traversal functions can run directly against storage.
type Engine struct {
	entities database.EntitiesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
	stats    database.StatsDBHandlerFunctions
}

// NewEngine creates a new graph query engine
func NewEngine(entities database.EntitiesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, stats database.StatsDBHandlerFunctions) *Engine {
	return &Engine{
		entities: entities,
		edges:    edges,
		stats:    stats,
	}
}

// GetEntity retrieves one canonical entity by ID
func (e *Engine) GetEntity(ctx context.Context, id uuid.UUID) (*model.CanonicalEntity, error) {
	return e.entities.SelectEntity(id)
}

// GetEdgesFromEntity retrieves the outgoing edges of an entity, optionally
// filtered to the given relationship types.
func (e *Engine) GetEdgesFromEntity(ctx context.Context, entityID uuid.UUID, relationshipTypes []model.RelationshipType) ([]*model.RelationshipEdge, error) {
	if len(relationshipTypes) == 1 {
		return e.edges.SelectEdgesFromEntity(entityID, &relationshipTypes[0])
	}

	allEdges, err := e.edges.SelectEdgesFromEntity(entityID, nil)
	if err != nil {
		return nil, err
	}
	if len(relationshipTypes) == 0 {
		return allEdges, nil
	}

	var edges []*model.RelationshipEdge
	for _, edge := range allEdges {
		for _, relationshipType := range relationshipTypes {
			if edge.RelationshipType == relationshipType {
				edges = append(edges, edge)
				break
			}
		}
	}
	return edges, nil
}

// Neighborhood returns the entities reachable from the source within
// maxHops, with their distance and path.
func (e *Engine) Neighborhood(ctx context.Context, entityID uuid.UUID, maxHops int, relationshipTypes []model.RelationshipType) ([]*TraversalResult, error) {
	return BFS(ctx, e, entityID, maxHops, relationshipTypes)
}

// RankedNeighbor is one directly connected entity together with the
// strength of the connection.
type RankedNeighbor struct {
	Entity       *model.CanonicalEntity
	MentionCount int
}

// RankedNeighbors returns the 1-hop partners of an entity ordered by how
// often the connecting relationships were detected.
func (e *Engine) RankedNeighbors(ctx context.Context, entityID uuid.UUID) ([]*RankedNeighbor, error) {
	edges, err := e.GetEdgesFromEntity(ctx, entityID, nil)
	if err != nil {
		return nil, err
	}

	mentionsByPartner := map[uuid.UUID]int{}
	for _, edge := range edges {
		mentionsByPartner[edge.TargetEntityID] += edge.MentionCount
	}

	neighbors := make([]*RankedNeighbor, 0, len(mentionsByPartner))
	for partnerID, mentions := range mentionsByPartner {
		partner, err := e.entities.SelectEntity(partnerID)
		if err != nil {
			continue // Skip if entity not found
		}
		neighbors = append(neighbors, &RankedNeighbor{
			Entity:       partner,
			MentionCount: mentions,
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].MentionCount != neighbors[j].MentionCount {
			return neighbors[i].MentionCount > neighbors[j].MentionCount
		}
		return neighbors[i].Entity.CanonicalName < neighbors[j].Entity.CanonicalName
	})
	return neighbors, nil
}

// NetworkProfile returns the precomputed network statistics of an entity.
func (e *Engine) NetworkProfile(ctx context.Context, entityID uuid.UUID) (*model.EntityNetworkStats, error) {
	return e.stats.SelectNetworkStats(entityID)
}
