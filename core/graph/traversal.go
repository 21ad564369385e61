// Package graph offers read-side traversal over the stored entity network
// for downstream analytics. Since every relationship is persisted as a
// forward and a reverse edge, following outgoing edges alone already covers
// the full undirected neighborhood of an entity.
package graph

import (
	"context"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// GraphDB defines the interface for graph operations
type GraphDB interface {
	GetEntity(ctx context.Context, id uuid.UUID) (*model.CanonicalEntity, error)
	GetEdgesFromEntity(ctx context.Context, entityID uuid.UUID, relationshipTypes []model.RelationshipType) ([]*model.RelationshipEdge, error)
}

// TraversalResult contains an entity and its distance from the source
type TraversalResult struct {
	Entity   *model.CanonicalEntity
	Distance int
	Path     []uuid.UUID // Path from source to this entity
}

// BFS performs breadth-first search from a source entity
func BFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, relationshipTypes []model.RelationshipType) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []TraversalResult{{
		Entity:   sourceEntity,
		Distance: 0,
		Path:     []uuid.UUID{sourceID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		edges, err := db.GetEdgesFromEntity(ctx, current.Entity.ID, relationshipTypes)
		if err != nil {
			return nil, err
		}

		for _, edge := range edges {
			targetID := edge.TargetEntityID
			if visited[targetID] {
				continue
			}

			targetEntity, err := db.GetEntity(ctx, targetID)
			if err != nil {
				continue // Skip if entity not found
			}

			visited[targetID] = true

			newPath := make([]uuid.UUID, len(current.Path))
			copy(newPath, current.Path)
			newPath = append(newPath, targetID)

			queue = append(queue, TraversalResult{
				Entity:   targetEntity,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source entity
func DFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, relationshipTypes []model.RelationshipType) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	visited := make(map[uuid.UUID]bool)
	var results []*TraversalResult
	dfsRecursive(ctx, db, sourceEntity, 0, maxHops, []uuid.UUID{sourceID}, relationshipTypes, visited, &results)

	return results, nil
}

// dfsRecursive is the recursive helper for DFS
func dfsRecursive(
	ctx context.Context,
	db GraphDB,
	current *model.CanonicalEntity,
	distance int,
	maxHops int,
	path []uuid.UUID,
	relationshipTypes []model.RelationshipType,
	visited map[uuid.UUID]bool,
	results *[]*TraversalResult,
) {
	visited[current.ID] = true

	pathCopy := make([]uuid.UUID, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Entity:   current,
		Distance: distance,
		Path:     pathCopy,
	})

	if distance >= maxHops {
		return
	}

	edges, err := db.GetEdgesFromEntity(ctx, current.ID, relationshipTypes)
	if err != nil {
		return
	}

	for _, edge := range edges {
		targetID := edge.TargetEntityID
		if visited[targetID] {
			continue
		}

		targetEntity, err := db.GetEntity(ctx, targetID)
		if err != nil {
			continue // Skip if entity not found
		}

		newPath := make([]uuid.UUID, len(path))
		copy(newPath, path)
		newPath = append(newPath, targetID)

		dfsRecursive(ctx, db, targetEntity, distance+1, maxHops, newPath, relationshipTypes, visited, results)
	}
}

// GetNeighbors retrieves immediate partners (1-hop) of an entity
func GetNeighbors(ctx context.Context, db GraphDB, entityID uuid.UUID, relationshipTypes []model.RelationshipType) ([]*model.CanonicalEntity, error) {
	results, err := BFS(ctx, db, entityID, 1, relationshipTypes)
	if err != nil {
		return nil, err
	}

	// Skip the source entity itself (first result)
	neighbors := make([]*model.CanonicalEntity, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		neighbors = append(neighbors, results[i].Entity)
	}

	return neighbors, nil
}
