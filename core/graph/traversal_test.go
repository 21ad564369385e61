package graph

import (
	"context"
	"testing"

	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGraphDB is a mock implementation of GraphDB for testing
type MockGraphDB struct {
	entities map[uuid.UUID]*model.CanonicalEntity
	edges    map[uuid.UUID][]*model.RelationshipEdge
}

func NewMockGraphDB() *MockGraphDB {
	return &MockGraphDB{
		entities: make(map[uuid.UUID]*model.CanonicalEntity),
		edges:    make(map[uuid.UUID][]*model.RelationshipEdge),
	}
}

func (m *MockGraphDB) GetEntity(ctx context.Context, id uuid.UUID) (*model.CanonicalEntity, error) {
	entity, ok := m.entities[id]
	if !ok {
		return nil, assert.AnError
	}
	return entity, nil
}

func (m *MockGraphDB) GetEdgesFromEntity(ctx context.Context, entityID uuid.UUID, relationshipTypes []model.RelationshipType) ([]*model.RelationshipEdge, error) {
	edges, ok := m.edges[entityID]
	if !ok {
		return []*model.RelationshipEdge{}, nil
	}
	if len(relationshipTypes) == 0 {
		return edges, nil
	}

	var filtered []*model.RelationshipEdge
	for _, edge := range edges {
		for _, relationshipType := range relationshipTypes {
			if edge.RelationshipType == relationshipType {
				filtered = append(filtered, edge)
				break
			}
		}
	}
	return filtered, nil
}

func (m *MockGraphDB) addEntity(name string) *model.CanonicalEntity {
	entity := &model.CanonicalEntity{
		ID:            uuid.New(),
		CanonicalName: name,
		EntityType:    model.EntityTypeCompany,
	}
	m.entities[entity.ID] = entity
	return entity
}

func (m *MockGraphDB) addEdge(source *model.CanonicalEntity, target *model.CanonicalEntity, relationshipType model.RelationshipType) {
	m.edges[source.ID] = append(m.edges[source.ID], &model.RelationshipEdge{
		SourceEntityID:   source.ID,
		TargetEntityID:   target.ID,
		RelationshipType: relationshipType,
	})
}

// newTestNetwork builds: A -> B -> C, A -> D, with A-B a partnership and
// the rest competitor edges.
func newTestNetwork() (*MockGraphDB, *model.CanonicalEntity, *model.CanonicalEntity, *model.CanonicalEntity, *model.CanonicalEntity) {
	mockDB := NewMockGraphDB()
	a := mockDB.addEntity("Alpha Bio")
	b := mockDB.addEntity("Beta Dx")
	c := mockDB.addEntity("Gamma Labs")
	d := mockDB.addEntity("Delta Genomics")

	mockDB.addEdge(a, b, model.RelationshipPartnership)
	mockDB.addEdge(a, d, model.RelationshipCompetitor)
	mockDB.addEdge(b, c, model.RelationshipCompetitor)

	return mockDB, a, b, c, d
}

func TestBFS(t *testing.T) {
	mockDB, a, b, c, d := newTestNetwork()

	t.Run("BFS from source with max hops 1", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, a.ID, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 3, "Expected source plus both 1-hop partners")

		assert.Equal(t, a.ID, results[0].Entity.ID)
		assert.Equal(t, 0, results[0].Distance)
		for _, result := range results[1:] {
			assert.Equal(t, 1, result.Distance)
		}
	})

	t.Run("BFS with max hops 2 reaches the full network", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, a.ID, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 4)

		distances := map[uuid.UUID]int{}
		for _, result := range results {
			distances[result.Entity.ID] = result.Distance
		}
		assert.Equal(t, 0, distances[a.ID])
		assert.Equal(t, 1, distances[b.ID])
		assert.Equal(t, 1, distances[d.ID])
		assert.Equal(t, 2, distances[c.ID])
	})

	t.Run("BFS records the path to each entity", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, a.ID, 2, nil)
		require.NoError(t, err)

		for _, result := range results {
			if result.Entity.ID == c.ID {
				assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, result.Path)
			}
		}
	})

	t.Run("BFS with relationship type filter", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, a.ID, 2, []model.RelationshipType{model.RelationshipPartnership})
		require.NoError(t, err)
		require.Len(t, results, 2, "Expected only the partnership edge followed")
		assert.Equal(t, b.ID, results[1].Entity.ID)
	})

	t.Run("BFS handles cycles", func(t *testing.T) {
		mockDB.addEdge(c, a, model.RelationshipCompetitor)

		results, err := BFS(context.Background(), mockDB, a.ID, 10, nil)
		require.NoError(t, err)
		assert.Len(t, results, 4, "Expected every entity visited exactly once")
	})

	t.Run("BFS from unknown entity returns an error", func(t *testing.T) {
		_, err := BFS(context.Background(), mockDB, uuid.New(), 1, nil)
		assert.Error(t, err)
	})
}

func TestDFS(t *testing.T) {
	mockDB, a, _, c, _ := newTestNetwork()

	t.Run("DFS reaches the full network", func(t *testing.T) {
		results, err := DFS(context.Background(), mockDB, a.ID, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, a.ID, results[0].Entity.ID)
	})

	t.Run("DFS respects max hops", func(t *testing.T) {
		results, err := DFS(context.Background(), mockDB, a.ID, 1, nil)
		require.NoError(t, err)
		assert.Len(t, results, 3)
		for _, result := range results {
			assert.NotEqual(t, c.ID, result.Entity.ID, "Expected the 2-hop entity to stay unvisited")
		}
	})
}

func TestGetNeighbors(t *testing.T) {
	mockDB, a, b, _, d := newTestNetwork()

	t.Run("Neighbors exclude the source entity", func(t *testing.T) {
		neighbors, err := GetNeighbors(context.Background(), mockDB, a.ID, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 2)

		ids := []uuid.UUID{neighbors[0].ID, neighbors[1].ID}
		assert.ElementsMatch(t, []uuid.UUID{b.ID, d.ID}, ids)
	})

	t.Run("Neighbors with type filter", func(t *testing.T) {
		neighbors, err := GetNeighbors(context.Background(), mockDB, a.ID, []model.RelationshipType{model.RelationshipCompetitor})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, d.ID, neighbors[0].ID)
	})
}
