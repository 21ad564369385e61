package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/amiralpert/SmartReach-sub000/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StatsDBHandlerFunctions defines the interface for network stats database operations.
type StatsDBHandlerFunctions interface {
	MarkStatsDirty(entityID uuid.UUID) error
	SelectEntitiesNeedingRecalculation(limit int) ([]uuid.UUID, error)
	UpsertNetworkStats(stats *model.EntityNetworkStats) error
	SelectNetworkStats(entityID uuid.UUID) (*model.EntityNetworkStats, error)
	DeleteNetworkStats(entityID uuid.UUID) error
}

// StatsDBHandler handles network stats database operations
type StatsDBHandler struct {
	db *helper.Database
}

// NewStatsDBHandler creates a new network stats database handler.
// It initializes the database connection and loads stats-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewStatsDBHandler(db *helper.Database, force bool) (*StatsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	statsDbHandler := &StatsDBHandler{
		db: db,
	}

	err := sql.LoadStatsSql(statsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load stats sql", err)
	}

	err = statsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized StatsDBHandler")

	return statsDbHandler, nil
}

// CreateTable creates the 'entity_network_stats' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *StatsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_network_stats();`)
	if err != nil {
		log.Panicf("error initializing entity_network_stats table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entity_network_stats")

	return nil
}

// MarkStatsDirty flags an entity for recalculation. Creates the stats row
// if the entity has none yet.
func (h *StatsDBHandler) MarkStatsDirty(entityID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT mark_stats_dirty($1)`,
		entityID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntitiesNeedingRecalculation retrieves entity IDs flagged for
// recalculation, oldest calculation first
func (h *StatsDBHandler) SelectEntitiesNeedingRecalculation(limit int) ([]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_needing_recalculation($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		err := rows.Scan(&id)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// UpsertNetworkStats stores freshly computed stats for an entity and clears
// its recalculation flag
func (h *StatsDBHandler) UpsertNetworkStats(stats *model.EntityNetworkStats) error {
	byType, err := json.Marshal(stats.ConnectionsByType)
	if err != nil {
		return helper.NewError("marshal connections by type", err)
	}
	topPartners, err := json.Marshal(stats.TopPartners)
	if err != nil {
		return helper.NewError("marshal top partners", err)
	}
	timeline, err := json.Marshal(stats.Timeline)
	if err != nil {
		return helper.NewError("marshal timeline", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_network_stats($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		stats.EntityID,
		stats.TotalConnections,
		stats.OutgoingConnections,
		stats.IncomingConnections,
		string(byType),
		string(topPartners),
		pq.Array(stats.TechnologyPortfolio),
		pq.Array(stats.TherapeuticAreas),
		stats.TotalMonetaryValue,
		stats.AvgMonetaryValue,
		stats.DegreeCentrality,
		string(timeline),
	)

	err = scanStats(row, stats)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNetworkStats retrieves the stats row of an entity
func (h *StatsDBHandler) SelectNetworkStats(entityID uuid.UUID) (*model.EntityNetworkStats, error) {
	stats := &model.EntityNetworkStats{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_network_stats($1)`,
		entityID,
	)

	err := scanStats(row, stats)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return stats, nil
}

// DeleteNetworkStats deletes the stats row of an entity
func (h *StatsDBHandler) DeleteNetworkStats(entityID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_network_stats($1)`,
		entityID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanStats(row rowScanner, stats *model.EntityNetworkStats) error {
	var byType, topPartners, timeline []byte

	err := row.Scan(
		&stats.EntityID,
		&stats.TotalConnections,
		&stats.OutgoingConnections,
		&stats.IncomingConnections,
		&byType,
		&topPartners,
		pq.Array(&stats.TechnologyPortfolio),
		pq.Array(&stats.TherapeuticAreas),
		&stats.TotalMonetaryValue,
		&stats.AvgMonetaryValue,
		&stats.DegreeCentrality,
		&timeline,
		&stats.NeedsRecalculation,
		&stats.CalculatedAt,
	)
	if err != nil {
		return err
	}

	err = json.Unmarshal(byType, &stats.ConnectionsByType)
	if err != nil {
		return fmt.Errorf("unmarshal connections by type: %w", err)
	}
	err = json.Unmarshal(topPartners, &stats.TopPartners)
	if err != nil {
		return fmt.Errorf("unmarshal top partners: %w", err)
	}
	err = json.Unmarshal(timeline, &stats.Timeline)
	if err != nil {
		return fmt.Errorf("unmarshal timeline: %w", err)
	}

	return nil
}
