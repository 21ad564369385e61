package model

import (
	"time"

	"github.com/google/uuid"
)

// PartnerCount is one entry of the top-partners list.
type PartnerCount struct {
	EntityID   uuid.UUID `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	EdgeCount  int       `json:"edge_count"`
}

// TimelineBucket counts new relationships first seen within one month.
type TimelineBucket struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// EntityNetworkStats is the derived, rebuildable per-entity view over the
// edge table. It is a cache: marked needs_recalculation, recomputed in
// batch, never hand-edited, and always rebuildable from edges alone.
type EntityNetworkStats struct {
	EntityID            uuid.UUID                `json:"entity_id"`
	TotalConnections    int                      `json:"total_connections"`
	OutgoingConnections int                      `json:"outgoing_connections"`
	IncomingConnections int                      `json:"incoming_connections"`
	ConnectionsByType   map[RelationshipType]int `json:"connections_by_type"`
	TopPartners         []PartnerCount           `json:"top_partners"`
	TechnologyPortfolio []string                 `json:"technology_portfolio"`
	TherapeuticAreas    []string                 `json:"therapeutic_areas"`
	TotalMonetaryValue  float64                  `json:"total_monetary_value"`
	AvgMonetaryValue    float64                  `json:"avg_monetary_value"`
	DegreeCentrality    float64                  `json:"degree_centrality"`
	Timeline            []TimelineBucket         `json:"timeline"`
	NeedsRecalculation  bool                     `json:"needs_recalculation"`
	CalculatedAt        time.Time                `json:"calculated_at"`
}
