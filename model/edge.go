package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is the closed vocabulary of business relationships the
// extractor is allowed to emit.
type RelationshipType string

const (
	RelationshipPartnership RelationshipType = "PARTNERSHIP"
	RelationshipCompetitor  RelationshipType = "COMPETITOR"
	RelationshipRegulatory  RelationshipType = "REGULATORY"
	RelationshipAcquisition RelationshipType = "ACQUISITION"
	RelationshipLicensing   RelationshipType = "LICENSING"
	RelationshipNone        RelationshipType = "NONE"
)

// ValidRelationshipType reports whether t is part of the closed vocabulary
// of storable relationship types. NONE is valid extractor output but is
// never stored.
func ValidRelationshipType(t RelationshipType) bool {
	switch t {
	case RelationshipPartnership, RelationshipCompetitor, RelationshipRegulatory,
		RelationshipAcquisition, RelationshipLicensing:
		return true
	}
	return false
}

// RelationshipEdge is one directed, typed connection between two canonical
// entities. At most one edge exists per (source, target, type) triple;
// repeat detections merge into the existing row. Every stored relationship
// produces two edges, forward and reverse, each independently mergeable.
type RelationshipEdge struct {
	ID               uuid.UUID        `json:"edge_id"`
	SourceEntityID   uuid.UUID        `json:"source_entity_id"`
	TargetEntityID   uuid.UUID        `json:"target_entity_id"`
	RelationshipType RelationshipType `json:"relationship_type"`
	EdgeLabel        string           `json:"edge_label"`
	ReverseEdgeLabel string           `json:"reverse_edge_label"`
	DetailedSummary  string           `json:"detailed_summary"`
	DealTerms        string           `json:"deal_terms,omitempty"`
	MonetaryValue    *float64         `json:"monetary_value,omitempty"`
	TechnologyNames  []string         `json:"technology_names"`
	ProductNames     []string         `json:"product_names"`
	TherapeuticAreas []string         `json:"therapeutic_areas"`
	EventDate        *time.Time       `json:"event_date,omitempty"`
	SECFilingRef     string           `json:"sec_filing_ref,omitempty"`
	MentionCount     int              `json:"mention_count"`
	FirstSeenAt      time.Time        `json:"first_seen_at"`
	LastUpdatedAt    time.Time        `json:"last_updated_at"`
}
