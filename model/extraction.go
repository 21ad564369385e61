package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RelationshipRecord is one directed edge as emitted by the relationship
// completion capability, before target resolution. Only the target name is
// known at this point; resolving it to an entity ID is deferred to the graph
// store.
type RelationshipRecord struct {
	SourceEntityID   uuid.UUID        `json:"-"`
	SourceEntityName string           `json:"source_entity_name"`
	TargetEntityName string           `json:"target_entity_name"`
	RelationshipType RelationshipType `json:"relationship_type"`
	EdgeLabel        string           `json:"edge_label"`
	ReverseEdgeLabel string           `json:"reverse_edge_label"`
	DetailedSummary  string           `json:"detailed_summary"`
	DealTerms        string           `json:"deal_terms,omitempty"`
	MonetaryValue    *float64         `json:"monetary_value,omitempty"`
	TechnologyNames  []string         `json:"technology_names,omitempty"`
	ProductNames     []string         `json:"product_names,omitempty"`
	TherapeuticAreas []string         `json:"therapeutic_areas,omitempty"`
	EventDate        string           `json:"event_date,omitempty"`
}

// Validate rejects records missing required identity fields at the parse
// boundary. NONE records are valid but carry no storable relationship.
func (r *RelationshipRecord) Validate() error {
	if strings.TrimSpace(r.SourceEntityName) == "" {
		return fmt.Errorf("relationship record missing source_entity_name")
	}
	if strings.TrimSpace(r.TargetEntityName) == "" {
		return fmt.Errorf("relationship record missing target_entity_name")
	}
	if r.RelationshipType == "" {
		return fmt.Errorf("relationship record missing relationship_type")
	}
	if r.RelationshipType != RelationshipNone && !ValidRelationshipType(r.RelationshipType) {
		return fmt.Errorf("relationship record has unknown relationship_type %q", r.RelationshipType)
	}
	return nil
}

// Storable reports whether the record describes a relationship worth
// persisting.
func (r *RelationshipRecord) Storable() bool {
	return ValidRelationshipType(r.RelationshipType)
}
