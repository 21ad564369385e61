package model

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionMethod records how a name variant was bound to its canonical
// entity.
type ResolutionMethod string

const (
	ResolutionExactMatch  ResolutionMethod = "exact_match"
	ResolutionFuzzyMatch  ResolutionMethod = "fuzzy_match"
	ResolutionNewEntity   ResolutionMethod = "new_entity"
	ResolutionAutoCreated ResolutionMethod = "auto_created"
)

// NameVariant is one row of the name-resolution registry. Many variants map
// to one canonical entity; this is the only table allowed to grow without
// bound with mention volume.
type NameVariant struct {
	ID                   int64            `json:"id"`
	EntityName           string           `json:"entity_name"`
	EntityNameNormalized string           `json:"entity_name_normalized"`
	CanonicalEntityID    uuid.UUID        `json:"canonical_entity_id"`
	EntityType           EntityType       `json:"entity_type"`
	ResolutionMethod     ResolutionMethod `json:"resolution_method"`
	Confidence           float64          `json:"confidence"`
	OccurrenceCount      int              `json:"occurrence_count"`
	CreatedAt            time.Time        `json:"created_at"`
	LastSeenAt           time.Time        `json:"last_seen_at"`
}
