package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType classifies a canonical entity.
type EntityType string

const (
	EntityTypeCompany EntityType = "COMPANY"
	EntityTypePerson  EntityType = "PERSON"
	EntityTypeAgency  EntityType = "AGENCY"
	EntityTypeProduct EntityType = "PRODUCT"
	EntityTypeUnknown EntityType = "UNKNOWN"
)

// IsOrganization reports whether the type describes an organization-like
// entity. Only organization-like entities participate in fuzzy name matching.
func (t EntityType) IsOrganization() bool {
	return t == EntityTypeCompany || t == EntityTypeAgency
}

// Mention is a single NER model's detection of a span within a section.
// Mentions are ephemeral; they are consumed by the consensus merge.
type Mention struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Confidence float64 `json:"confidence"`
	ModelID    string  `json:"model_id"`
	SectionID  string  `json:"section_id"`
}

// MergedEntity is the output of the ensemble merge for one (section, span)
// group. When several models detect the same span, the highest-confidence
// detection wins and the full provenance is retained.
type MergedEntity struct {
	Text            string             `json:"text"`
	NormalizedType  EntityType         `json:"normalized_type"`
	Confidence      float64            `json:"confidence"`
	DetectingModels []string           `json:"detecting_models"`
	AllConfidences  map[string]float64 `json:"all_confidences"`
	IsMerged        bool               `json:"is_merged"`
	SectionName     string             `json:"section_name"`
	CharStart       int                `json:"char_start"`
	CharEnd         int                `json:"char_end"`
}

// CanonicalEntity is the durable identity for one real-world referent.
// AutoCreated marks entities materialized only because they appeared as an
// unresolved relationship target; they stay UNKNOWN until direct extraction
// enriches them.
type CanonicalEntity struct {
	ID            uuid.UUID  `json:"entity_id"`
	CanonicalName string     `json:"canonical_name"`
	EntityType    EntityType `json:"entity_type"`
	CompanyDomain string     `json:"company_domain,omitempty"`
	FirstSeenAt   time.Time  `json:"first_seen_at"`
	LastSeenAt    time.Time  `json:"last_seen_at"`
	MentionCount  int        `json:"mention_count"`
	AutoCreated   bool       `json:"auto_created"`
}
