package model

import (
	"time"

	"github.com/google/uuid"
)

// Filing is one row of the unprocessed-filings queue, tying all extracted
// records back to their source document via the accession number.
type Filing struct {
	ID              uuid.UUID  `json:"filing_id"`
	AccessionNumber string     `json:"accession_number"`
	CompanyDomain   string     `json:"company_domain"`
	FilingType      string     `json:"filing_type"` // e.g. 10-K, 8-K, S-1
	FilingDate      *time.Time `json:"filing_date,omitempty"`
	Processed       bool       `json:"processed"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	Metadata        Metadata   `json:"metadata,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Section is one named text section of a filing.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}
