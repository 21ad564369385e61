package model

import "time"

// FilingStatus is the machine-readable outcome of one filing's run.
type FilingStatus string

const (
	FilingStatusSuccess        FilingStatus = "success"
	FilingStatusFailed         FilingStatus = "failed"
	FilingStatusSkipped        FilingStatus = "skipped"
	FilingStatusCircuitBreaker FilingStatus = "circuit_breaker"
)

// FilingResult is the per-filing entry of a batch summary.
type FilingResult struct {
	AccessionNumber   string        `json:"accession_number"`
	Status            FilingStatus  `json:"status"`
	Error             string        `json:"error,omitempty"`
	EntityCount       int           `json:"entity_count"`
	RelationshipCount int           `json:"relationship_count"`
	ParseFailures     int           `json:"parse_failures"`
	Elapsed           time.Duration `json:"elapsed"`
}

// BatchSummary is returned by the batch orchestrator. Failures are never
// silent: dropped or unresolved items are counted even when discarded.
type BatchSummary struct {
	Requested          int            `json:"requested"`
	Processed          int            `json:"processed"`
	Successful         int            `json:"successful"`
	Failed             int            `json:"failed"`
	TotalEntities      int            `json:"total_entities"`
	TotalRelationships int            `json:"total_relationships"`
	CircuitBroken      bool           `json:"circuit_broken"`
	Message            string         `json:"message,omitempty"`
	PerFiling          []FilingResult `json:"per_filing"`
	Elapsed            time.Duration  `json:"elapsed"`
}
