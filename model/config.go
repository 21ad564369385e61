package model

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// PipelineConfig carries all tunable parameters of the extraction pipeline.
// The thresholds are empirically chosen; they are configuration, not
// constants, and should not be assumed optimal.
type PipelineConfig struct {
	// NER ensemble
	SectionChunkSize    int     `env:"KG_SECTION_CHUNK_SIZE" env-default:"2000"`
	SectionChunkOverlap int     `env:"KG_SECTION_CHUNK_OVERLAP" env-default:"200"`
	ConfidenceThreshold float64 `env:"KG_NER_CONFIDENCE_THRESHOLD" env-default:"0.7"`

	// Entity resolution
	SimilarityThreshold float64 `env:"KG_SIMILARITY_THRESHOLD" env-default:"0.85"`

	// Relationship extraction
	ContextWindow     int           `env:"KG_CONTEXT_WINDOW" env-default:"1500"`
	MaxWorkers        int           `env:"KG_MAX_WORKERS" env-default:"30"`
	ExtractionTimeout time.Duration `env:"KG_EXTRACTION_TIMEOUT" env-default:"60s"`

	// Batch orchestration
	MaxDocumentBytes int `env:"KG_MAX_DOCUMENT_BYTES" env-default:"10485760"`
	FailureThreshold int `env:"KG_FAILURE_THRESHOLD" env-default:"3"`
}

// DefaultPipelineConfig returns the config with all defaults applied.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		SectionChunkSize:    2000,
		SectionChunkOverlap: 200,
		ConfidenceThreshold: 0.7,
		SimilarityThreshold: 0.85,
		ContextWindow:       1500,
		MaxWorkers:          30,
		ExtractionTimeout:   60 * time.Second,
		MaxDocumentBytes:    10 << 20,
		FailureThreshold:    3,
	}
}

// NewPipelineConfigFromEnv reads the pipeline configuration from the
// environment, falling back to defaults for unset variables.
func NewPipelineConfigFromEnv() (*PipelineConfig, error) {
	config := &PipelineConfig{}
	err := cleanenv.ReadEnv(config)
	if err != nil {
		return nil, err
	}
	return config, nil
}
