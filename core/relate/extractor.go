package relate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// ResolvedMention pairs one canonical entity with the place its mention was
// detected, so a context window can be cut around it.
type ResolvedMention struct {
	Entity      *model.CanonicalEntity
	SectionName string
	CharStart   int
	CharEnd     int
}

// Extractor fans out one completion request per resolved entity and parses
// the responses into relationship records.
type Extractor struct {
	complete CompleteFunc
	parser   *Parser
	config   *model.PipelineConfig
	logger   *slog.Logger
}

// NewExtractor creates a relationship extractor over the given completion
// capability.
func NewExtractor(complete CompleteFunc, config *model.PipelineConfig, logger *slog.Logger) (*Extractor, error) {
	if complete == nil {
		return nil, fmt.Errorf("extractor needs a completion function")
	}
	if config == nil {
		config = model.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		complete: complete,
		parser:   NewParser(),
		config:   config,
		logger:   logger,
	}, nil
}

type extractionResult struct {
	records  []model.RelationshipRecord
	failures int
}

// ExtractRelationships issues one independent request per resolved entity
// over a semaphore-bounded worker pool and collects results in completion
// order. Repeat mentions of the same entity collapse to the first one, so
// an entity mentioned many times in a filing costs one request and its
// edges merge once per filing, not once per occurrence. A failed or
// unparseable extraction drops that one entity's relationships and is
// counted, never fatal to the filing. NONE records and records missing
// required identity fields are filtered out.
func (e *Extractor) ExtractRelationships(ctx context.Context, mentions []ResolvedMention, sections map[string]string) ([]model.RelationshipRecord, int, error) {
	unique := dedupeByEntity(mentions)
	if len(unique) == 0 {
		return nil, 0, nil
	}

	maxWorkers := e.config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	sem := make(chan struct{}, maxWorkers)
	results := make(chan extractionResult, len(unique))

	for _, mention := range unique {
		go func(mention ResolvedMention) {
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- e.extractOne(ctx, mention, sections[mention.SectionName])
		}(mention)
	}

	var records []model.RelationshipRecord
	failures := 0
	for range unique {
		result := <-results
		records = append(records, result.records...)
		failures += result.failures
	}

	return records, failures, nil
}

// dedupeByEntity keeps the first mention of every entity, preserving order.
func dedupeByEntity(mentions []ResolvedMention) []ResolvedMention {
	unique := make([]ResolvedMention, 0, len(mentions))
	seen := map[uuid.UUID]bool{}
	for _, mention := range mentions {
		if mention.Entity == nil || seen[mention.Entity.ID] {
			continue
		}
		seen[mention.Entity.ID] = true
		unique = append(unique, mention)
	}
	return unique
}

// extractOne runs a single entity's extraction with a per-call timeout.
// There is no cancellation of sibling requests; a timeout fails only this
// one entity.
func (e *Extractor) extractOne(ctx context.Context, mention ResolvedMention, sectionText string) extractionResult {
	if sectionText == "" {
		return extractionResult{}
	}

	window := ContextWindow(sectionText, mention.CharStart, mention.CharEnd, e.config.ContextWindow)
	prompt := BuildPrompt(mention.Entity, mention.SectionName, window)

	callCtx, cancel := context.WithTimeout(ctx, e.config.ExtractionTimeout)
	defer cancel()

	raw, err := e.complete(callCtx, prompt)
	if err != nil {
		e.logger.Warn("Relationship extraction call failed",
			slog.String("entity", mention.Entity.CanonicalName),
			slog.Any("error", err))
		return extractionResult{failures: 1}
	}

	parsed, dropped, err := e.parser.Parse(raw)
	if err != nil {
		e.logger.Warn("Relationship extraction response unparseable, dropping",
			slog.String("entity", mention.Entity.CanonicalName),
			slog.Any("error", err))
		return extractionResult{failures: 1}
	}

	var storable []model.RelationshipRecord
	for _, record := range parsed {
		if !record.Storable() {
			continue
		}
		record.SourceEntityID = mention.Entity.ID
		if record.SourceEntityName == "" {
			record.SourceEntityName = mention.Entity.CanonicalName
		}
		storable = append(storable, record)
	}

	return extractionResult{records: storable, failures: dropped}
}
