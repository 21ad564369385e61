package entitygraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/amiralpert/SmartReach-sub000/core/relate"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
)

// RunBatch processes up to limit unprocessed filings through the full
// pipeline: sections, NER ensemble, entity resolution and, when
// enableRelationships is set and a completion function was configured,
// relationship extraction and graph storage.
//
// Each filing is isolated; one filing failing never aborts the others.
// The exception is the circuit breaker: after FailureThreshold consecutive
// storage failures the batch halts, on the assumption that the database is
// down rather than individual filings being bad input. Filings left
// unattempted when the breaker trips are reported with the circuit_breaker
// status. Failures outside the storage layer (unreachable section provider,
// oversized documents) never trip the breaker.
func (g *EntityGraph) RunBatch(ctx context.Context, provider SectionProvider, limit int, enableRelationships bool) (*model.BatchSummary, error) {
	if provider == nil {
		return nil, helper.NewError("run batch", fmt.Errorf("section provider is nil"))
	}

	started := time.Now()
	denylist := make([]string, 0, len(g.Denylist))
	for accessionNumber := range g.Denylist {
		denylist = append(denylist, accessionNumber)
	}
	filings, err := g.Filings.SelectUnprocessedFilings(limit, denylist)
	if err != nil {
		return nil, helper.NewError("select unprocessed filings", err)
	}

	summary := &model.BatchSummary{Requested: len(filings)}
	consecutiveStorageFailures := 0

	for index, filing := range filings {
		if consecutiveStorageFailures >= g.Config.FailureThreshold {
			summary.CircuitBroken = true
			summary.Message = fmt.Sprintf("circuit breaker tripped after %d consecutive storage failures", consecutiveStorageFailures)
			g.log.Error("Halting batch", slog.String("reason", summary.Message))
			for _, remaining := range filings[index:] {
				summary.PerFiling = append(summary.PerFiling, model.FilingResult{
					AccessionNumber: remaining.AccessionNumber,
					Status:          model.FilingStatusCircuitBreaker,
				})
			}
			break
		}

		// Covers accessions denied after the fetch.
		if g.Denylist[filing.AccessionNumber] {
			summary.PerFiling = append(summary.PerFiling, model.FilingResult{
				AccessionNumber: filing.AccessionNumber,
				Status:          model.FilingStatusSkipped,
			})
			continue
		}

		result, storageFailure := g.processFiling(ctx, provider, filing, enableRelationships)
		summary.PerFiling = append(summary.PerFiling, result)
		summary.Processed++

		if result.Status == model.FilingStatusSuccess {
			summary.Successful++
			summary.TotalEntities += result.EntityCount
			summary.TotalRelationships += result.RelationshipCount
			consecutiveStorageFailures = 0
		} else {
			summary.Failed++
			if storageFailure {
				consecutiveStorageFailures++
			} else {
				consecutiveStorageFailures = 0
			}
		}
	}

	summary.Elapsed = time.Since(started)
	g.log.Info("Batch finished",
		slog.Int("requested", summary.Requested),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Bool("circuitBroken", summary.CircuitBroken))
	return summary, nil
}

func (g *EntityGraph) processFiling(ctx context.Context, provider SectionProvider, filing *model.Filing, enableRelationships bool) (model.FilingResult, bool) {
	started := time.Now()
	result := model.FilingResult{
		AccessionNumber: filing.AccessionNumber,
		Status:          model.FilingStatusSuccess,
	}

	err := g.runFiling(ctx, provider, filing, enableRelationships, &result)
	if err == nil {
		if _, markErr := g.Filings.MarkFilingProcessed(filing.AccessionNumber); markErr != nil {
			err = fmt.Errorf("mark filing processed: %w", markErr)
		}
	}
	if err != nil {
		result.Status = model.FilingStatusFailed
		result.Error = err.Error()
		g.log.Warn("Filing failed",
			slog.String("accessionNumber", filing.AccessionNumber),
			slog.Any("error", err))
	}

	result.Elapsed = time.Since(started)
	return result, err != nil && isStorageError(err)
}

// isStorageError reports whether err originated in the database layer. Every
// database handler and the resolver wrap their failures in *helper.Error, and
// the wrapping survives further fmt.Errorf %w chains up the filing pipeline.
func isStorageError(err error) bool {
	var dbErr *helper.Error
	return errors.As(err, &dbErr)
}

func (g *EntityGraph) runFiling(ctx context.Context, provider SectionProvider, filing *model.Filing, enableRelationships bool, result *model.FilingResult) error {
	sections, err := provider.GetSections(ctx, filing)
	if err != nil {
		return fmt.Errorf("get sections: %w", err)
	}

	totalBytes := 0
	for _, text := range sections {
		totalBytes += len(text)
	}
	if totalBytes > g.Config.MaxDocumentBytes {
		return fmt.Errorf("document size %d exceeds limit %d", totalBytes, g.Config.MaxDocumentBytes)
	}

	// Deterministic section order keeps runs reproducible.
	sectionNames := make([]string, 0, len(sections))
	for name := range sections {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	mentions := []relate.ResolvedMention{}
	seenEntities := map[uuid.UUID]bool{}
	for _, sectionName := range sectionNames {
		merged, err := g.Ensemble.ExtractSection(sectionName, sections[sectionName])
		if err != nil {
			return fmt.Errorf("extract section %v: %w", sectionName, err)
		}

		for _, entity := range merged {
			resolved, err := g.Resolver.Resolve(entity.Text, entity.NormalizedType)
			if err != nil {
				return fmt.Errorf("resolve entity %v: %w", entity.Text, err)
			}
			seenEntities[resolved.ID] = true
			mentions = append(mentions, relate.ResolvedMention{
				Entity:      resolved,
				SectionName: entity.SectionName,
				CharStart:   entity.CharStart,
				CharEnd:     entity.CharEnd,
			})
		}
	}
	result.EntityCount = len(seenEntities)

	if !enableRelationships || g.Extractor == nil {
		return nil
	}

	records, parseFailures, err := g.Extractor.ExtractRelationships(ctx, mentions, sections)
	if err != nil {
		return fmt.Errorf("extract relationships: %w", err)
	}
	result.ParseFailures = parseFailures
	result.RelationshipCount = g.Store.StoreRelationships(filing.AccessionNumber, records)

	return nil
}
