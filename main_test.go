package entitygraph

import (
	"context"
	"log"
	"strings"
	"testing"

	"github.com/amiralpert/SmartReach-sub000/core/pipeline"
	"github.com/amiralpert/SmartReach-sub000/core/relate"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

// stubNERModel detects every occurrence of the given names as ORG spans.
func stubNERModel(names ...string) pipeline.ModelSpec {
	return pipeline.ModelSpec{
		ID:                  "stub-ner",
		Domain:              pipeline.ModelDomainGeneral,
		ConfidenceThreshold: 0.5,
		Extract: func(text string) ([]model.Mention, error) {
			mentions := []model.Mention{}
			for _, name := range names {
				offset := 0
				for {
					index := strings.Index(text[offset:], name)
					if index < 0 {
						break
					}
					start := offset + index
					mentions = append(mentions, model.Mention{
						Text:       name,
						Label:      "ORG",
						CharStart:  start,
						CharEnd:    start + len(name),
						Confidence: 0.95,
					})
					offset = start + len(name)
				}
			}
			return mentions, nil
		},
	}
}

// mapSectionProvider serves canned sections keyed by accession number.
type mapSectionProvider struct {
	sections map[string]map[string]string
}

func (p *mapSectionProvider) GetSections(ctx context.Context, filing *model.Filing) (map[string]string, error) {
	return p.sections[filing.AccessionNumber], nil
}

func initEntityGraph(t *testing.T, models []pipeline.ModelSpec, complete relate.CompleteFunc) *EntityGraph {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	graph, err := NewEntityGraph(dbConfig, model.DefaultPipelineConfig(), models, complete)
	require.NoError(t, err, "failed to create entity graph")
	t.Cleanup(func() { graph.Close() })

	return graph
}

func insertTestFiling(t *testing.T, graph *EntityGraph, accessionNumber string) *model.Filing {
	t.Helper()

	filing := &model.Filing{
		AccessionNumber: accessionNumber,
		CompanyDomain:   "grail.com",
		FilingType:      "10-K",
	}
	err := graph.Filings.InsertFiling(filing)
	require.NoError(t, err)
	t.Cleanup(func() { graph.Filings.DeleteFiling(accessionNumber) })

	return filing
}
