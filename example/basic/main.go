package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	entitygraph "github.com/amiralpert/SmartReach-sub000"
	"github.com/amiralpert/SmartReach-sub000/core/pipeline"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/joho/godotenv"
)

const sampleSection = `GRAIL develops the Galleri multi-cancer early detection
test and relies on next-generation sequencing platforms supplied by Illumina
under a long-term supply agreement.`

// stubModel stands in for a real NER model so the example runs without
// model downloads. Swap in pipeline.DefaultEntityExtractor for real
// extraction.
func stubModel() pipeline.ModelSpec {
	names := []string{"GRAIL", "Illumina"}
	return pipeline.ModelSpec{
		ID:                  "stub",
		Domain:              pipeline.ModelDomainGeneral,
		ConfidenceThreshold: 0.5,
		Extract: func(text string) ([]model.Mention, error) {
			mentions := []model.Mention{}
			for _, name := range names {
				index := strings.Index(text, name)
				if index < 0 {
					continue
				}
				mentions = append(mentions, model.Mention{
					Text:       name,
					Label:      "ORG",
					CharStart:  index,
					CharEnd:    index + len(name),
					Confidence: 0.95,
				})
			}
			return mentions, nil
		},
	}
}

// stubCompleter answers every relationship prompt with one partnership.
// Swap in relate.DefaultCompleter to use a real LLM endpoint.
func stubCompleter(ctx context.Context, prompt string) (string, error) {
	if !strings.Contains(prompt, "Entity: GRAIL") {
		return "[]", nil
	}
	return `[{
		"source_entity_name": "GRAIL",
		"target_entity_name": "Illumina",
		"relationship_type": "PARTNERSHIP",
		"edge_label": "partnered with",
		"reverse_edge_label": "partnered with",
		"detailed_summary": "Long-term sequencing supply agreement.",
		"technology_names": ["Galleri"]
	}]`, nil
}

// sectionProvider serves the sample section for every filing.
type sectionProvider struct{}

func (p *sectionProvider) GetSections(ctx context.Context, filing *model.Filing) (map[string]string, error) {
	return map[string]string{"business": sampleSection}, nil
}

func main() {
	// Optional .env with KG_* overrides for the pipeline configuration
	_ = godotenv.Load()

	pipelineConfig, err := model.NewPipelineConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to read pipeline configuration: %v", err)
	}

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	graph, err := entitygraph.NewEntityGraph(dbConfig, pipelineConfig, []pipeline.ModelSpec{stubModel()}, stubCompleter)
	if err != nil {
		log.Fatalf("Failed to create entity graph: %v", err)
	}
	defer graph.Close()

	// Queue one filing
	filing := &model.Filing{
		AccessionNumber: "0001699031-24-000015",
		CompanyDomain:   "grail.com",
		FilingType:      "10-K",
	}
	if err := graph.Filings.InsertFiling(filing); err != nil {
		log.Fatalf("Failed to insert filing: %v", err)
	}

	// Run the batch: sections, NER, resolution, relationships, storage
	summary, err := graph.RunBatch(context.Background(), &sectionProvider{}, 10, true)
	if err != nil {
		log.Fatalf("Failed to run batch: %v", err)
	}
	fmt.Printf("Processed %d filing(s): %d entities, %d relationships\n",
		summary.Processed, summary.TotalEntities, summary.TotalRelationships)

	// Recompute network statistics for the touched entities
	recalculated, err := graph.RecalculateStats(100)
	if err != nil {
		log.Fatalf("Failed to recalculate stats: %v", err)
	}
	fmt.Printf("Recalculated stats for %d entities\n", recalculated)

	grail, err := graph.Entities.SelectEntityByCanonicalName("GRAIL", model.EntityTypeCompany)
	if err != nil {
		log.Fatalf("Failed to look up entity: %v", err)
	}

	stats, err := graph.Stats.SelectNetworkStats(grail.ID)
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}
	fmt.Printf("%s: %d connections, portfolio %v\n",
		grail.CanonicalName, stats.TotalConnections, stats.TechnologyPortfolio)

	// Walk the 1-hop neighborhood
	neighbors, err := graph.Engine.RankedNeighbors(context.Background(), grail.ID)
	if err != nil {
		log.Fatalf("Failed to query neighbors: %v", err)
	}
	for _, neighbor := range neighbors {
		fmt.Printf("  partner: %s (%d mentions)\n",
			neighbor.Entity.CanonicalName, neighbor.MentionCount)
	}
}
