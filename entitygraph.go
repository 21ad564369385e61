package entitygraph

import (
	"context"
	"log/slog"
	"os"

	"github.com/amiralpert/SmartReach-sub000/core/graph"
	"github.com/amiralpert/SmartReach-sub000/core/graphstore"
	"github.com/amiralpert/SmartReach-sub000/core/pipeline"
	"github.com/amiralpert/SmartReach-sub000/core/relate"
	"github.com/amiralpert/SmartReach-sub000/core/resolver"
	netstats "github.com/amiralpert/SmartReach-sub000/core/stats"
	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	loadSql "github.com/amiralpert/SmartReach-sub000/sql"
)

// SectionProvider supplies the section texts of a filing. The library does
// not fetch or parse filings itself; callers plug in their own source
// (EDGAR client, local archive, test stub).
type SectionProvider interface {
	GetSections(ctx context.Context, filing *model.Filing) (map[string]string, error)
}

// EntityGraph provides a unified interface to the knowledge-graph pipeline
// and all database handlers.
type EntityGraph struct {
	DB       *helper.Database
	Entities *database.EntitiesDBHandler
	Variants *database.VariantsDBHandler
	Edges    *database.EdgesDBHandler
	Stats    *database.StatsDBHandler
	Filings  *database.FilingsDBHandler

	Ensemble   *pipeline.Ensemble
	Resolver   *resolver.Resolver
	Extractor  *relate.Extractor
	Store      *graphstore.Store
	Aggregator *netstats.Aggregator
	Engine     *graph.Engine

	Config *model.PipelineConfig
	// Denylist holds accession numbers of known-pathological filings that
	// are skipped before any extraction work.
	Denylist map[string]bool
	// Logging
	log *slog.Logger
}

// NewEntityGraph creates an EntityGraph with all handlers and pipeline
// stages initialized. The models slice configures the NER ensemble and
// complete is the LLM completion function for relationship extraction;
// pass a nil complete to run entity extraction only.
func NewEntityGraph(dbConfig *helper.DatabaseConfiguration, pipelineConfig *model.PipelineConfig, models []pipeline.ModelSpec, complete relate.CompleteFunc) (*EntityGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	if pipelineConfig == nil {
		pipelineConfig = model.DefaultPipelineConfig()
	}

	// Initialize database
	db := helper.NewDatabase("entitygraph", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in dependency order, entities first because the
	// variant, edge and stats tables reference canonical_entities.
	// force=false to not reload if functions already exist
	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	variants, err := database.NewVariantsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create variants handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	stats, err := database.NewStatsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create stats handler", err)
	}

	filings, err := database.NewFilingsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create filings handler", err)
	}

	ensemble, err := pipeline.NewEnsemble(models, pipelineConfig, logger)
	if err != nil {
		return nil, helper.NewError("create ensemble", err)
	}

	entityResolver, err := resolver.NewResolver(entities, variants, pipelineConfig, logger)
	if err != nil {
		return nil, helper.NewError("create resolver", err)
	}

	var extractor *relate.Extractor
	if complete != nil {
		extractor, err = relate.NewExtractor(complete, pipelineConfig, logger)
		if err != nil {
			return nil, helper.NewError("create relationship extractor", err)
		}
	}

	store, err := graphstore.NewStore(entityResolver, edges, stats, logger)
	if err != nil {
		return nil, helper.NewError("create graph store", err)
	}

	aggregator, err := netstats.NewAggregator(entities, edges, stats, logger)
	if err != nil {
		return nil, helper.NewError("create stats aggregator", err)
	}

	// Create graph query engine with database handlers
	engine := graph.NewEngine(entities, edges, stats)

	return &EntityGraph{
		DB:         db,
		Entities:   entities,
		Variants:   variants,
		Edges:      edges,
		Stats:      stats,
		Filings:    filings,
		Ensemble:   ensemble,
		Resolver:   entityResolver,
		Extractor:  extractor,
		Store:      store,
		Aggregator: aggregator,
		Engine:     engine,
		Config:     pipelineConfig,
		Denylist:   map[string]bool{},
		log:        logger,
	}, nil
}

// Close closes the database connection
func (g *EntityGraph) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// DenyAccession adds an accession number to the batch denylist.
func (g *EntityGraph) DenyAccession(accessionNumber string) {
	g.Denylist[accessionNumber] = true
}

// RecalculateStats runs one pass of the network statistics aggregator over
// up to limit flagged entities.
func (g *EntityGraph) RecalculateStats(limit int) (int, error) {
	return g.Aggregator.Recalculate(limit)
}
