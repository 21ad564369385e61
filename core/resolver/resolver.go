package resolver

import (
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/amiralpert/SmartReach-sub000/database"
	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
)

// Resolver maps raw entity mentions to stable canonical identities through
// the name-variant registry. All conditional inserts happen inside SQL
// functions, so concurrent resolution of the same name is serialized by the
// database and converges to one identity.
type Resolver struct {
	entities  database.EntitiesDBHandlerFunctions
	variants  database.VariantsDBHandlerFunctions
	threshold float64
	metric    *metrics.JaroWinkler
	logger    *slog.Logger
}

// NewResolver creates a resolver over the entity and variant handlers. The
// similarity threshold gates fuzzy organization-name matching; values come
// from the pipeline configuration, default 0.85.
func NewResolver(entities database.EntitiesDBHandlerFunctions, variants database.VariantsDBHandlerFunctions, config *model.PipelineConfig, logger *slog.Logger) (*Resolver, error) {
	if entities == nil || variants == nil {
		return nil, fmt.Errorf("resolver needs entity and variant handlers")
	}
	if config == nil {
		config = model.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		entities:  entities,
		variants:  variants,
		threshold: config.SimilarityThreshold,
		metric:    metrics.NewJaroWinkler(),
		logger:    logger,
	}, nil
}

// Resolve converts (text, entityType) into a canonical entity, creating a
// new identity only when no exact or fuzzy match exists. Calling Resolve
// repeatedly with the same input converges to the same entity, with every
// call bumping the variant occurrence count and the entity mention count.
func (r *Resolver) Resolve(text string, entityType model.EntityType) (*model.CanonicalEntity, error) {
	if text == "" {
		return nil, fmt.Errorf("entity text is empty")
	}

	entity, method, confidence, err := r.lookup(text, entityType)
	if err != nil {
		return nil, err
	}

	if entity != nil && entity.AutoCreated && entityType != model.EntityTypeUnknown {
		// Direct extraction enriches a placeholder created as an
		// unresolved relationship target.
		entity, err = r.entities.UpdateEntityType(entity.ID, entityType, "")
		if err != nil {
			return nil, helper.NewError("enrich placeholder entity", err)
		}
	}

	if entity == nil {
		// Nothing matched, mint a new identity.
		entity = &model.CanonicalEntity{
			CanonicalName: text,
			EntityType:    entityType,
		}
		err = r.entities.InsertEntity(entity)
		if err != nil {
			return nil, helper.NewError("insert entity", err)
		}
		method = model.ResolutionNewEntity
		confidence = 1.0
	}

	err = r.register(text, entity, method, confidence)
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// ResolveTarget resolves a relationship target name. Unlike Resolve it
// never invents a typed identity: an unseen name becomes an UNKNOWN
// placeholder flagged auto_created, so later direct extraction of the same
// entity can enrich it.
func (r *Resolver) ResolveTarget(name string) (*model.CanonicalEntity, error) {
	if name == "" {
		return nil, fmt.Errorf("target name is empty")
	}

	entity, method, confidence, err := r.lookup(name, model.EntityTypeUnknown)
	if err != nil {
		return nil, err
	}

	if entity == nil {
		entity = &model.CanonicalEntity{
			CanonicalName: name,
			EntityType:    model.EntityTypeUnknown,
			AutoCreated:   true,
		}
		err = r.entities.InsertEntity(entity)
		if err != nil {
			return nil, helper.NewError("insert placeholder entity", err)
		}
		method = model.ResolutionAutoCreated
		confidence = 1.0
	}

	err = r.register(name, entity, method, confidence)
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// lookup runs the match steps in order, short-circuiting on the first hit:
// exact variant, exact canonical name, then one best-of-all-candidates
// fuzzy pass over organization names. Returns nil when nothing matched.
func (r *Resolver) lookup(text string, entityType model.EntityType) (*model.CanonicalEntity, model.ResolutionMethod, float64, error) {
	// 1. Exact surface form in the registry.
	variant, err := r.variants.SelectNameVariant(text, entityType)
	if err == nil {
		entity, err := r.entities.SelectEntity(variant.CanonicalEntityID)
		if err != nil {
			return nil, "", 0, helper.NewError("select canonical entity of variant", err)
		}
		return entity, variant.ResolutionMethod, variant.Confidence, nil
	}
	if !errors.Is(err, stdsql.ErrNoRows) {
		return nil, "", 0, helper.NewError("select name variant", err)
	}

	// 2. Exact canonical name, a surface form not yet in the registry.
	entity, err := r.entities.SelectEntityByCanonicalName(text, entityType)
	if err == nil {
		return entity, model.ResolutionExactMatch, 1.0, nil
	}
	if !errors.Is(err, stdsql.ErrNoRows) {
		return nil, "", 0, helper.NewError("select entity by canonical name", err)
	}

	// 3. Fuzzy matching applies to organization names only.
	if !entityType.IsOrganization() {
		return nil, "", 0, nil
	}

	return r.fuzzyLookup(text)
}

// fuzzyLookup compares the normalized query against the normalized
// canonical names of all organizations in a single pass and accepts the
// best candidate at or above the threshold. Candidates arrive ordered by
// canonical name and the strict comparison keeps the first of equally
// similar names, so ties resolve the same way on every run.
func (r *Resolver) fuzzyLookup(text string) (*model.CanonicalEntity, model.ResolutionMethod, float64, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, "", 0, nil
	}

	candidates, err := r.entities.SelectOrganizationEntities()
	if err != nil {
		return nil, "", 0, helper.NewError("select organization entities", err)
	}

	var best *model.CanonicalEntity
	bestSimilarity := 0.0
	for _, candidate := range candidates {
		similarity := strutil.Similarity(normalized, Normalize(candidate.CanonicalName), r.metric)
		if similarity > bestSimilarity {
			best = candidate
			bestSimilarity = similarity
		}
	}

	if best == nil || bestSimilarity < r.threshold {
		return nil, "", 0, nil
	}

	r.logger.Debug("Fuzzy-matched organization name",
		slog.String("query", text),
		slog.String("canonical", best.CanonicalName),
		slog.Float64("similarity", bestSimilarity))

	return best, model.ResolutionFuzzyMatch, bestSimilarity, nil
}

// register records the surface form in the registry and bumps the entity
// mention count. Repeat registrations of the same form bump its occurrence
// count inside the database.
func (r *Resolver) register(text string, entity *model.CanonicalEntity, method model.ResolutionMethod, confidence float64) error {
	variant := &model.NameVariant{
		EntityName:           text,
		EntityNameNormalized: Normalize(text),
		CanonicalEntityID:    entity.ID,
		EntityType:           entity.EntityType,
		ResolutionMethod:     method,
		Confidence:           confidence,
	}
	err := r.variants.UpsertNameVariant(variant)
	if err != nil {
		return helper.NewError("upsert name variant", err)
	}

	err = r.entities.TouchEntity(entity.ID)
	if err != nil {
		return helper.NewError("touch entity", err)
	}
	entity.MentionCount++

	return nil
}
