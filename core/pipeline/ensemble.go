package pipeline

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// Ensemble runs all routed NER models over filing sections and merges their
// detections into consensus entities.
type Ensemble struct {
	Models []ModelSpec
	Router *Router
	Config *model.PipelineConfig
	Logger *slog.Logger
}

// NewEnsemble creates an ensemble over the given models.
func NewEnsemble(models []ModelSpec, config *model.PipelineConfig, logger *slog.Logger) (*Ensemble, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one model")
	}
	if config == nil {
		config = model.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ensemble{
		Models: models,
		Router: NewRouter(),
		Config: config,
		Logger: logger,
	}, nil
}

// ExtractSection runs the routed models over one section and returns the
// merged entities ordered by position. A single model's inference failure
// is logged and skipped, never fatal to the section.
func (e *Ensemble) ExtractSection(sectionName string, text string) ([]model.MergedEntity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	routed := e.Router.Route(sectionName, e.Models)
	if len(routed) == 0 {
		return nil, fmt.Errorf("no models routed for section %v", sectionName)
	}

	chunks := SplitWithOverlap(text, e.Config.SectionChunkSize, e.Config.SectionChunkOverlap)

	var mentions []model.Mention
	for _, spec := range routed {
		modelMentions, err := e.runModel(spec, sectionName, chunks)
		if err != nil {
			e.Logger.Warn("NER model failed on section, skipping its contribution",
				slog.String("model", spec.ID),
				slog.String("section", sectionName),
				slog.Any("error", err))
			continue
		}
		mentions = append(mentions, modelMentions...)
	}

	return mergeMentions(mentions), nil
}

// runModel runs one model over all chunks of a section, remaps offsets to
// section coordinates and applies the model's confidence threshold and
// noise filter. Overlap-duplicated detections at identical remapped offsets
// collapse to one.
func (e *Ensemble) runModel(spec ModelSpec, sectionName string, chunks []TextChunk) ([]model.Mention, error) {
	type span struct{ start, end int }
	seen := map[span]model.Mention{}

	for _, chunk := range chunks {
		detected, err := spec.Extract(chunk.Text)
		if err != nil {
			return nil, err
		}

		for _, mention := range detected {
			if mention.Confidence < spec.ConfidenceThreshold {
				continue
			}
			if spec.NoiseFilter != nil && spec.NoiseFilter(mention) {
				continue
			}

			mention.CharStart += chunk.Offset
			mention.CharEnd += chunk.Offset
			mention.ModelID = spec.ID
			mention.SectionID = sectionName

			key := span{mention.CharStart, mention.CharEnd}
			if existing, ok := seen[key]; !ok || mention.Confidence > existing.Confidence {
				seen[key] = mention
			}
		}
	}

	mentions := make([]model.Mention, 0, len(seen))
	for _, mention := range seen {
		mentions = append(mentions, mention)
	}
	return mentions, nil
}

// mergeMentions groups detections by exact (section, start, end) and
// collapses each group to the highest-confidence detection, keeping the
// provenance of every contributing model.
func mergeMentions(mentions []model.Mention) []model.MergedEntity {
	type key struct {
		section    string
		start, end int
	}

	groups := map[key][]model.Mention{}
	for _, mention := range mentions {
		k := key{mention.SectionID, mention.CharStart, mention.CharEnd}
		groups[k] = append(groups[k], mention)
	}

	var merged []model.MergedEntity
	for _, group := range groups {
		best := group[0]
		confidences := make(map[string]float64, len(group))
		models := make([]string, 0, len(group))
		for _, mention := range group {
			confidences[mention.ModelID] = mention.Confidence
			models = append(models, mention.ModelID)
			if mention.Confidence > best.Confidence {
				best = mention
			}
		}
		sort.Strings(models)

		merged = append(merged, model.MergedEntity{
			Text:            best.Text,
			NormalizedType:  NormalizeLabel(best.Label),
			Confidence:      best.Confidence,
			DetectingModels: models,
			AllConfidences:  confidences,
			IsMerged:        len(group) > 1,
			SectionName:     best.SectionID,
			CharStart:       best.CharStart,
			CharEnd:         best.CharEnd,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].SectionName != merged[j].SectionName {
			return merged[i].SectionName < merged[j].SectionName
		}
		if merged[i].CharStart != merged[j].CharStart {
			return merged[i].CharStart < merged[j].CharStart
		}
		return merged[i].CharEnd < merged[j].CharEnd
	})

	return merged
}

// NormalizeLabel maps a raw NER label to an entity type. BIO tagging
// prefixes (B- for beginning, I- for inside) are stripped first.
func NormalizeLabel(label string) model.EntityType {
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")

	switch strings.ToUpper(label) {
	case "ORG", "ORGANIZATION", "COMPANY", "CORP":
		return model.EntityTypeCompany
	case "PER", "PERSON":
		return model.EntityTypePerson
	case "AGENCY", "GOV", "GOVERNMENT":
		return model.EntityTypeAgency
	case "PRODUCT", "MISC", "PROD":
		return model.EntityTypeProduct
	default:
		return model.EntityTypeUnknown
	}
}
