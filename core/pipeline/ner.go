package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
)

// DefaultEntityExtractor creates an entity extractor using a NER model
// running locally via hugot. Uses distilbert-NER by default, which detects
// PERSON, ORGANIZATION, LOCATION and MISC spans.
func DefaultEntityExtractor(modelID string) (EntityExtractFunc, error) {
	// Prepare model (download if needed)
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create token classification pipeline for NER
	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-" + modelID,
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]model.Mention, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var mentions []model.Mention
		for _, entity := range result.Entities[0] {
			mentions = append(mentions, model.Mention{
				Text:       strings.TrimSpace(entity.Word),
				Label:      entity.Entity,
				CharStart:  int(entity.Start),
				CharEnd:    int(entity.End),
				Confidence: float64(entity.Score),
				ModelID:    modelID,
			})
		}

		return mentions, nil
	}, nil
}
