package pipeline

import (
	"strings"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// BiomedicalCatchAllFilter drops detections carrying a biomedical model's
// generic non-medical catch-all labels. These labels fire on almost any
// capitalized token and carry no entity signal outside the medical domain.
func BiomedicalCatchAllFilter(catchAllLabels ...string) NoiseFilterFunc {
	labels := make(map[string]bool, len(catchAllLabels))
	for _, label := range catchAllLabels {
		labels[strings.ToUpper(label)] = true
	}

	return func(mention model.Mention) bool {
		return labels[strings.ToUpper(mention.Label)]
	}
}

// financialStopwords are common filing terms that finance-tuned models
// misclassify as entities.
var financialStopwords = map[string]bool{
	"company":      true,
	"the company":  true,
	"corporation":  true,
	"quarter":      true,
	"fiscal year":  true,
	"revenue":      true,
	"net income":   true,
	"million":      true,
	"billion":      true,
	"shareholders": true,
	"stockholders": true,
	"board":        true,
	"sec":          false, // the agency itself is a real entity
}

// FinancialStopwordFilter drops common stopwords misclassified as financial
// entities.
func FinancialStopwordFilter() NoiseFilterFunc {
	return func(mention model.Mention) bool {
		return financialStopwords[strings.ToLower(strings.TrimSpace(mention.Text))]
	}
}
