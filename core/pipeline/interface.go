package pipeline

import (
	"strings"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// EntityExtractFunc runs one NER model over a text and returns its raw span
// detections. Character offsets are relative to the given text.
type EntityExtractFunc func(text string) ([]model.Mention, error)

// NoiseFilterFunc reports whether a raw detection is a known false positive
// category of the producing model and should be dropped.
type NoiseFilterFunc func(mention model.Mention) bool

// Model domains for section routing.
const (
	ModelDomainGeneral = "general"
	ModelDomainFinance = "finance"
)

// ModelSpec describes one NER model of the ensemble.
type ModelSpec struct {
	ID                  string
	Domain              string // general or finance
	Extract             EntityExtractFunc
	ConfidenceThreshold float64
	NoiseFilter         NoiseFilterFunc // Optional
}

// Router maps a section to the subset of ensemble models that run on it.
// Finance-only sections route to finance-specialized models; all other
// sections route to the general-purpose models.
type Router struct {
	// FinanceSectionNames are matched case-insensitively as substrings of
	// the section name.
	FinanceSectionNames []string
}

// NewRouter creates a router with the default finance section names of SEC
// filings.
func NewRouter() *Router {
	return &Router{
		FinanceSectionNames: []string{
			"financial statements",
			"balance sheet",
			"income statement",
			"statement of operations",
			"md&a",
			"management's discussion",
		},
	}
}

// Route returns the models that apply to the given section.
func (r *Router) Route(sectionName string, models []ModelSpec) []ModelSpec {
	wantDomain := ModelDomainGeneral
	if r.isFinanceSection(sectionName) {
		wantDomain = ModelDomainFinance
	}

	var routed []ModelSpec
	for _, m := range models {
		if m.Domain == wantDomain {
			routed = append(routed, m)
		}
	}

	// A section with no model of the wanted domain still gets the general
	// models rather than no extraction at all.
	if len(routed) == 0 && wantDomain != ModelDomainGeneral {
		for _, m := range models {
			if m.Domain == ModelDomainGeneral {
				routed = append(routed, m)
			}
		}
	}

	return routed
}

func (r *Router) isFinanceSection(sectionName string) bool {
	lowered := strings.ToLower(sectionName)
	for _, name := range r.FinanceSectionNames {
		if strings.Contains(lowered, name) {
			return true
		}
	}
	return false
}
