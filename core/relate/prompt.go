package relate

import (
	"fmt"
	"strings"

	"github.com/amiralpert/SmartReach-sub000/model"
)

const systemMessage = `You are an analyst extracting business relationships from SEC regulatory filings. You respond with a JSON array only, no prose and no markdown fences.`

// BuildPrompt renders the extraction instruction for one resolved entity
// and its surrounding filing context.
func BuildPrompt(entity *model.CanonicalEntity, sectionName string, context string) string {
	var sb strings.Builder

	sb.WriteString("Identify business relationships involving the entity below, based strictly on the provided filing excerpt.\n\n")

	sb.WriteString(fmt.Sprintf("Entity: %s\n", entity.CanonicalName))
	sb.WriteString(fmt.Sprintf("Entity type: %s\n", entity.EntityType))
	sb.WriteString(fmt.Sprintf("Filing section: %s\n\n", sectionName))

	sb.WriteString("Filing excerpt:\n")
	sb.WriteString("---\n")
	sb.WriteString(context)
	sb.WriteString("\n---\n\n")

	sb.WriteString("Allowed relationship_type values (use no others):\n")
	sb.WriteString("- PARTNERSHIP: collaboration, joint venture, co-development\n")
	sb.WriteString("- COMPETITOR: named competitive positioning\n")
	sb.WriteString("- REGULATORY: approval, clearance, investigation by an agency\n")
	sb.WriteString("- ACQUISITION: merger, acquisition, divestiture\n")
	sb.WriteString("- LICENSING: technology or IP licensing\n")
	sb.WriteString("- NONE: the excerpt describes no relationship for this entity\n\n")

	sb.WriteString("Respond with a JSON array of objects, one per relationship:\n")
	sb.WriteString(`[
  {
    "source_entity_name": "name as it appears in the excerpt",
    "target_entity_name": "the other party",
    "relationship_type": "PARTNERSHIP",
    "edge_label": "partnered with",
    "reverse_edge_label": "partnered with",
    "detailed_summary": "one or two sentences on the relationship",
    "deal_terms": "optional, payment and milestone structure",
    "monetary_value": 0,
    "technology_names": ["optional"],
    "product_names": ["optional"],
    "therapeutic_areas": ["optional"],
    "event_date": "optional, YYYY-MM-DD"
  }
]`)
	sb.WriteString("\n\nIf there are no relationships, respond with a single NONE record. Omit optional fields you cannot support from the excerpt. Do not invent monetary values or dates.")

	return sb.String()
}

// ContextWindow cuts a bounded excerpt of the section text around one
// mention span. Offsets are clamped to the section bounds.
func ContextWindow(text string, charStart int, charEnd int, window int) string {
	if window <= 0 || len(text) <= window {
		return text
	}

	half := (window - (charEnd - charStart)) / 2
	if half < 0 {
		half = 0
	}

	start := charStart - half
	if start < 0 {
		start = 0
	}
	end := charEnd + half
	if end > len(text) {
		end = len(text)
	}

	return text[start:end]
}
