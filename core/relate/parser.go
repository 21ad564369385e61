package relate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/amiralpert/SmartReach-sub000/model"
)

// RepairFunc rewrites a malformed JSON candidate. Tiers are applied
// cumulatively in order until one yields parseable JSON.
type RepairFunc func(candidate string) string

// Parser turns raw completion text into validated relationship records,
// tolerating malformed structured output through escalating repair tiers.
// The tier ordering is empirically chosen and deliberately replaceable.
type Parser struct {
	Tiers []RepairFunc
}

// NewParser creates a parser with the default repair tiers: a generic
// repair pass for common issues, then targeted pattern patches.
func NewParser() *Parser {
	return &Parser{
		Tiers: []RepairFunc{GenericRepair, TargetedRepair},
	}
}

// Parse extracts relationship records from a raw completion response.
// Records missing required identity fields are dropped and counted, not
// fatal. An unrecoverable response returns an error.
func (p *Parser) Parse(raw string) ([]model.RelationshipRecord, int, error) {
	candidate := extractJSONCandidate(raw)
	if candidate == "" {
		return nil, 0, fmt.Errorf("no JSON structure found in response")
	}

	records, err := decodeRecords(candidate)
	for _, tier := range p.Tiers {
		if err == nil {
			break
		}
		candidate = tier(candidate)
		records, err = decodeRecords(candidate)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("response not parseable after all repair tiers: %w", err)
	}

	var valid []model.RelationshipRecord
	dropped := 0
	for _, record := range records {
		if record.Validate() != nil {
			dropped++
			continue
		}
		valid = append(valid, record)
	}

	return valid, dropped, nil
}

// extractJSONCandidate finds the first balanced JSON array or object in the
// response, ignoring surrounding prose and markdown fences.
func extractJSONCandidate(raw string) string {
	objStart := strings.IndexByte(raw, '{')
	arrStart := strings.IndexByte(raw, '[')

	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if candidate, ok := extractBalanced(raw, '[', ']'); ok {
			return candidate
		}
	}
	if objStart >= 0 {
		if candidate, ok := extractBalanced(raw, '{', '}'); ok {
			return candidate
		}
	}

	return strings.TrimSpace(raw)
}

// extractBalanced finds the first balanced structure starting with openChar,
// counting bracket depth and skipping string contents.
func extractBalanced(s string, openChar byte, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// decodeRecords unmarshals a candidate as an array of records, accepting a
// bare single object as a one-element array.
func decodeRecords(candidate string) ([]model.RelationshipRecord, error) {
	var records []model.RelationshipRecord
	arrErr := json.Unmarshal([]byte(candidate), &records)
	if arrErr == nil {
		return records, nil
	}

	var single model.RelationshipRecord
	if err := json.Unmarshal([]byte(candidate), &single); err == nil {
		return []model.RelationshipRecord{single}, nil
	}

	return nil, arrErr
}

var (
	trailingCommaPattern   = regexp.MustCompile(`,\s*([}\]])`)
	missingSeparatorObject = regexp.MustCompile(`}(\s*){`)
	unquotedKeyPattern     = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	pythonNonePattern      = regexp.MustCompile(`:\s*None\b`)
	pythonTruePattern      = regexp.MustCompile(`:\s*True\b`)
	pythonFalsePattern     = regexp.MustCompile(`:\s*False\b`)
)

// GenericRepair fixes the most common malformed-output issues: trailing
// commas before a closing bracket and missing separators between objects.
func GenericRepair(candidate string) string {
	candidate = trailingCommaPattern.ReplaceAllString(candidate, "$1")
	candidate = missingSeparatorObject.ReplaceAllString(candidate, "},$1{")
	return candidate
}

// TargetedRepair patches known model-specific output patterns: unquoted
// object keys and Python-style literals.
func TargetedRepair(candidate string) string {
	candidate = unquotedKeyPattern.ReplaceAllString(candidate, `$1"$2":`)
	candidate = pythonNonePattern.ReplaceAllString(candidate, ": null")
	candidate = pythonTruePattern.ReplaceAllString(candidate, ": true")
	candidate = pythonFalsePattern.ReplaceAllString(candidate, ": false")
	return candidate
}
