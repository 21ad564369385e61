package resolver

import "strings"

// legalSuffixes are trailing corporate designators stripped during
// normalization, longest first so "inc" does not shadow "incorporated".
var legalSuffixes = []string{
	"incorporated",
	"corporation",
	"limited",
	"holdings",
	"company",
	"group",
	"corp",
	"inc",
	"llc",
	"ltd",
	"plc",
	"ag",
	"sa",
	"co",
}

// Normalize reduces an organization name to its comparable core form:
// lower-cased, punctuation removed, leading "The" and trailing legal
// suffixes stripped, whitespace collapsed.
func Normalize(name string) string {
	lowered := strings.ToLower(name)
	lowered = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ';', ':', '(', ')', '"', '\'':
			return ' '
		}
		return r
	}, lowered)

	fields := strings.Fields(lowered)
	if len(fields) > 1 && fields[0] == "the" {
		fields = fields[1:]
	}

	for len(fields) > 1 {
		last := fields[len(fields)-1]
		stripped := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				fields = fields[:len(fields)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	return strings.Join(fields, " ")
}
