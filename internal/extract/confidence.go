package extract

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Factor is one named component of a confidence score, kept for the
// explain-confidence use case and persisted alongside extraction events.
type Factor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

// Scoring weights. The four factors are additive and the total is capped at
// 1.0: pattern match 0.4, location 0.2, context 0.2, clarity 0.2.
const (
	patternWeight  = 0.4
	locationWeight = 0.2
	contextWeight  = 0.2
	clarityWeight  = 0.2

	// Characters of surrounding text inspected for location keywords.
	keywordProximity = 50
)

var (
	amountStrictRe  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})*\.\d{2}$`)
	amountDecimalRe = regexp.MustCompile(`^[\d,]+\.\d+$`)
	ssnStrictRe     = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	routingStrictRe = regexp.MustCompile(`^\d{9}$`)
	dateFullYearRe  = regexp.MustCompile(`^(?:\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})$`)
	dateShortYearRe = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2}$`)
	digitsRe        = regexp.MustCompile(`\d`)
)

// Scorer computes deterministic confidence scores for candidate field
// matches. It is a pure function of its inputs; the registry supplies the
// per-type keyword lists.
type Scorer struct {
	registry *Registry
}

// NewScorer creates a scorer backed by the given pattern registry.
func NewScorer(registry *Registry) *Scorer {
	return &Scorer{registry: registry}
}

// Score computes the confidence for a text-sourced match, rounded to two
// decimals and capped at 1.0. context is the text surrounding the match
// (typically the whole page); pass "" when no context is available.
func (s *Scorer) Score(fieldType, value, context string) float64 {
	return round2(s.raw(fieldType, value, context))
}

// ScoreTable computes the confidence for a table-sourced match. The base
// score is scaled by (0.8 + 0.2*accuracy) before rounding, so low-accuracy
// table detection proportionally reduces trust in the value.
func (s *Scorer) ScoreTable(fieldType, value string, accuracy float64) float64 {
	if accuracy < 0 {
		accuracy = 0
	} else if accuracy > 1 {
		accuracy = 1
	}
	return round2(s.raw(fieldType, value, "") * (0.8 + 0.2*accuracy))
}

// Explain returns the individual factors behind a score, for the
// explain-confidence surface and the confidence_factors audit table.
func (s *Scorer) Explain(fieldType, value, context string) []Factor {
	return []Factor{
		{Name: "pattern_match", Score: patternWeight, Weight: patternWeight,
			Description: "value matched a registered field pattern"},
		{Name: "location", Score: s.locationScore(fieldType, value, context), Weight: locationWeight,
			Description: fmt.Sprintf("proximity to %s keywords within %d characters", fieldType, keywordProximity)},
		{Name: "context", Score: s.contextScore(fieldType, value, context), Weight: contextWeight,
			Description: "structural markers on the line containing the value"},
		{Name: "clarity", Score: clarityScore(fieldType, value), Weight: clarityWeight,
			Description: "shape of the value itself"},
	}
}

// Suggestions lists ways a low-confidence extraction could be improved.
func (s *Scorer) Suggestions(fieldType, value, context string) []string {
	var out []string
	if s.locationScore(fieldType, value, context) < locationWeight {
		out = append(out, fmt.Sprintf("place the value near a %s label", fieldType))
	}
	if s.contextScore(fieldType, value, context) < contextWeight {
		out = append(out, "label the value with a field name and colon")
	}
	if clarityScore(fieldType, value) < clarityWeight {
		out = append(out, "use the canonical format for "+fieldType)
	}
	return out
}

func (s *Scorer) raw(fieldType, value, context string) float64 {
	total := patternWeight +
		s.locationScore(fieldType, value, context) +
		s.contextScore(fieldType, value, context) +
		clarityScore(fieldType, value)
	return math.Min(total, 1.0)
}

// locationScore awards the full 0.2 when the value sits within
// keywordProximity characters of a field-type keyword, 0.1 when no context
// is supplied, and 0 when context is supplied but no keyword is nearby.
func (s *Scorer) locationScore(fieldType, value, context string) float64 {
	if context == "" {
		return locationWeight / 2
	}
	lower := strings.ToLower(context)
	idx := strings.Index(lower, strings.ToLower(value))
	if idx < 0 {
		return locationWeight / 2
	}
	start := idx - keywordProximity
	if start < 0 {
		start = 0
	}
	end := idx + len(value) + keywordProximity
	if end > len(lower) {
		end = len(lower)
	}
	window := lower[start:end]
	for _, kw := range s.registry.Keywords(fieldType) {
		if strings.Contains(window, strings.ToLower(kw)) {
			return locationWeight
		}
	}
	return 0
}

// contextScore awards the full 0.2 when the line containing the value has a
// structural marker (a colon or a field keyword), 0.15 otherwise.
func (s *Scorer) contextScore(fieldType, value, context string) float64 {
	const defaultScore = 0.15
	if context == "" {
		return defaultScore
	}
	lower := strings.ToLower(context)
	idx := strings.Index(lower, strings.ToLower(value))
	if idx < 0 {
		return defaultScore
	}
	lineStart := strings.LastIndexByte(lower[:idx], '\n') + 1
	lineEnd := strings.IndexByte(lower[idx:], '\n')
	if lineEnd < 0 {
		lineEnd = len(lower)
	} else {
		lineEnd += idx
	}
	line := lower[lineStart:lineEnd]
	if strings.ContainsRune(line, ':') {
		return contextWeight
	}
	for _, kw := range s.registry.Keywords(fieldType) {
		if strings.Contains(line, strings.ToLower(kw)) {
			return contextWeight
		}
	}
	return defaultScore
}

// clarityScore judges the value's own shape with field-type heuristics.
func clarityScore(fieldType, value string) float64 {
	switch fieldType {
	case FieldCheckNumber:
		switch {
		case len(value) >= 4:
			return 0.2
		case len(value) == 3:
			return 0.15
		default:
			return 0.05
		}
	case FieldAmount:
		switch {
		case amountStrictRe.MatchString(value):
			return 0.2
		case amountDecimalRe.MatchString(value):
			return 0.18
		default:
			return 0.1
		}
	case FieldSSN:
		if ssnStrictRe.MatchString(value) {
			return 0.2
		}
		return 0.05
	case FieldRoutingNumber:
		if routingStrictRe.MatchString(value) {
			return 0.2
		}
		return 0.05
	case FieldDate:
		switch {
		case dateFullYearRe.MatchString(value):
			return 0.2
		case dateShortYearRe.MatchString(value):
			return 0.15
		default:
			return 0.1
		}
	case FieldAccountNumber:
		if len(value) >= 8 {
			return 0.2
		}
		return 0.15
	case FieldPhone:
		if len(digitsRe.FindAllString(value, -1)) == 10 {
			return 0.2
		}
		return 0.1
	case FieldEmail:
		at := strings.IndexByte(value, '@')
		if at > 0 && strings.IndexByte(value[at:], '.') > 0 {
			return 0.2
		}
		return 0.05
	default:
		return 0.15
	}
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
