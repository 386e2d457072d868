package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Field type tags used across the extraction pipeline and the history store.
const (
	FieldCheckNumber   = "check_number"
	FieldDate          = "date"
	FieldAmount        = "amount"
	FieldSSN           = "ssn"
	FieldRoutingNumber = "routing_number"
	FieldAccountNumber = "account_number"
	FieldName          = "name"
	FieldAddress       = "address"
	FieldPhone         = "phone"
	FieldEmail         = "email"
)

// FieldPattern binds a field type to its detection patterns and to the
// keyword list used for location scoring. Patterns are tried in order and
// all matches are unioned; the first capture group is the extracted value.
type FieldPattern struct {
	Type     string
	Patterns []string
	Keywords []string
}

// Registry is the immutable field pattern configuration. Registration order
// matters: cell matching attributes a cell to the first type whose pattern
// matches the whole value.
type Registry struct {
	fields   []FieldPattern
	compiled map[string][]*regexp.Regexp
	anchored map[string][]*regexp.Regexp
	keywords map[string][]string
}

// DefaultRegistry returns the built-in field pattern configuration for
// financial documents (checks, stubs, statements).
func DefaultRegistry() *Registry {
	return NewRegistry([]FieldPattern{
		{
			Type: FieldCheckNumber,
			Patterns: []string{
				`check\s*(?:number|no\.?|num)?\s*[#:]\s*(\d{3,})`,
				`\bcheck\s+(\d{4,})\b`,
			},
			Keywords: []string{"check", "number", "#"},
		},
		{
			Type: FieldDate,
			Patterns: []string{
				`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`,
				`\b(\d{4}[/-]\d{1,2}[/-]\d{1,2})\b`,
			},
			Keywords: []string{"date", "dated", "issued"},
		},
		{
			Type: FieldAmount,
			Patterns: []string{
				`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\b`,
				`(?:amount|total|sum|balance|due)[:\s]*\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\b`,
				`\b(\d{1,3}(?:,\d{3})*\.\d{2})\b`,
			},
			Keywords: []string{"amount", "total", "sum", "$"},
		},
		{
			Type: FieldSSN,
			Patterns: []string{
				`\b(\d{3}-\d{2}-\d{4})\b`,
				`ssn[:\s#]*(\d{3}-?\d{2}-?\d{4})\b`,
			},
			Keywords: []string{"ssn", "social", "security"},
		},
		{
			Type: FieldRoutingNumber,
			Patterns: []string{
				`routing\s*(?:number|no\.?|#)?[:\s]+(\d{9})\b`,
				`\baba[:\s#]*(\d{9})\b`,
			},
			Keywords: []string{"routing", "aba"},
		},
		{
			Type: FieldAccountNumber,
			Patterns: []string{
				`(?:account|acct)\.?\s*(?:number|no\.?|#)?[:\s]+(\d{4,17})\b`,
			},
			Keywords: []string{"account", "acct"},
		},
		{
			Type: FieldName,
			Patterns: []string{
				`(?:pay\s+to\s+the\s+order\s+of|payable\s+to|payee)[:\s]+([A-Za-z][A-Za-z.,'\- ]{2,60})`,
				`^name[:\s]+([A-Za-z][A-Za-z.,'\- ]{2,60})`,
			},
			Keywords: []string{"name", "payee", "pay to"},
		},
		{
			Type: FieldAddress,
			Patterns: []string{
				`\b(\d{1,5}\s+[A-Za-z0-9.' ]+?\s(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl)\.?)\b`,
				`^address[:\s]+(.{5,80})$`,
			},
			Keywords: []string{"address", "street", "city"},
		},
		{
			Type: FieldPhone,
			Patterns: []string{
				`(\(\d{3}\)\s*\d{3}[-.\s]?\d{4})`,
				`\b(\d{3}[-.]\d{3}[-.]\d{4})\b`,
			},
			Keywords: []string{"phone", "tel", "fax", "call"},
		},
		{
			Type: FieldEmail,
			Patterns: []string{
				`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`,
			},
			Keywords: []string{"email", "e-mail", "mail"},
		},
	})
}

// NewRegistry compiles the given field patterns. Patterns are compiled
// case-insensitive and multiline; invalid patterns panic since the registry
// is static configuration.
func NewRegistry(fields []FieldPattern) *Registry {
	r := &Registry{
		fields:   fields,
		compiled: make(map[string][]*regexp.Regexp, len(fields)),
		anchored: make(map[string][]*regexp.Regexp, len(fields)),
		keywords: make(map[string][]string, len(fields)),
	}
	for _, f := range fields {
		for _, p := range f.Patterns {
			r.compiled[f.Type] = append(r.compiled[f.Type], regexp.MustCompile(`(?im)`+p))
			// Anchored variants are used for whole-cell matching. Line
			// anchors inside p are harmless once the whole value is a
			// single line.
			r.anchored[f.Type] = append(r.anchored[f.Type], regexp.MustCompile(`(?i)\A(?:`+strings.TrimPrefix(p, "^")+`)\z`))
		}
		r.keywords[f.Type] = f.Keywords
	}
	return r
}

// Types returns the registered field types in registration order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, f.Type)
	}
	return out
}

// Keywords returns the location scoring keyword list for a field type.
func (r *Registry) Keywords(fieldType string) []string {
	return r.keywords[fieldType]
}

// PatternCount returns the number of patterns registered for a field type.
func (r *Registry) PatternCount(fieldType string) int {
	return len(r.compiled[fieldType])
}

// Matcher applies the field pattern registry to page text and table cells.
type Matcher struct {
	registry *Registry
	scorer   *Scorer
}

// NewMatcher creates a matcher over the given registry, scoring candidates
// with the given scorer.
func NewMatcher(registry *Registry, scorer *Scorer) *Matcher {
	return &Matcher{registry: registry, scorer: scorer}
}

// Match applies every registered pattern to the page text and returns the
// deduplicated candidate fields. Duplicate (type, value) pairs keep the
// highest-confidence instance.
func (m *Matcher) Match(text string, page int) []ExtractedField {
	var fields []ExtractedField
	for _, fp := range m.registry.fields {
		for _, re := range m.registry.compiled[fp.Type] {
			for _, groups := range re.FindAllStringSubmatch(text, -1) {
				value := groups[0]
				if len(groups) > 1 {
					value = groups[1]
				}
				value = strings.TrimSpace(value)
				if value == "" {
					continue
				}
				fields = append(fields, ExtractedField{
					Name:       fp.Type,
					Value:      value,
					Confidence: m.scorer.Score(fp.Type, value, text),
					Page:       page,
					Method:     MethodText,
				})
			}
		}
	}
	return DedupeFields(fields)
}

// MatchCell tests a table cell value against the registry and returns the
// first field type whose pattern matches the whole trimmed value. Blank and
// placeholder cells are skipped.
func (m *Matcher) MatchCell(cell string) (string, bool) {
	value := strings.TrimSpace(cell)
	if value == "" {
		return "", false
	}
	switch strings.ToLower(value) {
	case "none", "null", "n/a":
		return "", false
	}
	for _, fp := range m.registry.fields {
		for _, re := range m.registry.anchored[fp.Type] {
			if re.MatchString(value) {
				return fp.Type, true
			}
		}
	}
	return "", false
}

// DedupeFields collapses fields sharing (name, value), keeping the
// highest-confidence instance. Discovery order of the surviving entries is
// preserved.
func DedupeFields(fields []ExtractedField) []ExtractedField {
	index := make(map[string]int, len(fields))
	out := make([]ExtractedField, 0, len(fields))
	for _, f := range fields {
		key := fmt.Sprintf("%s\x00%s", f.Name, f.Value)
		if i, seen := index[key]; seen {
			if f.Confidence > out[i].Confidence {
				out[i] = f
			}
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}
