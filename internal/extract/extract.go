// Package extract pulls numeric fields out of statement markup using
// ordered, tagged pattern rules with first-match-wins fallback.
package extract

import (
	"strconv"

	"github.com/sells-group/finstat-harvester/internal/model"
)

// Miss records a field that resolved to the zero default. Tag names the
// rule whose capture failed to parse; it is empty when no rule matched at
// all. Misses are diagnostics, never errors: a miss degrades the record to
// 0 so operators can detect extraction drift in the logs.
type Miss struct {
	Field string
	Tag   string
}

// Extractor applies a set of field specs to markup documents.
type Extractor struct {
	fields []FieldSpec
}

// New creates an Extractor over the given field specs.
func New(fields []FieldSpec) *Extractor {
	return &Extractor{fields: fields}
}

// Extract resolves every field against the document. Fields with no
// matching rule, or whose capture does not parse as a non-negative integer,
// resolve to 0 and are reported in the returned misses.
func (e *Extractor) Extract(doc string) (map[string]int64, []Miss) {
	values := make(map[string]int64, len(e.fields))
	var misses []Miss

	for _, spec := range e.fields {
		value, miss := extractField(doc, spec)
		values[spec.Field] = value
		if miss != nil {
			misses = append(misses, *miss)
		}
	}

	return values, misses
}

// extractField tries the spec's rules in order. The first rule that matches
// decides the outcome: its capture either parses, or the field defaults to
// 0 with the rule's tag in the miss.
func extractField(doc string, spec FieldSpec) (int64, *Miss) {
	for _, rule := range spec.Rules {
		m := rule.re.FindStringSubmatch(doc)
		if m == nil {
			continue
		}

		idx := rule.re.SubexpIndex(spec.Capture)
		if idx < 0 || idx >= len(m) {
			return 0, &Miss{Field: spec.Field, Tag: rule.Tag}
		}

		value, err := strconv.ParseInt(m[idx], 10, 64)
		if err != nil || value < 0 {
			return 0, &Miss{Field: spec.Field, Tag: rule.Tag}
		}
		return value, nil
	}

	return 0, &Miss{Field: spec.Field}
}

// Fields maps the canonical field values into an ExtractedFields struct.
// Absent keys default to 0.
func Fields(values map[string]int64) model.ExtractedFields {
	return model.ExtractedFields{
		TotalIncome:   values[FieldTotalIncome],
		Profit:        values[FieldProfit],
		EmployeeCount: values[FieldEmployeeCount],
		NetPayCosts:   values[FieldNetPayCosts],
	}
}
