// Package completeness implements the Completeness Scorer (C5): the
// fraction of a record's required fields that are filled.
package completeness

import "github.com/jokari/knowledgehub/schema"

// Details is the expanded breakdown returned by Detail.
type Details struct {
	Score          float64  `json:"score"`
	TotalRequired  int      `json:"total_required"`
	FilledRequired int      `json:"filled_required"`
	MissingFields  []string `json:"missing_fields"`
	OptionalFilled int      `json:"optional_filled"`
	TotalOptional  int      `json:"total_optional"`
}

// Score computes filled_required / total_required for data against the
// doc type's required-field list. A doc type with no required fields
// always scores 1.0.
func Score(d *schema.Descriptor, data map[string]any) float64 {
	required := d.RequiredFields()
	if len(required) == 0 {
		return 1.0
	}
	filled := 0
	for _, field := range required {
		if isFilled(data[field]) {
			filled++
		}
	}
	return float64(filled) / float64(len(required))
}

// Missing returns the ordered list of required field names that are not
// filled in data.
func Missing(d *schema.Descriptor, data map[string]any) []string {
	var missing []string
	for _, field := range d.RequiredFields() {
		if !isFilled(data[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Detail computes the full breakdown: score, required/optional counts,
// and the list of missing required fields.
func Detail(d *schema.Descriptor, data map[string]any) Details {
	required := d.RequiredFields()
	missing := Missing(d, data)

	totalOptional := 0
	optionalFilled := 0
	for _, f := range d.Fields {
		if f.Required {
			continue
		}
		totalOptional++
		if isFilled(data[f.Name]) {
			optionalFilled++
		}
	}

	score := 1.0
	if len(required) > 0 {
		score = float64(len(required)-len(missing)) / float64(len(required))
	}

	return Details{
		Score:          score,
		TotalRequired:  len(required),
		FilledRequired: len(required) - len(missing),
		MissingFields:  missing,
		OptionalFilled: optionalFilled,
		TotalOptional:  totalOptional,
	}
}

// isFilled reports whether value counts as present: not nil, not an
// empty (after-trim) string, not an empty list, not an empty map.
func isFilled(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return trimmedNonEmpty(v)
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
