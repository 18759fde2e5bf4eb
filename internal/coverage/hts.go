package coverage

import "strings"

// HTSSummary rolls up HIV-testing records by outcome. Unknown counts results
// that were explicitly recorded but carry no conclusive value (the literal
// "unknown", "pending", and similar); NotReported counts records where the
// result field is absent or empty-equivalent. The two are kept apart so that
// explicitly-recorded unknowns are not erased from testing views.
type HTSSummary struct {
	Total       int `json:"total"`
	Positive    int `json:"positive"`
	Negative    int `json:"negative"`
	Unknown     int `json:"unknown"`
	NotReported int `json:"not_reported"`
}

// HTSRollup classifies each record's resolved test result.
func HTSRollup(records []Record, resultKeys []string) HTSSummary {
	var s HTSSummary
	for _, rec := range records {
		s.Total++
		raw := Resolve(rec, resultKeys, "")
		if !meaningfulValue(raw) {
			s.NotReported++
			continue
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "positive", "pos", "reactive", "r", "+":
			s.Positive++
		case "negative", "neg", "non-reactive", "nonreactive", "nr", "-":
			s.Negative++
		default:
			// Recorded but inconclusive or unrecognized: "unknown",
			// "pending", "indeterminate", free text.
			s.Unknown++
		}
	}
	return s
}
