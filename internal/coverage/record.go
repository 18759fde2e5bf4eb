package coverage

import (
	"fmt"
	"strings"
)

// Record is one loosely-typed row fetched from an upstream source. Upstream
// systems disagree on field naming, so logical attributes are read through
// ordered alias lists rather than fixed keys.
type Record map[string]any

// Alias tables for the logical attributes the engine reads. Each list is
// tried in order; the first present, non-empty value wins. Operators can
// append to these at startup via the aliases override file.
var (
	HouseholdIDKeys = []string{"household_id", "hh_id", "hhid", "id"}
	VCAIDKeys       = []string{"uid", "unique_id", "vca_id", "child_id", "id"}

	// Foreign keys on service events pointing back at a beneficiary.
	ServiceHouseholdKeys = []string{"household_id", "hh_id", "hhid"}
	ServiceVCAKeys       = []string{"vca_id", "uid", "unique_id", "child_id"}

	DistrictKeys   = []string{"district", "district_name", "facility_district"}
	NameKeys       = []string{"name", "caregiver_name", "full_name", "firstname"}
	CaseworkerKeys = []string{"caseworker_name", "cw_name", "caseworker", "created_by"}
	DateKeys       = []string{"service_date", "date_of_service", "visit_date", "date", "date_created"}
	HTSResultKeys  = []string{"hiv_result", "test_result", "result"}
)

// Resolve returns the string form of the first candidate key whose value is
// present and non-blank, or sentinel when no candidate matches. It is total:
// it always returns a string and never fails.
func Resolve(rec Record, keys []string, sentinel string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		s := stringify(v)
		if strings.TrimSpace(s) == "" {
			continue
		}
		return s
	}
	return sentinel
}

// hasAnyField reports whether the record carries any of the candidate keys at
// all, regardless of value.
func hasAnyField(rec Record, keys []string) bool {
	for _, key := range keys {
		if _, ok := rec[key]; ok {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers arrive as float64; whole values print without a
		// trailing ".0" so numeric ids join cleanly against string ids.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
