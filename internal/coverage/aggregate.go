package coverage

import "strings"

// GapCategory selects beneficiaries missing one specific domain, or, for
// GraduationPath, beneficiaries covered on all four.
type GapCategory string

const (
	GapHealth      GapCategory = "health_domain"
	GapSchooled    GapCategory = "schooled_domain"
	GapSafe        GapCategory = "safe_domain"
	GapStable      GapCategory = "stable_domain"
	GraduationPath GapCategory = "graduation_path"
)

// ParseGapCategory validates a query-supplied gap name.
func ParseGapCategory(s string) (GapCategory, bool) {
	switch GapCategory(strings.ToLower(strings.TrimSpace(s))) {
	case GapHealth:
		return GapHealth, true
	case GapSchooled:
		return GapSchooled, true
	case GapSafe:
		return GapSafe, true
	case GapStable:
		return GapStable, true
	case GraduationPath:
		return GraduationPath, true
	}
	return "", false
}

// CoverageResult is the derived per-beneficiary coverage state.
type CoverageResult struct {
	HasHealth       bool `json:"has_health"`
	HasSchooled     bool `json:"has_schooled"`
	HasSafe         bool `json:"has_safe"`
	HasStable       bool `json:"has_stable"`
	DomainCount     int  `json:"domain_count"`
	GraduationReady bool `json:"graduation_ready"`
}

// Has reports coverage for one domain.
func (c CoverageResult) Has(d Domain) bool {
	switch d {
	case DomainHealth:
		return c.HasHealth
	case DomainSchooled:
		return c.HasSchooled
	case DomainSafe:
		return c.HasSafe
	case DomainStable:
		return c.HasStable
	}
	return false
}

// EntityCoverage joins one beneficiary record with its coverage result.
type EntityCoverage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	District   string `json:"district"`
	EventCount int    `json:"event_count"`
	CoverageResult
	Record Record `json:"-"`
}

// Compute joins beneficiaries to their service events through the foreign-key
// alias list and evaluates all four domains per beneficiary. A domain is
// covered when ANY of the beneficiary's events satisfies it, not only the most
// recent. Output preserves the input order of beneficiaries; beneficiaries
// with no matched events are valid and score zero. Duplicated ids are not
// collapsed here; the data-quality scan reports them instead.
func Compute(beneficiaries, events []Record, idKeys, fkKeys []string) []EntityCoverage {
	byFK := make(map[string][]Record, len(beneficiaries))
	for _, ev := range events {
		fk := Resolve(ev, fkKeys, "")
		if fk == "" {
			continue
		}
		byFK[fk] = append(byFK[fk], ev)
	}

	out := make([]EntityCoverage, 0, len(beneficiaries))
	for _, b := range beneficiaries {
		id := Resolve(b, idKeys, "")
		evs := byFK[id]

		ec := EntityCoverage{
			ID:         id,
			Name:       Resolve(b, NameKeys, ""),
			District:   Resolve(b, DistrictKeys, ""),
			EventCount: len(evs),
			Record:     b,
		}
		for _, d := range Domains {
			field := DomainFields[d]
			provided := false
			for _, ev := range evs {
				if DomainProvided(ev, field) {
					provided = true
					break
				}
			}
			switch d {
			case DomainHealth:
				ec.HasHealth = provided
			case DomainSchooled:
				ec.HasSchooled = provided
			case DomainSafe:
				ec.HasSafe = provided
			case DomainStable:
				ec.HasStable = provided
			}
			if provided {
				ec.DomainCount++
			}
		}
		ec.GraduationReady = ec.DomainCount == len(Domains)
		out = append(out, ec)
	}
	return out
}

// Filter narrows a computed register. All active criteria intersect (AND).
type Filter struct {
	Gap      GapCategory     // empty = all
	District string          // canonical name; empty = all
	Attrs    map[string]bool // record field -> required yes/no value
	Search   string          // case-insensitive substring over id/name/district
}

// Apply filters coverage results, preserving order. districts may be nil when
// no district filter is set.
func Apply(results []EntityCoverage, f Filter, districts *Districts) []EntityCoverage {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]EntityCoverage, 0, len(results))
	for _, ec := range results {
		if !matchesGap(ec.CoverageResult, f.Gap) {
			continue
		}
		if f.District != "" {
			if districts == nil || !districts.Matches(f.District, ec.District) {
				continue
			}
		}
		if !matchesAttrs(ec.Record, f.Attrs) {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(ec.ID + " " + ec.Name + " " + ec.District)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, ec)
	}
	return out
}

func matchesGap(c CoverageResult, gap GapCategory) bool {
	switch gap {
	case "":
		return true
	case GapHealth:
		return !c.HasHealth
	case GapSchooled:
		return !c.HasSchooled
	case GapSafe:
		return !c.HasSafe
	case GapStable:
		return !c.HasStable
	case GraduationPath:
		return c.GraduationReady
	}
	return false
}

func matchesAttrs(rec Record, attrs map[string]bool) bool {
	for field, want := range attrs {
		got := boolish(Resolve(rec, []string{field}, ""))
		if got != want {
			return false
		}
	}
	return true
}
