package coverage

import "sort"

// CaseworkerSummary aggregates service delivery per caseworker.
type CaseworkerSummary struct {
	Name          string         `json:"name"`
	Events        int            `json:"events"`
	Beneficiaries int            `json:"beneficiaries"`
	Districts     []string       `json:"districts"`
	ByDomain      map[Domain]int `json:"by_domain"`
	LastActive    string         `json:"last_active,omitempty"`
}

// CaseworkerStats groups service events by resolved caseworker name and
// summarizes volume, reach, and recency. Events with no resolvable caseworker
// are grouped under the sentinel "Unassigned". Output is sorted by event
// count descending, then name, so the busiest caseworkers lead the table.
func CaseworkerStats(events []Record, fkKeys []string) []CaseworkerSummary {
	type acc struct {
		events        int
		beneficiaries map[string]struct{}
		districts     map[string]struct{}
		byDomain      map[Domain]int
		lastActive    MonthKey
		hasActivity   bool
	}
	byName := make(map[string]*acc)

	for _, ev := range events {
		name := Resolve(ev, CaseworkerKeys, "Unassigned")
		a, ok := byName[name]
		if !ok {
			a = &acc{
				beneficiaries: make(map[string]struct{}),
				districts:     make(map[string]struct{}),
				byDomain:      make(map[Domain]int),
			}
			byName[name] = a
		}
		a.events++
		if fk := Resolve(ev, fkKeys, ""); fk != "" {
			a.beneficiaries[fk] = struct{}{}
		}
		if canonical, ok := Canonicalize(Resolve(ev, DistrictKeys, "")); ok {
			a.districts[canonical] = struct{}{}
		}
		for _, d := range Domains {
			if DomainProvided(ev, DomainFields[d]) {
				a.byDomain[d]++
			}
		}
		if key, ok := ParseMonthYear(Resolve(ev, DateKeys, "")); ok {
			if !a.hasActivity || a.lastActive.Before(key) {
				a.lastActive = key
				a.hasActivity = true
			}
		}
	}

	out := make([]CaseworkerSummary, 0, len(byName))
	for name, a := range byName {
		districts := make([]string, 0, len(a.districts))
		for d := range a.districts {
			districts = append(districts, d)
		}
		sort.Strings(districts)

		s := CaseworkerSummary{
			Name:          name,
			Events:        a.events,
			Beneficiaries: len(a.beneficiaries),
			Districts:     districts,
			ByDomain:      a.byDomain,
		}
		if a.hasActivity {
			s.LastActive = a.lastActive.String()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Events != out[j].Events {
			return out[i].Events > out[j].Events
		}
		return out[i].Name < out[j].Name
	})
	return out
}
