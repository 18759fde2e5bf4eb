package coverage

import (
	"sort"
	"strings"
	"unicode"
)

// Districts groups the raw district spellings observed in a dataset under
// canonical names. Source data is not normalized upstream ("Lusaka",
// " lusaka ", "LUSAKA" all occur), so filtering by district is a membership
// test against the variant set, never string equality.
type Districts struct {
	variants map[string]map[string]struct{}
}

// Canonicalize derives the canonical district name for a raw spelling:
// trimmed, title-cased. ok is false for blank input, which is excluded from
// district filtering entirely.
func Canonicalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return titleCase(trimmed), true
}

// BuildDistricts scans records for district values and buckets every raw
// spelling under its canonical name. Records without a district are skipped.
func BuildDistricts(records []Record) *Districts {
	d := &Districts{variants: make(map[string]map[string]struct{})}
	for _, rec := range records {
		raw := Resolve(rec, DistrictKeys, "")
		d.Add(raw)
	}
	return d
}

// Add inserts one raw spelling into its canonical bucket. Blank input is a
// no-op.
func (d *Districts) Add(raw string) {
	canonical, ok := Canonicalize(raw)
	if !ok {
		return
	}
	set, ok := d.variants[canonical]
	if !ok {
		set = make(map[string]struct{})
		d.variants[canonical] = set
	}
	set[raw] = struct{}{}
}

// Names returns the canonical district names in sorted order.
func (d *Districts) Names() []string {
	names := make([]string, 0, len(d.variants))
	for name := range d.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variants returns the raw spellings bucketed under a canonical name.
func (d *Districts) Variants(canonical string) []string {
	set := d.variants[canonical]
	out := make([]string, 0, len(set))
	for raw := range set {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether a record's raw district value belongs to the given
// canonical bucket. A raw spelling never seen by Add still matches when it
// canonicalizes to the same name, so filters built from one snapshot remain
// usable against the next.
func (d *Districts) Matches(canonical, raw string) bool {
	if set, ok := d.variants[canonical]; ok {
		if _, ok := set[raw]; ok {
			return true
		}
	}
	got, ok := Canonicalize(raw)
	return ok && got == canonical
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || r == '-' || r == '\'' {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
