package coverage

import (
	"regexp"
	"strings"
)

// Domain is one of the four service categories used to measure case coverage.
type Domain string

const (
	DomainHealth   Domain = "health"
	DomainSchooled Domain = "schooled"
	DomainSafe     Domain = "safe"
	DomainStable   Domain = "stable"
)

// Domains lists all four in stable report order.
var Domains = []Domain{DomainHealth, DomainSchooled, DomainSafe, DomainStable}

// DomainFields maps each domain to the service-event field that records its
// delivery.
var DomainFields = map[Domain]string{
	DomainHealth:   "health_services",
	DomainSchooled: "schooled_services",
	DomainSafe:     "safe_services",
	DomainStable:   "stable_services",
}

// emptySentinels are the textual values upstream forms emit for "nothing was
// delivered". This list is the central business rule for domain presence;
// every register and chart goes through DomainProvided rather than keeping
// its own copy.
var emptySentinels = map[string]struct{}{
	"not applicable": {},
	"n/a":            {},
	"na":             {},
	"none":           {},
	"no":             {},
	"false":          {},
	"0":              {},
	"[]":             {},
	"{}":             {},
	"null":           {},
}

var (
	emptyArrayRe  = regexp.MustCompile(`^\[\s*\]$`)
	emptyObjectRe = regexp.MustCompile(`^\{\s*\}$`)
)

// AddEmptySentinels extends the empty-value sentinel set. Intended for
// startup-time configuration only; the engine itself never mutates it.
func AddEmptySentinels(values ...string) {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			emptySentinels[v] = struct{}{}
		}
	}
}

// DomainProvided reports whether a service event actually delivered the
// domain recorded in the named field. Missing values, blank strings, the
// sentinel set, and empty array/object literals all mean "not provided";
// anything else counts. Malformed values are deliberately treated as not
// provided, favoring under-counted coverage over inflated coverage.
func DomainProvided(rec Record, field string) bool {
	v, ok := rec[field]
	if !ok || v == nil {
		return false
	}
	// Decoded JSON arrays and objects arrive as containers, not text; an
	// empty one means nothing was delivered.
	switch t := v.(type) {
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return meaningfulValue(stringify(v))
}

func meaningfulValue(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if _, ok := emptySentinels[strings.ToLower(trimmed)]; ok {
		return false
	}
	if emptyArrayRe.MatchString(trimmed) || emptyObjectRe.MatchString(trimmed) {
		return false
	}
	return true
}

// boolish interprets yes/no-flavored attribute values for sub-population
// filters. Only an affirmative value is true; everything else, including
// absence, is false.
func boolish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
