package coverage

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthKey is a calendar month used for bucketed aggregation.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Before orders months chronologically.
func (m MonthKey) Before(o MonthKey) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// ParseMonthYear extracts a (year, month) pair from the date-string formats
// the upstream systems emit: YYYY-MM, YYYY-MM-DD (and ISO timestamps),
// DD-MM-YYYY, MM-YYYY, with either "-" or "/" as separator. A four-digit
// first token means year-first; otherwise the year is taken from the last
// token. ok is false for anything unparseable or a month outside 1-12;
// callers exclude such records from monthly buckets rather than failing.
func ParseMonthYear(raw string) (MonthKey, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return MonthKey{}, false
	}
	// ISO timestamps carry the date before 'T'.
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "/", "-")

	parts := strings.Split(s, "-")
	if len(parts) < 2 || len(parts) > 3 {
		return MonthKey{}, false
	}

	var yearTok, monthTok string
	switch {
	case len(parts[0]) == 4:
		// YYYY-MM or YYYY-MM-DD
		yearTok, monthTok = parts[0], parts[1]
	case len(parts[len(parts)-1]) == 4:
		// MM-YYYY or DD-MM-YYYY
		yearTok = parts[len(parts)-1]
		if len(parts) == 3 {
			monthTok = parts[1]
		} else {
			monthTok = parts[0]
		}
	default:
		return MonthKey{}, false
	}

	year, err := strconv.Atoi(yearTok)
	if err != nil || year <= 0 {
		return MonthKey{}, false
	}
	month, err := strconv.Atoi(monthTok)
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, false
	}
	return MonthKey{Year: year, Month: month}, true
}
