package coverage

import "sort"

// MonthBucket holds service delivery counts for one calendar month.
type MonthBucket struct {
	Month    MonthKey       `json:"-"`
	Label    string         `json:"month"`
	Total    int            `json:"total"`
	ByDomain map[Domain]int `json:"by_domain"`
}

// MonthlySeries is a chronologically sorted set of month buckets. Skipped
// counts events whose date could not be parsed into a month.
type MonthlySeries struct {
	Buckets []MonthBucket `json:"buckets"`
	Skipped int           `json:"skipped"`
}

// MonthlyCounts buckets service events by calendar month, counting total
// events and per-domain deliveries. Events with missing or unparseable dates
// are excluded from buckets and tallied in Skipped.
func MonthlyCounts(events []Record, dateKeys []string) MonthlySeries {
	byMonth := make(map[MonthKey]*MonthBucket)
	var series MonthlySeries

	for _, ev := range events {
		key, ok := ParseMonthYear(Resolve(ev, dateKeys, ""))
		if !ok {
			series.Skipped++
			continue
		}
		bucket, ok := byMonth[key]
		if !ok {
			bucket = &MonthBucket{Month: key, Label: key.String(), ByDomain: make(map[Domain]int)}
			byMonth[key] = bucket
		}
		bucket.Total++
		for _, d := range Domains {
			if DomainProvided(ev, DomainFields[d]) {
				bucket.ByDomain[d]++
			}
		}
	}

	for _, bucket := range byMonth {
		series.Buckets = append(series.Buckets, *bucket)
	}
	sort.Slice(series.Buckets, func(i, j int) bool {
		return series.Buckets[i].Month.Before(series.Buckets[j].Month)
	})
	return series
}
