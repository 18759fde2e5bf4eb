package coverage

// QualityIssue names one class of flagged data problem.
type QualityIssue string

const (
	IssueMissingID       QualityIssue = "missing_id"
	IssueDuplicateID     QualityIssue = "duplicate_id"
	IssueMissingDistrict QualityIssue = "missing_district"
	IssueOrphanEvent     QualityIssue = "orphan_event"
	IssueBadDate         QualityIssue = "bad_date"
)

// QualityIssues lists all issue classes in report order.
var QualityIssues = []QualityIssue{
	IssueMissingID, IssueDuplicateID, IssueMissingDistrict, IssueOrphanEvent, IssueBadDate,
}

// UnknownDistrict buckets issues on records that carry no usable district.
const UnknownDistrict = "Unknown"

// QualityReport tallies flagged issues, overall and per canonical district.
type QualityReport struct {
	Total      map[QualityIssue]int            `json:"total"`
	ByDistrict map[string]map[QualityIssue]int `json:"by_district"`
}

// QualityScan flags structural problems in a dataset: beneficiaries with
// missing or duplicated ids, beneficiaries without a district, events whose
// foreign key matches no beneficiary, and events whose date does not parse.
// Event slices may mix registers; an event carrying none of this register's
// FK fields belongs to another register and is skipped, while a present but
// blank or unresolvable FK is an orphan. It never modifies or drops records;
// it only reports.
func QualityScan(beneficiaries, events []Record, idKeys, fkKeys []string) QualityReport {
	report := QualityReport{
		Total:      make(map[QualityIssue]int),
		ByDistrict: make(map[string]map[QualityIssue]int),
	}
	flag := func(district string, issue QualityIssue) {
		report.Total[issue]++
		m, ok := report.ByDistrict[district]
		if !ok {
			m = make(map[QualityIssue]int)
			report.ByDistrict[district] = m
		}
		m[issue]++
	}
	districtOf := func(rec Record) string {
		canonical, ok := Canonicalize(Resolve(rec, DistrictKeys, ""))
		if !ok {
			return UnknownDistrict
		}
		return canonical
	}

	knownIDs := make(map[string]int, len(beneficiaries))
	for _, b := range beneficiaries {
		if id := Resolve(b, idKeys, ""); id != "" {
			knownIDs[id]++
		}
	}

	for _, b := range beneficiaries {
		district := districtOf(b)
		id := Resolve(b, idKeys, "")
		if id == "" {
			flag(district, IssueMissingID)
		} else if knownIDs[id] > 1 {
			flag(district, IssueDuplicateID)
		}
		if district == UnknownDistrict {
			flag(district, IssueMissingDistrict)
		}
	}

	for _, ev := range events {
		if !hasAnyField(ev, fkKeys) {
			continue
		}
		district := districtOf(ev)
		fk := Resolve(ev, fkKeys, "")
		if fk == "" || knownIDs[fk] == 0 {
			flag(district, IssueOrphanEvent)
		}
		if _, ok := ParseMonthYear(Resolve(ev, DateKeys, "")); !ok {
			flag(district, IssueBadDate)
		}
	}
	return report
}
