package coverage

import "strings"

// ToCSV encodes a header row plus data rows as RFC4180-style CSV text: fields
// containing a comma, quote, or newline are wrapped in double quotes with
// internal quotes doubled; rows are joined by "\n". With no rows the output
// is the header line alone. Total for any string input.
func ToCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	writeRow(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(f))
	}
}

func escapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// Column maps one register column to its header and value extractor.
type Column struct {
	Header string
	Value  func(EntityCoverage) string
}

// RenderTable projects coverage results through a column spec, producing the
// headers and rows ToCSV consumes.
func RenderTable(results []EntityCoverage, cols []Column) ([]string, [][]string) {
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	rows := make([][]string, len(results))
	for i, ec := range results {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Value(ec)
		}
		rows[i] = row
	}
	return headers, rows
}

// YesNo renders a coverage flag the way register exports display it.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
