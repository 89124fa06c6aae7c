// Package importer converts tabular statement rows into canonical
// transactions, matching money and date formats per source, and reconciles
// each candidate against already-known transactions through a
// merge-resolution contract.
package importer

// ParseRows tokenizes raw statement text into rows of fields. A double
// quote toggles an "inside quoted field" mode; commas and newlines separate
// fields and rows only outside quotes. Trailing all-empty fields are
// trimmed from the header row only, since exporters commonly pad the header
// line with stray separators.
func ParseRows(data []byte) [][]string {
	var (
		rows     [][]string
		row      []string
		field    []rune
		inQuotes bool
	)

	flushField := func() {
		row = append(row, string(field))
		field = field[:0]
	}
	flushRow := func() {
		flushField()
		rows = append(rows, row)
		row = nil
	}

	for _, r := range string(data) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			flushField()
		case r == '\n' && !inQuotes:
			flushRow()
		case r == '\r' && !inQuotes:
			// swallowed: CRLF input rows end at the LF
		default:
			field = append(field, r)
		}
	}
	if len(field) > 0 || len(row) > 0 {
		flushRow()
	}

	// Drop rows that are entirely empty (blank lines).
	filtered := rows[:0]
	for _, r := range rows {
		if !allEmpty(r) {
			filtered = append(filtered, r)
		}
	}
	rows = filtered

	if len(rows) > 0 {
		rows[0] = trimTrailingEmpty(rows[0])
	}
	return rows
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(fields []string) []string {
	end := len(fields)
	for end > 0 && fields[end-1] == "" {
		end--
	}
	return fields[:end]
}
