package receipt

import (
	"fmt"
	"strings"
)

// FormatText renders one "key: value" line per present field.
func FormatText(rec Record) string {
	if rec.IsEmpty() {
		return "(no fields recognised)\n"
	}
	var b strings.Builder
	for _, f := range rec.Keys() {
		v, _ := rec.Get(f)
		fmt.Fprintf(&b, "%s: %s\n", f, v)
	}
	return b.String()
}

// CSVHeader returns the column names used by CSVRow.
func CSVHeader() []string {
	fields := Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// CSVRow renders rec with one column per known field; absent fields are empty.
func CSVRow(rec Record) []string {
	fields := Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		if v, ok := rec.Get(f); ok {
			out[i] = v.String()
		}
	}
	return out
}
