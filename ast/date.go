package ast

import (
	"fmt"
	"time"
)

// Layouts accepted for the Date column, tried in order.
const (
	DateTimeLayout = "01/02/2006 15:04:05"
	DateLayout     = "01/02/2006"

	// Exports may drop the leading zero of months and days.
	shortDateTimeLayout = "1/2/2006 15:04:05"
	shortDateLayout     = "1/2/2006"
)

// ParseDate parses a date in MM/DD/YYYY HH:MM:SS or MM/DD/YYYY form (UTC).
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateTimeLayout, DateLayout, shortDateTimeLayout, shortDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected MM/DD/YYYY [HH:MM:SS]", s)
}

// FormatDate formats t with DateTimeLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// Day truncates t to the start of its calendar day, keeping its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
