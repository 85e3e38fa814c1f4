package ledger

import "time"

// Buckets partitions an asset's lots relative to a sale date. Each bucket
// keeps the relative order of the input.
type Buckets struct {
	// Future holds lots acquired at or after the sale; they are never matched.
	Future    []Lot
	ShortTerm []Lot
	LongTerm  []Lot
}

// Lots reassembles the buckets as future, short-term, long-term.
func (b Buckets) Lots() []Lot {
	out := make([]Lot, 0, len(b.Future)+len(b.ShortTerm)+len(b.LongTerm))
	out = append(out, b.Future...)
	out = append(out, b.ShortTerm...)
	return append(out, b.LongTerm...)
}

// Classify splits lots by their acquisition date against saleDate.
//
// When forceShortTerm is false every lot acquired before the sale is long-term
// eligible, whatever its holding period. When it is true, lots acquired within
// one year and one day before the sale are short-term.
func Classify(saleDate time.Time, lots []Lot, forceShortTerm bool) Buckets {
	threshold := ShortTermThreshold(saleDate)

	var buckets Buckets
	for _, lot := range lots {
		switch {
		case !lot.Date.Before(saleDate):
			buckets.Future = append(buckets.Future, lot)
		case forceShortTerm && !lot.Date.Before(threshold):
			buckets.ShortTerm = append(buckets.ShortTerm, lot)
		default:
			buckets.LongTerm = append(buckets.LongTerm, lot)
		}
	}
	return buckets
}

// ShortTermThreshold returns saleDate minus one calendar year and one day.
// A February 29 sale date steps back to February 28 of the prior year
// before the day is subtracted.
func ShortTermThreshold(saleDate time.Time) time.Time {
	year, month, day := saleDate.Date()
	if month == time.February && day == 29 {
		day = 28
	}
	hour, minute, sec := saleDate.Clock()
	yearBefore := time.Date(year-1, month, day, hour, minute, sec, saleDate.Nanosecond(), saleDate.Location())
	return yearBefore.AddDate(0, 0, -1)
}
