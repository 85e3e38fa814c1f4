package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/xin30hp/CryptoTaxes/ast"
)

// MergeTolerance bounds how far the per-unit cost and per-unit proceeds of
// two adjacent realizations may differ, relative to the preceding record,
// for them to be merged.
type MergeTolerance struct {
	Cost     decimal.Decimal
	Proceeds decimal.Decimal
}

// DefaultMergeTolerance is ±1% on unit cost and ±0.1% on unit proceeds.
func DefaultMergeTolerance() MergeTolerance {
	return MergeTolerance{
		Cost:     decimal.RequireFromString("0.01"),
		Proceeds: decimal.RequireFromString("0.001"),
	}
}

// Merge collapses adjacent realizations that describe the same sale split
// across several lots acquired on the same day.
//
// A record only ever merges into the record immediately before it (which may
// already be a merge result). Every row of the result carries day-truncated
// dates. Passes repeat until nothing merges, so Merge(Merge(x)) == Merge(x).
// The price of that is that a later pass may join two records that were out
// of tolerance in the first one, once the earlier record has absorbed its
// neighbours and its unit prices have moved. The input is not modified.
func Merge(records []Realization, tolerance MergeTolerance) []Realization {
	merged, changed := mergePass(records, tolerance)
	for changed {
		merged, changed = mergePass(merged, tolerance)
	}
	return merged
}

func mergePass(records []Realization, tolerance MergeTolerance) ([]Realization, bool) {
	out := make([]Realization, 0, len(records))
	changed := false
	for _, record := range records {
		record.SaleDate = ast.Day(record.SaleDate)
		record.AcquisitionDate = ast.Day(record.AcquisitionDate)

		if n := len(out); n > 0 && tolerance.mergeable(out[n-1], record) {
			prev := &out[n-1]
			prev.Quantity = prev.Quantity.Add(record.Quantity)
			prev.CostBasis = prev.CostBasis.Add(record.CostBasis)
			prev.Proceeds = prev.Proceeds.Add(record.Proceeds)
			prev.Net = prev.Net.Add(record.Net)
			changed = true
			continue
		}
		out = append(out, record)
	}
	return out, changed
}

// mergeable expects both records to carry day-truncated dates.
func (t MergeTolerance) mergeable(prev, next Realization) bool {
	return prev.Asset == next.Asset &&
		prev.SaleDate.Equal(next.SaleDate) &&
		prev.AcquisitionDate.Equal(next.AcquisitionDate) &&
		within(prev.UnitCost(), next.UnitCost(), t.Cost) &&
		within(prev.UnitProceeds(), next.UnitProceeds(), t.Proceeds)
}

// within reports whether |ref - v| <= tolerance * |ref|.
func within(ref, v, tolerance decimal.Decimal) bool {
	return ref.Sub(v).Abs().LessThanOrEqual(tolerance.Mul(ref.Abs()))
}
