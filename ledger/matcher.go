package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Term is the holding-period bucket a lot was matched from.
type Term int

const (
	LongTerm Term = iota
	ShortTerm
)

func (t Term) String() string {
	if t == ShortTerm {
		return "short"
	}
	return "long"
}

// MarshalText implements encoding.TextMarshaler.
func (t Term) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Sale is a single disposal being matched against lots.
type Sale struct {
	Date         time.Time
	Asset        string
	Quantity     decimal.Decimal
	UnitProceeds decimal.Decimal
}

// Realization is the gain or loss realized by consuming part of one lot.
type Realization struct {
	SaleDate        time.Time
	Asset           string
	Quantity        decimal.Decimal
	AcquisitionDate time.Time
	CostBasis       decimal.Decimal
	Proceeds        decimal.Decimal
	Net             decimal.Decimal
	Term            Term
}

// UnitCost returns the cost basis per unit.
func (r Realization) UnitCost() decimal.Decimal {
	if r.Quantity.IsZero() {
		return decimal.Zero
	}
	return r.CostBasis.Div(r.Quantity)
}

// UnitProceeds returns the proceeds per unit.
func (r Realization) UnitProceeds() decimal.Decimal {
	if r.Quantity.IsZero() {
		return decimal.Zero
	}
	return r.Proceeds.Div(r.Quantity)
}

// MatchResult is the outcome of matching a sale against one bucket.
type MatchResult struct {
	// Lots is the bucket after consumption, in the same order as the input.
	Lots []Lot
	// Unmatched is the part of the requested quantity the bucket could not cover.
	Unmatched decimal.Decimal
	// Records are the realizations emitted for the ledger.
	Records []Realization
	// Suppressed are realizations whose net fell below the materiality
	// threshold. Their quantity was still consumed.
	Suppressed []Realization
}

// Match consumes up to requested units of sale.Asset from lots in order.
//
// Empty lots are skipped. A lot larger than what is still requested gives up
// exactly that amount and matching stops; otherwise the lot is zeroed and
// matching moves on. Records with an absolute net below materiality are
// moved to Suppressed. The input slice is never modified.
func Match(lots []Lot, sale Sale, requested decimal.Decimal, term Term, materiality decimal.Decimal) MatchResult {
	result := MatchResult{
		Lots:      append([]Lot(nil), lots...),
		Unmatched: requested,
	}

	for i := range result.Lots {
		if !result.Unmatched.IsPositive() {
			break
		}
		lot := &result.Lots[i]
		if lot.IsEmpty() {
			continue
		}

		consumed := lot.Quantity
		if lot.Quantity.GreaterThan(result.Unmatched) {
			consumed = result.Unmatched
		}
		lot.Quantity = lot.Quantity.Sub(consumed)
		result.Unmatched = result.Unmatched.Sub(consumed)

		record := realize(sale, *lot, consumed, term)
		if record.Net.Abs().LessThan(materiality) {
			result.Suppressed = append(result.Suppressed, record)
		} else {
			result.Records = append(result.Records, record)
		}
	}

	return result
}

func realize(sale Sale, lot Lot, quantity decimal.Decimal, term Term) Realization {
	cost := lot.UnitCost.Mul(quantity)
	proceeds := sale.UnitProceeds.Mul(quantity)
	return Realization{
		SaleDate:        sale.Date,
		Asset:           sale.Asset,
		Quantity:        quantity,
		AcquisitionDate: lot.Date,
		CostBasis:       cost,
		Proceeds:        proceeds,
		Net:             proceeds.Sub(cost),
		Term:            term,
	}
}
