// Package ast declares the types used to represent parsed transaction exports.
//
// An AST holds the buy and sell rows of one or more exchange exports in the
// order they appeared in the source, together with the rows that were
// skipped while parsing. The ledger package consumes it; the parser package
// produces it.
package ast

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes acquisitions from disposals.
type Kind int

const (
	// Buy acquires Quantity of Asset for Total fiat.
	Buy Kind = iota
	// Sell disposes Quantity of Asset for Total fiat.
	Sell
)

func (k Kind) String() string {
	switch k {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// AST represents one or more parsed transaction files.
type AST struct {
	Transactions []*Transaction
	Skipped      []*Skipped
}

// Buys returns the buy transactions in source order.
func (a *AST) Buys() []*Transaction {
	return a.filter(Buy)
}

// Sells returns the sell transactions in source order.
func (a *AST) Sells() []*Transaction {
	return a.filter(Sell)
}

func (a *AST) filter(kind Kind) []*Transaction {
	var out []*Transaction
	for _, txn := range a.Transactions {
		if txn.Kind == kind {
			out = append(out, txn)
		}
	}
	return out
}

// Transaction is a single fiat-priced buy or sell row.
type Transaction struct {
	Pos          Position
	Kind         Kind
	Date         time.Time
	Asset        string
	Quantity     decimal.Decimal
	CounterAsset string          // fiat unit the row is priced in
	Total        decimal.Decimal // total fiat paid (Buy) or received (Sell)
}

// UnitPrice returns Total divided by Quantity.
func (t *Transaction) UnitPrice() decimal.Decimal {
	if t.Quantity.IsZero() {
		return decimal.Zero
	}
	return t.Total.Div(t.Quantity)
}

// Skipped records a source row the parser ignored and why.
type Skipped struct {
	Pos    Position
	Reason string
	Fields []string
}
