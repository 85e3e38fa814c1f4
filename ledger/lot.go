package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xin30hp/CryptoTaxes/ast"
)

// Lot is a single acquisition of an asset with its own cost basis.
//
// Quantity is decremented as the lot is consumed by sales and never goes
// negative. A fully consumed lot keeps a zero quantity and stays in
// Holdings so the history of every acquisition remains visible.
type Lot struct {
	Date     time.Time
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// IsEmpty reports whether the lot has nothing left to consume.
func (l Lot) IsEmpty() bool {
	return !l.Quantity.IsPositive()
}

// Cost returns the cost basis of the remaining quantity.
func (l Lot) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

func (l Lot) String() string {
	return fmt.Sprintf("%s %s @ %s", ast.FormatDate(l.Date), l.Quantity.String(), l.UnitCost.String())
}

// Holding pairs a resident lot with the asset it belongs to.
type Holding struct {
	Asset string
	Lot
}

func totalQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Quantity)
	}
	return total
}
