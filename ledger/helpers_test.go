package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xin30hp/CryptoTaxes/ast"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := ast.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func lot(when, quantity, unitCost string) Lot {
	return Lot{Date: date(when), Quantity: d(quantity), UnitCost: d(unitCost)}
}

func buy(when, asset, quantity, total string) *ast.Transaction {
	return &ast.Transaction{
		Kind:         ast.Buy,
		Date:         date(when),
		Asset:        asset,
		Quantity:     d(quantity),
		CounterAsset: "USD",
		Total:        d(total),
	}
}

func sell(when, asset, quantity, total string) *ast.Transaction {
	txn := buy(when, asset, quantity, total)
	txn.Kind = ast.Sell
	return txn
}

func tree(txns ...*ast.Transaction) *ast.AST {
	for i, txn := range txns {
		txn.Pos = ast.Position{Filename: "trades.csv", Line: i + 2}
	}
	return &ast.AST{Transactions: txns}
}

// describe renders records compactly so they can be compared with assert.Equal.
func describe(records []Realization) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, fmt.Sprintf("%s %s %s acq=%s cost=%s proceeds=%s net=%s %s",
			ast.FormatDate(r.SaleDate), r.Asset, r.Quantity, ast.FormatDate(r.AcquisitionDate),
			r.CostBasis, r.Proceeds, r.Net, r.Term))
	}
	return out
}

func describeLots(lots []Lot) []string {
	out := make([]string, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.String())
	}
	return out
}
