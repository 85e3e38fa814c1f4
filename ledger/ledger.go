// Package ledger computes realized gains using lot-based cost accounting.
//
// Every buy becomes a Lot in Holdings. Every sell is matched against the lots
// of its asset: lots acquired at or after the sale are ignored, long-term
// eligible lots are consumed before short-term ones, and within a bucket lots
// are consumed in the order of the configured Policy (FIFO, LIFO or HIFO).
// Each consumed slice of a lot produces a Realization. Merge compacts the
// resulting ledger by joining adjacent records that describe the same sale.
//
// Processing is sequential and deterministic: the same input and Config
// always produce the same records in the same order.
//
// Example usage:
//
//	tree, err := parser.ParseBytes(ctx, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(ledger.NewConfig())
//	if err := l.Process(ctx, tree); err != nil {
//	    var insufficient *ledger.InsufficientLotsError
//	    if errors.As(err, &insufficient) {
//	        fmt.Println(insufficient.Asset, insufficient.Unmatched)
//	    }
//	}
//
//	for _, r := range l.Merged() {
//	    fmt.Println(r.Asset, r.Net)
//	}
package ledger

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

// Ledger owns the lot book and the realizations of one batch run.
type Ledger struct {
	config       *Config
	holdings     *Holdings
	acquired     map[string]decimal.Decimal
	realizations []Realization
	suppressed   []Realization
}

// New creates an empty ledger. A nil config uses NewConfig.
func New(config *Config) *Ledger {
	if config == nil {
		config = NewConfig()
	}
	return &Ledger{
		config:   config,
		holdings: NewHoldings(),
		acquired: make(map[string]decimal.Decimal),
	}
}

// Process loads every buy of tree into Holdings and then matches every sell
// in source order.
//
// Processing stops at the first sale that cannot be covered. That sale leaves
// no records and no change to Holdings; earlier sales stand.
func (l *Ledger) Process(ctx context.Context, tree *ast.AST) error {
	if err := l.config.Validate(); err != nil {
		return err
	}

	buys := tree.Buys()
	buyTimer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.buys (%d transactions)", len(buys)))
	for _, txn := range buys {
		l.acquire(txn)
	}
	for _, asset := range l.holdings.Assets() {
		l.holdings.Reorder(asset, l.config.Policy)
	}
	buyTimer.End()

	sells := tree.Sells()
	sellTimer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.sells (%d transactions)", len(sells)))
	defer sellTimer.End()
	for _, txn := range sells {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		emitted, suppressed := len(l.realizations), len(l.suppressed)
		if err := l.sell(txn); err != nil {
			return err
		}
		telemetry.Count(ctx, "ledger.realizations", len(l.realizations)-emitted)
		telemetry.Count(ctx, "ledger.suppressed", len(l.suppressed)-suppressed)
	}

	return nil
}

func (l *Ledger) acquire(txn *ast.Transaction) {
	l.holdings.Append(txn.Asset, Lot{
		Date:     txn.Date,
		Quantity: txn.Quantity,
		UnitCost: txn.UnitPrice(),
	})
	l.acquired[txn.Asset] = l.acquired[txn.Asset].Add(txn.Quantity)
}

func (l *Ledger) sell(txn *ast.Transaction) error {
	sale := Sale{
		Date:         txn.Date,
		Asset:        txn.Asset,
		Quantity:     txn.Quantity,
		UnitProceeds: txn.UnitPrice(),
	}

	buckets := Classify(sale.Date, l.holdings.Lots(sale.Asset), l.config.ForceShortTerm)
	long := Match(buckets.LongTerm, sale, sale.Quantity, LongTerm, l.config.Materiality)
	short := Match(buckets.ShortTerm, sale, long.Unmatched, ShortTerm, l.config.Materiality)
	if short.Unmatched.IsPositive() {
		return &InsufficientLotsError{
			Asset:     sale.Asset,
			Date:      sale.Date,
			Requested: sale.Quantity,
			Unmatched: short.Unmatched,
			Pos:       txn.Pos,
		}
	}

	l.holdings.Replace(sale.Asset, Buckets{
		Future:    buckets.Future,
		ShortTerm: short.Lots,
		LongTerm:  long.Lots,
	}.Lots())
	l.holdings.Reorder(sale.Asset, l.config.Policy)

	l.realizations = append(l.realizations, long.Records...)
	l.realizations = append(l.realizations, short.Records...)
	l.suppressed = append(l.suppressed, long.Suppressed...)
	l.suppressed = append(l.suppressed, short.Suppressed...)
	return nil
}

// Config returns the configuration the ledger runs with.
func (l *Ledger) Config() *Config {
	return l.config
}

// Holdings returns the lot book.
func (l *Ledger) Holdings() *Holdings {
	return l.holdings
}

// Realizations returns the realization ledger in emission order.
func (l *Ledger) Realizations() []Realization {
	return append([]Realization(nil), l.realizations...)
}

// Suppressed returns the realizations dropped for falling below the
// materiality threshold.
func (l *Ledger) Suppressed() []Realization {
	return append([]Realization(nil), l.suppressed...)
}

// Merged returns the realization ledger compacted by Merge.
func (l *Ledger) Merged() []Realization {
	return Merge(l.realizations, l.config.Tolerance)
}

// Audit verifies that no realization consumed a lot acquired at or after its
// sale, and that for every asset the acquired quantity equals what remains in
// Holdings plus what was consumed, suppressed records included.
func (l *Ledger) Audit() error {
	consumed := append(l.Realizations(), l.suppressed...)
	for _, record := range consumed {
		if !record.AcquisitionDate.Before(record.SaleDate) {
			return &FutureLotError{Record: record}
		}
	}

	byAsset := lo.GroupBy(consumed, func(r Realization) string { return r.Asset })
	for _, asset := range lo.Union(l.holdings.Assets(), lo.Keys(byAsset)) {
		used := lo.Reduce(byAsset[asset], func(sum decimal.Decimal, r Realization, _ int) decimal.Decimal {
			return sum.Add(r.Quantity)
		}, decimal.Zero)
		remaining := l.holdings.Quantity(asset)
		created := l.acquired[asset]
		if !created.Equal(remaining.Add(used)) {
			return &ConservationError{
				Asset:     asset,
				Created:   created,
				Remaining: remaining,
				Consumed:  used,
			}
		}
	}
	return nil
}
