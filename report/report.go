// Package report writes the results of a ledger run: the realization ledger,
// its merged variant, and the holdings snapshot, as CSV files, as a SQLite
// database, or as a markdown summary of gains per year.
package report

import (
	"github.com/xin30hp/CryptoTaxes/ledger"
)

// Run is the output of one processed ledger.
type Run struct {
	Fiat         string
	Realizations []ledger.Realization
	Merged       []ledger.Realization
	Suppressed   []ledger.Realization
	Holdings     []ledger.Holding
}

// NewRun captures the current results of l.
func NewRun(l *ledger.Ledger) *Run {
	return &Run{
		Fiat:         l.Config().Fiat,
		Realizations: l.Realizations(),
		Merged:       l.Merged(),
		Suppressed:   l.Suppressed(),
		Holdings:     l.Holdings().Snapshot(),
	}
}
