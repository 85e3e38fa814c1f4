package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xin30hp/CryptoTaxes/ast"
)

// ConfigurationError is returned when an option has an unusable value. It is
// reported before any transaction is processed.
type ConfigurationError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Option, e.Value, e.Reason)
}

// InsufficientLotsError is returned when a sale asks for more than every
// eligible lot of the asset can cover.
type InsufficientLotsError struct {
	Asset     string
	Date      time.Time
	Requested decimal.Decimal
	Unmatched decimal.Decimal
	Pos       ast.Position
}

func (e *InsufficientLotsError) Error() string {
	location := e.Pos.String()
	if e.Pos.IsZero() {
		location = ast.FormatDate(e.Date)
	}

	return fmt.Sprintf("%s: Not enough %s lots to sell %s (%s unmatched)",
		location, e.Asset, e.Requested.String(), e.Unmatched.String())
}

func (e *InsufficientLotsError) GetPosition() ast.Position {
	return e.Pos
}

// Available returns how much of the requested quantity could be matched.
func (e *InsufficientLotsError) Available() decimal.Decimal {
	return e.Requested.Sub(e.Unmatched)
}

// ConservationError is returned by Audit when the quantity acquired for an
// asset does not equal what remains plus what was consumed.
type ConservationError struct {
	Asset     string
	Created   decimal.Decimal
	Remaining decimal.Decimal
	Consumed  decimal.Decimal
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("%s: acquired %s but %s remain and %s were consumed",
		e.Asset, e.Created.String(), e.Remaining.String(), e.Consumed.String())
}

// FutureLotError is returned by Audit when a realization consumed a lot
// acquired at or after its sale.
type FutureLotError struct {
	Record Realization
}

func (e *FutureLotError) Error() string {
	return fmt.Sprintf("%s: sale on %s consumed a lot acquired on %s",
		e.Record.Asset, ast.FormatDate(e.Record.SaleDate), ast.FormatDate(e.Record.AcquisitionDate))
}
