// Package parser reads exchange transaction exports into an ast.AST.
//
// The expected input is a comma separated export with one transaction per
// row. Only the columns listed below are read; everything else is ignored.
//
//	0  Date               MM/DD/YYYY HH:MM:SS or MM/DD/YYYY
//	1  Type               Buy, Sell (other types are skipped)
//	3  Received Quantity  coins bought (Buy) or fiat received (Sell)
//	4  Received Currency  coin bought (Buy) or fiat unit (Sell)
//	11 Sent Quantity      fiat paid (Buy) or coins sold (Sell)
//	12 Sent Currency      fiat unit (Buy, optional) or coin sold (Sell)
//
// Rows that are short, malformed, or not priced in the configured fiat unit
// are not errors. They are recorded in AST.Skipped and otherwise ignored.
package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

// DefaultFiat is the fiat unit rows must be priced in unless configured otherwise.
const DefaultFiat = "USD"

const (
	colDate             = 0
	colType             = 1
	colReceivedQuantity = 3
	colReceivedCurrency = 4
	colSentQuantity     = 11
	colSentCurrency     = 12

	minFields = 3
)

// Parser converts CSV exports into transactions.
type Parser struct {
	// Fiat is the currency a row must be denominated in to be considered.
	Fiat string

	symbols *Interner
}

// Option configures a Parser.
type Option func(*Parser)

// WithFiat sets the fiat unit rows must be priced in.
func WithFiat(unit string) Option {
	return func(p *Parser) {
		if unit != "" {
			p.Fiat = strings.ToUpper(unit)
		}
	}
}

// New creates a Parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{Fiat: DefaultFiat, symbols: NewInterner(16)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseBytes parses data with the default options.
func ParseBytes(ctx context.Context, data []byte) (*ast.AST, error) {
	return New().Parse(ctx, "", bytes.NewReader(data))
}

// ParseBytesWithFilename parses data, recording filename in every position.
func ParseBytesWithFilename(ctx context.Context, filename string, data []byte, opts ...Option) (*ast.AST, error) {
	return New(opts...).Parse(ctx, filename, bytes.NewReader(data))
}

// Parse reads all rows from r. Only I/O failures are returned as errors.
func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) (*ast.AST, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("parser.parse %s", displayName(filename)))
	defer timer.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	tree := &ast.AST{}
	first := true

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if stdErrors.As(err, &csvErr) {
				tree.Skipped = append(tree.Skipped, &ast.Skipped{
					Pos:    ast.Position{Filename: filename, Line: csvErr.StartLine, Column: csvErr.Column},
					Reason: csvErr.Err.Error(),
					Fields: row,
				})
				continue
			}
			return nil, NewParseError(filename, 0, err)
		}

		line, _ := reader.FieldPos(0)
		pos := ast.Position{Filename: filename, Line: line}

		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}

		txn, reason := p.parseRow(pos, row)
		if txn == nil {
			tree.Skipped = append(tree.Skipped, &ast.Skipped{Pos: pos, Reason: reason, Fields: row})
			continue
		}
		tree.Transactions = append(tree.Transactions, txn)
	}

	telemetry.Count(ctx, "parser.transactions", len(tree.Transactions))
	telemetry.Count(ctx, "parser.skipped", len(tree.Skipped))

	return tree, nil
}

// parseRow returns the transaction for row, or nil and the reason it was skipped.
func (p *Parser) parseRow(pos ast.Position, row []string) (*ast.Transaction, string) {
	if len(row) < minFields {
		return nil, fmt.Sprintf("short row (%d fields)", len(row))
	}

	switch strings.TrimSpace(row[colType]) {
	case "Buy":
		return p.parseBuy(pos, row)
	case "Sell":
		return p.parseSell(pos, row)
	default:
		return nil, fmt.Sprintf("unsupported type %q", row[colType])
	}
}

func (p *Parser) parseBuy(pos ast.Position, row []string) (*ast.Transaction, string) {
	if len(row) <= colSentQuantity {
		return nil, fmt.Sprintf("buy row has %d fields, need at least %d", len(row), colSentQuantity+1)
	}

	asset := field(row, colReceivedCurrency)
	if asset == "" || p.isFiat(asset) {
		return nil, "buy does not acquire a non-fiat asset"
	}
	if counter := field(row, colSentCurrency); counter != "" && !p.isFiat(counter) {
		return nil, fmt.Sprintf("buy priced in %s, not %s", counter, p.Fiat)
	}

	return p.build(pos, row, ast.Buy, asset, colReceivedQuantity, colSentQuantity)
}

func (p *Parser) parseSell(pos ast.Position, row []string) (*ast.Transaction, string) {
	if len(row) <= colSentCurrency {
		return nil, fmt.Sprintf("sell row has %d fields, need at least %d", len(row), colSentCurrency+1)
	}

	if counter := field(row, colReceivedCurrency); !p.isFiat(counter) {
		return nil, fmt.Sprintf("sell received %q, not %s", counter, p.Fiat)
	}
	asset := field(row, colSentCurrency)
	if asset == "" || p.isFiat(asset) {
		return nil, "sell does not dispose of a non-fiat asset"
	}

	return p.build(pos, row, ast.Sell, asset, colSentQuantity, colReceivedQuantity)
}

func (p *Parser) build(pos ast.Position, row []string, kind ast.Kind, asset string, quantityCol, totalCol int) (*ast.Transaction, string) {
	date, err := ast.ParseDate(field(row, colDate))
	if err != nil {
		return nil, err.Error()
	}

	quantity, err := parseDecimal(field(row, quantityCol))
	if err != nil {
		return nil, fmt.Sprintf("invalid quantity: %v", err)
	}
	// A zero-quantity sale is valid and realizes nothing.
	zeroSale := kind == ast.Sell && quantity.IsZero()
	if !quantity.IsPositive() && !zeroSale {
		return nil, fmt.Sprintf("quantity must be positive, got %s", quantity)
	}

	total, err := parseDecimal(field(row, totalCol))
	if zeroSale && field(row, totalCol) == "" {
		total, err = decimal.Zero, nil
	}
	if err != nil {
		return nil, fmt.Sprintf("invalid %s value: %v", p.Fiat, err)
	}
	if total.IsNegative() || (total.IsZero() && !zeroSale) {
		return nil, fmt.Sprintf("%s value must be positive, got %s", p.Fiat, total)
	}

	return &ast.Transaction{
		Pos:          pos,
		Kind:         kind,
		Date:         date,
		Asset:        p.symbols.Intern(asset),
		Quantity:     quantity,
		CounterAsset: p.Fiat,
		Total:        total,
	}, ""
}

func (p *Parser) isFiat(currency string) bool {
	return strings.EqualFold(currency, p.Fiat)
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDecimal accepts plain decimals with optional thousands separators.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}

func isHeader(row []string) bool {
	return len(row) > colType && strings.EqualFold(strings.TrimSpace(row[colType]), "Type")
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}
