package report

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/output"
)

// SummaryRow is the net realized for one asset in one sale year.
type SummaryRow struct {
	Year      int
	Asset     string
	ShortTerm decimal.Decimal
	LongTerm  decimal.Decimal
}

// Total returns the short and long term net combined.
func (r SummaryRow) Total() decimal.Decimal {
	return r.ShortTerm.Add(r.LongTerm)
}

// Summarize totals records by sale year and asset. Years are ascending and
// assets keep the order they first appear in within a year.
func Summarize(records []ledger.Realization) []SummaryRow {
	byYear := lo.GroupBy(records, func(r ledger.Realization) int { return r.SaleDate.Year() })
	years := lo.Keys(byYear)
	slices.Sort(years)

	var rows []SummaryRow
	for _, year := range years {
		group := byYear[year]
		assets := lo.Uniq(lo.Map(group, func(r ledger.Realization, _ int) string { return r.Asset }))
		for _, asset := range assets {
			row := SummaryRow{Year: year, Asset: asset}
			for _, r := range group {
				if r.Asset != asset {
					continue
				}
				if r.Term == ledger.ShortTerm {
					row.ShortTerm = row.ShortTerm.Add(r.Net)
				} else {
					row.LongTerm = row.LongTerm.Add(r.Net)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Markdown renders rows as one table per year with amounts in fiat.
func Markdown(rows []SummaryRow, fiat string) string {
	var b strings.Builder
	b.WriteString("# Realized gains\n")

	if len(rows) == 0 {
		b.WriteString("\nNo realized gains or losses.\n")
		return b.String()
	}

	byYear := lo.GroupBy(rows, func(r SummaryRow) int { return r.Year })
	years := lo.Keys(byYear)
	slices.Sort(years)

	for _, year := range years {
		fmt.Fprintf(&b, "\n## %d\n\n", year)
		b.WriteString("| Asset | Short term | Long term | Net |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")

		total := SummaryRow{Year: year}
		for _, row := range byYear[year] {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Asset,
				output.Money(row.ShortTerm, fiat), output.Money(row.LongTerm, fiat), output.Money(row.Total(), fiat))
			total.ShortTerm = total.ShortTerm.Add(row.ShortTerm)
			total.LongTerm = total.LongTerm.Add(row.LongTerm)
		}
		fmt.Fprintf(&b, "| **Total** | **%s** | **%s** | **%s** |\n",
			output.Money(total.ShortTerm, fiat), output.Money(total.LongTerm, fiat), output.Money(total.Total(), fiat))
	}

	return b.String()
}
