package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/output"
)

// HoldingsCmd prints the lots left after every sale has been matched.
type HoldingsCmd struct {
	Files []string `help:"Transaction export files (use '-' for stdin)." arg:""`
	All   bool     `help:"Include fully consumed lots." short:"a"`
}

func (cmd *HoldingsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("holdings %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	s, err := process(runCtx, globals, cmd.Files)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	return renderHoldings(ctx.Stdout, s.Ledger.Holdings().Snapshot(), s.Config.Fiat, cmd.All)
}

func renderHoldings(w io.Writer, holdings []ledger.Holding, fiat string, all bool) error {
	styles := output.NewStyles(w)

	table := output.NewTable("Asset", "Acquired", "Quantity", "Unit cost", "Cost basis").AlignRight(2, 3, 4)
	for _, h := range holdings {
		if h.IsEmpty() && !all {
			continue
		}
		table.AddRow(h.Asset, ast.FormatDate(h.Date), h.Quantity.String(),
			output.Money(h.UnitCost, fiat), output.Money(h.Cost(), fiat))
	}

	if table.Len() == 0 {
		_, err := fmt.Fprintln(w, styles.Dim("No holdings."))
		return err
	}

	table.Cell = func(row, col int, padded string) string {
		switch col {
		case 0:
			return styles.Asset(padded)
		case 2:
			return styles.Amount(padded)
		default:
			return padded
		}
	}
	return table.Render(w, styles)
}
