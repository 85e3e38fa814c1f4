package cli

import (
	stdErrors "errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/output"
	"github.com/xin30hp/CryptoTaxes/report"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

// RealizeCmd computes realized gains and writes the realized, merged and
// holdings CSV files.
type RealizeCmd struct {
	Files  []string `help:"Transaction export files (use '-' for stdin)." arg:""`
	OutDir string   `help:"Directory the CSV reports are written to." short:"o" default:"."`
	SQLite string   `name:"sqlite" help:"Also export the reports into this SQLite database." placeholder:"FILE"`
	Force  bool     `help:"Overwrite existing reports without asking." short:"f"`
}

func (cmd *RealizeCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("realize %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	s, err := process(runCtx, globals, cmd.Files)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	paths := report.Paths(cmd.OutDir)
	if existing := existingFiles(paths); len(existing) > 0 && !cmd.Force {
		confirmed, err := promptYesNo(ctx, fmt.Sprintf("Overwrite %d existing report(s) in %s?", len(existing), cmd.OutDir))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			printError(ctx.Stderr, fmt.Sprintf("reports already exist in %s (use --force to overwrite)", cmd.OutDir))
			return NewCommandError(1)
		}
	}

	run := report.NewRun(s.Ledger)

	writeTimer := telemetry.StartTimer(runCtx, "report.write")
	written, err := report.WriteDir(cmd.OutDir, run)
	if err == nil && cmd.SQLite != "" {
		err = writeSQLite(runCtx, cmd.SQLite, run)
		written = append(written, cmd.SQLite)
	}
	writeTimer.End()
	if err != nil {
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Realized %d record(s), %d after merging, %d below materiality",
		len(run.Realizations), len(run.Merged), len(run.Suppressed)))

	styles := output.NewStyles(ctx.Stdout)
	net := totalNet(run.Realizations)
	printInfof(ctx.Stdout, "Net realized %s", styles.Net(output.Money(net, run.Fiat), net))
	if len(run.Suppressed) > 0 {
		printInfof(ctx.Stdout, "%s", styles.Warning(fmt.Sprintf("%d record(s) below materiality left out of %s",
			len(run.Suppressed), report.RealizedFile)))
	}
	for _, path := range written {
		printInfof(ctx.Stdout, "Wrote %s", pathStyle.Render(path))
	}

	return nil
}

func totalNet(records []ledger.Realization) decimal.Decimal {
	net := decimal.Zero
	for _, r := range records {
		net = net.Add(r.Net)
	}
	return net
}

func existingFiles(paths []string) []string {
	var existing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	return existing
}

// failureSummary is the one-line description printed below a rendered error.
func failureSummary(err error) string {
	var (
		insufficient *ledger.InsufficientLotsError
		config       *ledger.ConfigurationError
		conservation *ledger.ConservationError
	)
	switch {
	case stdErrors.As(err, &insufficient):
		return fmt.Sprintf("not enough %s lots, no reports written", insufficient.Asset)
	case stdErrors.As(err, &config):
		return "invalid configuration"
	case stdErrors.As(err, &conservation):
		return fmt.Sprintf("%s lots do not add up", conservation.Asset)
	default:
		return "failed to process transactions"
	}
}
