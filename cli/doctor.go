package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/xin30hp/CryptoTaxes/ast"
)

// DoctorCmd provides doctor utilities for debugging transaction exports.
type DoctorCmd struct {
	Skipped SkippedCmd `cmd:"" help:"List the rows that were skipped and why."`
	Dump    DumpCmd    `cmd:"" help:"Print the parsed transactions."`
	Audit   AuditCmd   `cmd:"" help:"Check that every acquired unit is either held or sold."`
}

// SkippedCmd lists rows the parser ignored.
type SkippedCmd struct {
	Files []string `help:"Transaction export files (use '-' for stdin)." arg:""`
}

func (cmd *SkippedCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("skipped %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	cfg, err := buildConfig(globals)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	result, err := loadFiles(runCtx, cfg, cmd.Files)
	if err != nil {
		return err
	}

	if len(result.AST.Skipped) == 0 {
		printSuccess(ctx.Stdout, fmt.Sprintf("No rows skipped (%d transactions)", len(result.AST.Transactions)))
		return nil
	}

	renderer := NewErrorRenderer()
	for _, s := range result.AST.Skipped {
		_, _ = fmt.Fprintln(ctx.Stdout, renderer.RenderSkipped(s))
	}
	printInfof(ctx.Stdout, "%d row(s) skipped, %d transactions read", len(result.AST.Skipped), len(result.AST.Transactions))
	return nil
}

// DumpCmd prints the parsed AST.
type DumpCmd struct {
	Files []string `help:"Transaction export files (use '-' for stdin)." arg:""`
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := buildConfig(globals)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	result, err := loadFiles(context.Background(), cfg, cmd.Files)
	if err != nil {
		return err
	}

	rows := make([]dumpedTransaction, 0, len(result.AST.Transactions))
	for _, txn := range result.AST.Transactions {
		rows = append(rows, dumpedTransaction{
			Pos:      txn.Pos.String(),
			Kind:     txn.Kind.String(),
			Date:     ast.FormatDate(txn.Date),
			Asset:    txn.Asset,
			Quantity: txn.Quantity.String(),
			Total:    txn.Total.String() + " " + txn.CounterAsset,
		})
	}
	repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitEmpty(true)).Println(rows)
	return nil
}

// dumpedTransaction is the printable form of an ast.Transaction.
type dumpedTransaction struct {
	Pos      string
	Kind     string
	Date     string
	Asset    string
	Quantity string
	Total    string
}

// AuditCmd processes the files and verifies lot conservation.
type AuditCmd struct {
	Files []string `help:"Transaction export files (use '-' for stdin)." arg:""`
}

func (cmd *AuditCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("audit %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	s, err := process(runCtx, globals, cmd.Files)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	if err := s.Ledger.Audit(); err != nil {
		return reportFailure(ctx.Stderr, err, "audit failed")
	}

	assets := s.Ledger.Holdings().Assets()
	printSuccess(ctx.Stdout, fmt.Sprintf("Audit passed for %d asset(s), %d realization(s), %d below materiality",
		len(assets), len(s.Ledger.Realizations()), len(s.Ledger.Suppressed())))
	return nil
}
