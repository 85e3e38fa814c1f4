// Package cli implements the cryptotaxes commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/loader"
	"github.com/xin30hp/CryptoTaxes/output"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})

	// stdin is read for the "-" filename.
	stdin io.Reader = os.Stdin
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(ctx *kong.Context, question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// startTelemetry installs a timing collector in ctx when --telemetry is set.
// The returned function ends the root timer and prints the report to stderr;
// it is safe to call more than once.
func startTelemetry(kctx *kong.Context, globals *Globals, name string) (context.Context, func()) {
	ctx := context.Background()
	if !globals.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)

	root := collector.Start(name)
	ctx = telemetry.WithRootTimer(ctx, root)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			root.End()
			_, _ = fmt.Fprintln(kctx.Stderr)
			collector.Report(kctx.Stderr, output.NewStyles(kctx.Stderr))
		})
	}
}

// buildConfig loads --config when given and applies the option flags on top.
func buildConfig(globals *Globals) (*ledger.Config, error) {
	cfg := ledger.NewConfig()
	if globals.Config != "" {
		loaded, err := ledger.LoadConfigFile(globals.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		option string
		value  string
	}{
		{ledger.OptionSelectionPolicy, globals.Policy},
		{ledger.OptionMaterialityThreshold, globals.Materiality},
		{ledger.OptionMergeCostTolerance, globals.MergeCostTolerance},
		{ledger.OptionMergeProceedsTolerance, globals.MergeProceedsTolerance},
		{ledger.OptionFiat, globals.Fiat},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := cfg.Set(o.option, o.value); err != nil {
			return nil, err
		}
	}
	if globals.ForceShortTerm != nil {
		cfg.ForceShortTerm = *globals.ForceShortTerm
	}

	return cfg, cfg.Validate()
}

// session is the outcome of loading and processing the input files.
type session struct {
	Config *ledger.Config
	Files  []string
	AST    *ast.AST
	Ledger *ledger.Ledger
}

// loadFiles parses filenames with the fiat from cfg.
func loadFiles(ctx context.Context, cfg *ledger.Config, filenames []string) (*loader.Result, error) {
	ldr := loader.New(loader.WithFiat(cfg.Fiat), loader.WithStdin(stdin))
	return ldr.Load(ctx, filenames...)
}

// process builds the configuration, loads filenames and runs the ledger.
// A processing error is returned together with the partial session so the
// caller can render it against the loaded sources.
func process(ctx context.Context, globals *Globals, filenames []string) (*session, error) {
	cfg, err := buildConfig(globals)
	if err != nil {
		return nil, err
	}

	result, err := loadFiles(ctx, cfg, filenames)
	if err != nil {
		return nil, err
	}

	s := &session{
		Config: cfg,
		Files:  result.Files,
		AST:    result.AST,
		Ledger: ledger.New(cfg),
	}
	return s, s.Ledger.Process(ctx, result.AST)
}

// reportFailure renders err with source context and a summary line, and
// returns the CommandError the command should exit with.
func reportFailure(w io.Writer, err error, summary string) error {
	_, _ = fmt.Fprintln(w, NewErrorRenderer().Render(err))
	_, _ = fmt.Fprintln(w)
	printError(w, summary)
	return NewCommandError(1)
}

func describeFiles(filenames []string) string {
	names := make([]string, len(filenames))
	for i, f := range filenames {
		if f == loader.Stdin {
			names[i] = "<stdin>"
			continue
		}
		names[i] = filepath.Base(f)
	}
	return strings.Join(names, ", ")
}
