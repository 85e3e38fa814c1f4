package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/glamour"

	"github.com/xin30hp/CryptoTaxes/report"
)

// SummaryCmd renders realized gains per sale year and asset.
type SummaryCmd struct {
	Files []string `help:"Transaction export files (use '-' for stdin)." arg:""`
	Raw   bool     `help:"Print the markdown source instead of rendering it."`
	Width int      `help:"Word wrap width of the rendered summary." default:"100"`
}

func (cmd *SummaryCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("summary %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	s, err := process(runCtx, globals, cmd.Files)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}

	markdown := report.Markdown(report.Summarize(s.Ledger.Realizations()), s.Config.Fiat)
	if cmd.Raw || !isTerminal() {
		_, err := fmt.Fprint(ctx.Stdout, markdown)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(cmd.Width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	_, err = fmt.Fprint(ctx.Stdout, rendered)
	return err
}
