package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/xin30hp/CryptoTaxes/web"
)

type WebCmd struct {
	Files []string `help:"Transaction export files to serve." arg:""`
	Port  int      `help:"Port to listen on." default:"8080"`
	Watch bool     `help:"Recompute the results when a file changes." short:"w"`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("web %s", describeFiles(cmd.Files)))
	defer reportTelemetry()

	cfg, err := buildConfig(globals)
	if err != nil {
		return reportFailure(ctx.Stderr, err, failureSummary(err))
	}
	runCtx = cfg.WithContext(runCtx)

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(cmd.Port, cmd.Files, version, commitSHA)
	server.WatchEnabled = cmd.Watch

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	for _, file := range cmd.Files {
		printInfof(ctx.Stdout, "Serving transactions: %s", pathStyle.Render(file))
	}
	if cmd.Watch {
		printInfof(ctx.Stdout, "Watching files for changes")
	}

	return server.Start(runCtx)
}
