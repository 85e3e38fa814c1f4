package cli

import (
	"context"
	"fmt"

	"github.com/xin30hp/CryptoTaxes/report"
)

func writeSQLite(ctx context.Context, path string, run *report.Run) error {
	w, err := report.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := w.Write(ctx, run); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to export to %s: %w", path, err)
	}
	return w.Close()
}
