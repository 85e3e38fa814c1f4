package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
)

// File names written by WriteDir.
const (
	RealizedFile = "realized.csv"
	MergedFile   = "merged.csv"
	HoldingsFile = "holdings.csv"
)

// RealizationColumns is the header of the realized and merged ledgers.
var RealizationColumns = []string{"sale_date", "asset", "quantity", "acquisition_date", "cost_basis", "proceeds", "net"}

// HoldingColumns is the header of the holdings snapshot.
var HoldingColumns = []string{"asset", "acquisition_date", "remaining_quantity", "unit_cost"}

// WriteRealizations writes records as CSV with full-precision numbers.
func WriteRealizations(w io.Writer, records []ledger.Realization) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RealizationColumns); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			ast.FormatDate(r.SaleDate),
			r.Asset,
			r.Quantity.String(),
			ast.FormatDate(r.AcquisitionDate),
			r.CostBasis.String(),
			r.Proceeds.String(),
			r.Net.String(),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHoldings writes every resident lot, fully consumed ones included.
func WriteHoldings(w io.Writer, holdings []ledger.Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HoldingColumns); err != nil {
		return err
	}
	for _, h := range holdings {
		err := cw.Write([]string{
			h.Asset,
			ast.FormatDate(h.Date),
			h.Quantity.String(),
			h.UnitCost.String(),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Paths returns the files WriteDir creates in dir.
func Paths(dir string) []string {
	return []string{
		filepath.Join(dir, RealizedFile),
		filepath.Join(dir, MergedFile),
		filepath.Join(dir, HoldingsFile),
	}
}

// WriteDir writes the three CSV files of run into dir and returns their
// paths. Every file is written to a temporary name first and only renamed
// into place once all three succeeded.
func WriteDir(dir string, run *Run) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := Paths(dir)
	writers := []func(io.Writer) error{
		func(w io.Writer) error { return WriteRealizations(w, run.Realizations) },
		func(w io.Writer) error { return WriteRealizations(w, run.Merged) },
		func(w io.Writer) error { return WriteHoldings(w, run.Holdings) },
	}

	var temps []string
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for i, path := range paths {
		tmp, err := writeTemp(dir, filepath.Base(path), writers[i])
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		temps = append(temps, tmp)
	}

	for i, tmp := range temps {
		if err := os.Rename(tmp, paths[i]); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to write %s: %w", paths[i], err)
		}
	}

	return paths, nil
}

func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
