package report

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xin30hp/CryptoTaxes/ledger"
)

// Schema recreates the export tables. Numbers are stored as decimal text so
// no precision is lost.
const Schema = `
DROP TABLE IF EXISTS realizations;
DROP TABLE IF EXISTS merged;
DROP TABLE IF EXISTS holdings;

CREATE TABLE realizations (
	seq INTEGER PRIMARY KEY,
	sale_date DATETIME NOT NULL,
	asset TEXT NOT NULL,
	quantity TEXT NOT NULL,
	acquisition_date DATETIME NOT NULL,
	cost_basis TEXT NOT NULL,
	proceeds TEXT NOT NULL,
	net TEXT NOT NULL,
	term TEXT NOT NULL
);

CREATE TABLE merged (
	seq INTEGER PRIMARY KEY,
	sale_date DATETIME NOT NULL,
	asset TEXT NOT NULL,
	quantity TEXT NOT NULL,
	acquisition_date DATETIME NOT NULL,
	cost_basis TEXT NOT NULL,
	proceeds TEXT NOT NULL,
	net TEXT NOT NULL,
	term TEXT NOT NULL
);

CREATE TABLE holdings (
	seq INTEGER PRIMARY KEY,
	asset TEXT NOT NULL,
	acquisition_date DATETIME NOT NULL,
	remaining_quantity TEXT NOT NULL,
	unit_cost TEXT NOT NULL
);

CREATE INDEX idx_realizations_asset ON realizations(asset, sale_date);
`

const sqlTimeLayout = "2006-01-02 15:04:05"

// SQLiteWriter exports runs into a SQLite database file.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and recreates its tables.
func NewSQLite(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema in %s: %w", path, err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Write stores run in a single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, run *Run) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRealizations(ctx, tx, "realizations", run.Realizations); err != nil {
		return err
	}
	if err := insertRealizations(ctx, tx, "merged", run.Merged); err != nil {
		return err
	}
	for i, h := range run.Holdings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holdings
			(seq, asset, acquisition_date, remaining_quantity, unit_cost)
			VALUES (?, ?, ?, ?, ?)`,
			i+1, h.Asset, h.Date.Format(sqlTimeLayout), h.Quantity.String(), h.UnitCost.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}
	}

	return tx.Commit()
}

func insertRealizations(ctx context.Context, tx *sql.Tx, table string, records []ledger.Realization) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+table+`
		(seq, sale_date, asset, quantity, acquisition_date, cost_basis, proceeds, net, term)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			i+1, r.SaleDate.Format(sqlTimeLayout), r.Asset, r.Quantity.String(),
			r.AcquisitionDate.Format(sqlTimeLayout), r.CostBasis.String(), r.Proceeds.String(),
			r.Net.String(), r.Term.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
