package report

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/parser"
)

const trades = `01/01/2021 10:00:00,Buy,,10,BTC,,,,,,,10,USD
01/02/2021 10:00:00,Buy,,10,BTC,,,,,,,30,USD
01/01/2019 09:00:00,Buy,,2,ETH,,,,,,,200,USD
01/03/2021 10:00:00,Sell,,75,USD,,,,,,,15,BTC
06/30/2022 16:45:10,Sell,,90,USD,,,,,,,1,ETH
`

func newRun(t *testing.T) *Run {
	t.Helper()
	ctx := context.Background()
	tree, err := parser.ParseBytes(ctx, []byte(trades))
	assert.NoError(t, err)

	l := ledger.New(ledger.NewConfig())
	assert.NoError(t, l.Process(ctx, tree))
	return NewRun(l)
}

func TestWriteRealizations(t *testing.T) {
	run := newRun(t)

	var buf bytes.Buffer
	assert.NoError(t, WriteRealizations(&buf, run.Realizations))
	assert.Equal(t, `sale_date,asset,quantity,acquisition_date,cost_basis,proceeds,net
01/03/2021 10:00:00,BTC,10,01/02/2021 10:00:00,30,50,20
01/03/2021 10:00:00,BTC,5,01/01/2021 10:00:00,5,25,20
06/30/2022 16:45:10,ETH,1,01/01/2019 09:00:00,100,90,-10
`, buf.String())
}

func TestWriteHoldings(t *testing.T) {
	run := newRun(t)

	var buf bytes.Buffer
	assert.NoError(t, WriteHoldings(&buf, run.Holdings))
	assert.Equal(t, `asset,acquisition_date,remaining_quantity,unit_cost
BTC,01/02/2021 10:00:00,0,3
BTC,01/01/2021 10:00:00,5,1
ETH,01/01/2019 09:00:00,1,100
`, buf.String())
}

func TestWriteDir(t *testing.T) {
	run := newRun(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteDir(dir, run)
	assert.NoError(t, err)
	assert.Equal(t, Paths(dir), paths)

	merged, err := os.ReadFile(filepath.Join(dir, MergedFile))
	assert.NoError(t, err)
	assert.Equal(t, `sale_date,asset,quantity,acquisition_date,cost_basis,proceeds,net
01/03/2021 00:00:00,BTC,10,01/02/2021 00:00:00,30,50,20
01/03/2021 00:00:00,BTC,5,01/01/2021 00:00:00,5,25,20
06/30/2022 00:00:00,ETH,1,01/01/2019 00:00:00,100,90,-10
`, string(merged))

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{HoldingsFile, MergedFile, RealizedFile}, names)
}

func TestSQLiteWriter(t *testing.T) {
	run := newRun(t)
	path := filepath.Join(t.TempDir(), "gains.db")

	// Writing twice recreates the tables rather than appending.
	for i := 0; i < 2; i++ {
		w, err := NewSQLite(path)
		assert.NoError(t, err)
		assert.NoError(t, w.Write(context.Background(), run))
		assert.NoError(t, w.Close())
	}

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	assert.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM realizations`).Scan(&count))
	assert.Equal(t, 3, count)
	assert.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM merged`).Scan(&count))
	assert.Equal(t, 3, count)
	assert.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM holdings`).Scan(&count))
	assert.Equal(t, 3, count)

	var asset, net, term, saleDate string
	err = db.QueryRow(`SELECT asset, net, term, sale_date FROM realizations WHERE seq = 3`).Scan(&asset, &net, &term, &saleDate)
	assert.NoError(t, err)
	assert.Equal(t, "ETH", asset)
	assert.Equal(t, "-10", net)
	assert.Equal(t, "long", term)
	assert.True(t, strings.HasPrefix(saleDate, "2022-06-30"), saleDate)
}

func TestSummarize(t *testing.T) {
	run := newRun(t)

	rows := Summarize(run.Realizations)
	assert.Equal(t, 2, len(rows))
	assert.Equal(t, 2021, rows[0].Year)
	assert.Equal(t, "BTC", rows[0].Asset)
	assert.Equal(t, "40", rows[0].ShortTerm.String())
	assert.True(t, rows[0].LongTerm.IsZero())
	assert.Equal(t, 2022, rows[1].Year)
	assert.Equal(t, "-10", rows[1].LongTerm.String())
	assert.Equal(t, "-10", rows[1].Total().String())
}

func TestMarkdown(t *testing.T) {
	run := newRun(t)

	assert.Equal(t, `# Realized gains

## 2021

| Asset | Short term | Long term | Net |
| --- | ---: | ---: | ---: |
| BTC | $40.00 | $0.00 | $40.00 |
| **Total** | **$40.00** | **$0.00** | **$40.00** |

## 2022

| Asset | Short term | Long term | Net |
| --- | ---: | ---: | ---: |
| ETH | $0.00 | -$10.00 | -$10.00 |
| **Total** | **$0.00** | **-$10.00** | **-$10.00** |
`, Markdown(Summarize(run.Realizations), run.Fiat))

	assert.Equal(t, "# Realized gains\n\nNo realized gains or losses.\n", Markdown(nil, "USD"))
}

func TestNewRun(t *testing.T) {
	run := newRun(t)
	assert.Equal(t, "USD", run.Fiat)
	assert.Equal(t, 0, len(run.Suppressed))
	assert.Equal(t, "01/02/2021 10:00:00", ast.FormatDate(run.Holdings[0].Date))
}
