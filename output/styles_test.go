package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestStylesPlainWriter(t *testing.T) {
	// A bytes.Buffer is not a terminal, so every helper must leave text intact.
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	helpers := map[string]func(string) string{
		"Asset":   styles.Asset,
		"Amount":  styles.Amount,
		"Keyword": styles.Keyword,
		"Dim":     styles.Dim,
		"Warning": styles.Warning,
	}
	for name, fn := range helpers {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "text", fn("text"))
		})
	}

	assert.Equal(t, "1ms", styles.Timing("1ms", true))
	assert.Equal(t, "1ms", styles.Timing("1ms", false))
	assert.Equal(t, "+5", styles.Net("+5", decimal.NewFromInt(5)))
	assert.Equal(t, "-5", styles.Net("-5", decimal.NewFromInt(-5)))
	assert.Equal(t, "0", styles.Net("0", decimal.Zero))
}

func TestMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.567", "USD", "$1,234.57"},
		{"-20", "USD", "-$20.00"},
		{"0.004", "USD", "$0.00"},
		{"12.5", "XYZ", "12.50 XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestTableRender(t *testing.T) {
	table := NewTable("asset", "quantity", "note").AlignRight(1)
	table.AddRow("BTC", "1.5", "first")
	table.AddRow("ETH", "10", "")
	table.AddRow("ÉTÉ", "100.25")

	var buf bytes.Buffer
	assert.NoError(t, table.Render(&buf, nil))
	assert.Equal(t, 3, table.Len())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"asset  quantity  note",
		"BTC         1.5  first",
		"ETH          10",
		"ÉTÉ      100.25",
	}, lines)
}

func TestTableCellHook(t *testing.T) {
	table := NewTable("a", "b")
	table.AddRow("x", "y")
	table.Cell = func(row, col int, padded string) string {
		return "[" + padded + "]"
	}

	var buf bytes.Buffer
	assert.NoError(t, table.Render(&buf, nil))
	assert.Equal(t, "a  b\n[x]  [y]\n", buf.String())
}
