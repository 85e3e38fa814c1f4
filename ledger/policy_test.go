package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestOrder(t *testing.T) {
	lots := []Lot{
		lot("01/02/2021", "1", "300"),
		lot("01/01/2021", "2", "100"),
		lot("01/03/2021", "3", "300"),
		lot("01/01/2021", "4", "200"),
	}

	tests := []struct {
		policy Policy
		want   []string
	}{
		{FIFO, []string{
			"01/01/2021 00:00:00 2 @ 100",
			"01/01/2021 00:00:00 4 @ 200",
			"01/02/2021 00:00:00 1 @ 300",
			"01/03/2021 00:00:00 3 @ 300",
		}},
		{LIFO, []string{
			"01/03/2021 00:00:00 3 @ 300",
			"01/02/2021 00:00:00 1 @ 300",
			"01/01/2021 00:00:00 2 @ 100",
			"01/01/2021 00:00:00 4 @ 200",
		}},
		{HIFO, []string{
			"01/02/2021 00:00:00 1 @ 300",
			"01/03/2021 00:00:00 3 @ 300",
			"01/01/2021 00:00:00 4 @ 200",
			"01/01/2021 00:00:00 2 @ 100",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, describeLots(Order(lots, tt.policy)))
		})
	}

	// The input keeps its order.
	assert.Equal(t, "01/02/2021 00:00:00 1 @ 300", lots[0].String())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input string
		want  Policy
	}{
		{"FIFO", FIFO},
		{"lifo", LIFO},
		{" Hifo ", HIFO},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePolicy("average")
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "selection_policy", cfgErr.Option)
	assert.EqualError(t, err, `invalid selection_policy "average": expected FIFO, LIFO or HIFO`)
}

func TestPolicyText(t *testing.T) {
	var p Policy
	assert.NoError(t, p.UnmarshalText([]byte("hifo")))
	assert.Equal(t, HIFO, p)

	text, err := LIFO.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "LIFO", string(text))

	assert.Error(t, p.UnmarshalText([]byte("random")))
	assert.False(t, Policy(42).Valid())
	assert.Equal(t, "UNKNOWN", Policy(42).String())
}
