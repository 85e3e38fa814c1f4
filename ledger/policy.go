package ledger

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Policy selects which lots a sale consumes first.
type Policy int

const (
	// FIFO consumes the earliest acquisitions first.
	FIFO Policy = iota
	// LIFO consumes the latest acquisitions first.
	LIFO
	// HIFO consumes the highest unit cost first, regardless of date.
	HIFO
)

func (p Policy) String() string {
	switch p {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case HIFO:
		return "HIFO"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	return p == FIFO || p == LIFO || p == HIFO
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePolicy parses a policy name case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIFO":
		return FIFO, nil
	case "LIFO":
		return LIFO, nil
	case "HIFO":
		return HIFO, nil
	}
	return FIFO, &ConfigurationError{
		Option: "selection_policy",
		Value:  s,
		Reason: "expected FIFO, LIFO or HIFO",
	}
}

// Order returns lots sorted under policy. The input is left untouched and
// ties keep their relative order.
func Order(lots []Lot, policy Policy) []Lot {
	ordered := append([]Lot(nil), lots...)
	slices.SortStableFunc(ordered, policy.compare)
	return ordered
}

func (p Policy) compare(a, b Lot) int {
	switch p {
	case FIFO:
		return a.Date.Compare(b.Date)
	case LIFO:
		return b.Date.Compare(a.Date)
	case HIFO:
		return b.UnitCost.Cmp(a.UnitCost)
	default:
		return 0
	}
}
