package ledger

import "github.com/shopspring/decimal"

// Holdings is the lot book: the ordered lots of every asset seen so far.
//
// Assets are kept in the order they were first appended so that iteration
// never depends on map order. The only way to change an asset's lots after
// a sale is Replace, which swaps the whole sequence at once.
type Holdings struct {
	lots   map[string][]Lot
	assets []string
}

// NewHoldings creates an empty lot book.
func NewHoldings() *Holdings {
	return &Holdings{
		lots: make(map[string][]Lot),
	}
}

// Append adds a newly acquired lot to the end of the asset's sequence.
func (h *Holdings) Append(asset string, lot Lot) {
	h.register(asset)
	h.lots[asset] = append(h.lots[asset], lot)
}

// Replace substitutes the full ordered sequence for asset. The slice is
// copied. Replacing an unknown asset with no lots is a no-op.
func (h *Holdings) Replace(asset string, lots []Lot) {
	if _, ok := h.lots[asset]; !ok && len(lots) == 0 {
		return
	}
	h.register(asset)
	h.lots[asset] = append([]Lot(nil), lots...)
}

// Reorder re-sorts the lots of asset under policy.
func (h *Holdings) Reorder(asset string, policy Policy) {
	lots, ok := h.lots[asset]
	if !ok {
		return
	}
	h.lots[asset] = Order(lots, policy)
}

// Lots returns a copy of the lots of asset in their current order.
func (h *Holdings) Lots(asset string) []Lot {
	return append([]Lot(nil), h.lots[asset]...)
}

// Assets returns every asset in first-seen order.
func (h *Holdings) Assets() []string {
	return append([]string(nil), h.assets...)
}

// Quantity returns the total remaining quantity of asset.
func (h *Holdings) Quantity(asset string) decimal.Decimal {
	return totalQuantity(h.lots[asset])
}

// Snapshot lists every resident lot, including fully consumed ones.
func (h *Holdings) Snapshot() []Holding {
	var out []Holding
	for _, asset := range h.assets {
		for _, lot := range h.lots[asset] {
			out = append(out, Holding{Asset: asset, Lot: lot})
		}
	}
	return out
}

func (h *Holdings) register(asset string) {
	if _, ok := h.lots[asset]; !ok {
		h.assets = append(h.assets, asset)
		h.lots[asset] = nil
	}
}
