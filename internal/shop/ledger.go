package shop

import "sort"

// StockLedger replays the stock trigger in memory. Like the trigger, it never
// clamps: levels can go negative and Negative reports them.
type StockLedger struct {
	levels map[int64]int
}

func NewStockLedger(products []Product) *StockLedger {
	l := &StockLedger{levels: make(map[int64]int, len(products))}
	for _, p := range products {
		l.levels[p.ID] = p.StockQuantity
	}
	return l
}

// Apply is the AFTER INSERT branch.
func (l *StockLedger) Apply(it OrderItem) {
	l.levels[it.ProductID] -= it.Quantity
}

// Revert is the AFTER DELETE branch.
func (l *StockLedger) Revert(it OrderItem) {
	l.levels[it.ProductID] += it.Quantity
}

func (l *StockLedger) Level(productID int64) (int, bool) {
	v, ok := l.levels[productID]
	return v, ok
}

func (l *StockLedger) Levels() map[int64]int {
	out := make(map[int64]int, len(l.levels))
	for k, v := range l.levels {
		out[k] = v
	}
	return out
}

func (l *StockLedger) Negative() []int64 {
	var ids []int64
	for id, v := range l.levels {
		if v < 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
