package products

import (
	"time"

	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// Product represents a tracked product with its four-way balance split.
type Product struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	EAN       string          `json:"ean,omitempty"`
	Name      string          `json:"name"`
	Importer  shared.Importer `json:"importer"`
	Location  string          `json:"location,omitempty"`
	Balances  Balances        `json:"balances"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Balances holds the current stock split of a product. All four fields are
// non-negative in steady state; Apply is the only mutation point.
type Balances struct {
	Warehouse        int64 `json:"warehouse_qty"`
	Retail           int64 `json:"retail_qty"`
	WarehouseReserve int64 `json:"warehouse_reserve_qty"`
	RetailReserve    int64 `json:"retail_reserve_qty"`
}

// Delta describes a signed change to each balance field.
type Delta struct {
	Warehouse        int64
	Retail           int64
	WarehouseReserve int64
	RetailReserve    int64
}

// ErrNegativeBalance fails the enclosing atomic unit when any balance field
// would drop below zero.
var ErrNegativeBalance = shared.E(shared.KindInsufficientStock, "balance would go negative")

// Apply returns the balances after the delta, rejecting any result with a
// negative field.
func (b Balances) Apply(d Delta) (Balances, error) {
	next := Balances{
		Warehouse:        b.Warehouse + d.Warehouse,
		Retail:           b.Retail + d.Retail,
		WarehouseReserve: b.WarehouseReserve + d.WarehouseReserve,
		RetailReserve:    b.RetailReserve + d.RetailReserve,
	}
	if next.Warehouse < 0 || next.Retail < 0 || next.WarehouseReserve < 0 || next.RetailReserve < 0 {
		return Balances{}, ErrNegativeBalance
	}
	return next, nil
}

// On returns the plain balance at the given stock.
func (b Balances) On(stock shared.Stock) int64 {
	if stock == shared.StockRetail {
		return b.Retail
	}
	return b.Warehouse
}

// ReserveOn returns the reserve balance at the given stock.
func (b Balances) ReserveOn(stock shared.Stock) int64 {
	if stock == shared.StockRetail {
		return b.RetailReserve
	}
	return b.WarehouseReserve
}

// PlainDelta builds a delta touching only the plain balance at stock.
func PlainDelta(stock shared.Stock, qty int64) Delta {
	if stock == shared.StockRetail {
		return Delta{Retail: qty}
	}
	return Delta{Warehouse: qty}
}

// HoldDelta builds a delta moving qty from the plain balance into the
// reserve balance at stock. A negative qty releases the hold.
func HoldDelta(stock shared.Stock, qty int64) Delta {
	if stock == shared.StockRetail {
		return Delta{Retail: -qty, RetailReserve: qty}
	}
	return Delta{Warehouse: -qty, WarehouseReserve: qty}
}

// ReserveDelta builds a delta touching only the reserve balance at stock.
func ReserveDelta(stock shared.Stock, qty int64) Delta {
	if stock == shared.StockRetail {
		return Delta{RetailReserve: qty}
	}
	return Delta{WarehouseReserve: qty}
}
