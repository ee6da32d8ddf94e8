package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estoque-erp/estoque-erp/internal/ledger"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

func replay(rows ...ledger.Transaction) products.Balances {
	var b products.Balances
	for _, row := range rows {
		b = applyMovement(b, row)
	}
	return b
}

func TestApplyMovementEntryExitDevolution(t *testing.T) {
	got := replay(
		ledger.Transaction{Type: ledger.TransactionTypeEntry, EntryAmount: 50, ToStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{Type: ledger.TransactionTypeExit, ExitAmount: 5, FromStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{Type: ledger.TransactionTypeDevolution, EntryAmount: 2, ToStock: shared.StockRetail, Confirmed: true},
	)
	require.Equal(t, products.Balances{Warehouse: 45, Retail: 2}, got)
}

func TestApplyMovementTransferencePairCountsOnce(t *testing.T) {
	got := replay(
		ledger.Transaction{Type: ledger.TransactionTypeEntry, EntryAmount: 50, ToStock: shared.StockWarehouse, Confirmed: true},
		// Declaration confirmed with the actual quantity.
		ledger.Transaction{ID: 2, Type: ledger.TransactionTypeTransference, EntryAmount: 18, EntryExpected: 20, Confirmed: true},
		// Exit leg referencing the declaration must not count again.
		ledger.Transaction{ID: 3, Type: ledger.TransactionTypeTransference, ExitAmount: 18, PartnerID: 2, Confirmed: true},
	)
	require.Equal(t, products.Balances{Warehouse: 32, Retail: 18}, got)
}

func TestApplyMovementUnconfirmedTransferenceIsNeutral(t *testing.T) {
	got := replay(
		ledger.Transaction{Type: ledger.TransactionTypeEntry, EntryAmount: 10, ToStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{Type: ledger.TransactionTypeTransference, EntryExpected: 4},
	)
	require.Equal(t, products.Balances{Warehouse: 10}, got)
}

func TestApplyMovementReserveLifecycle(t *testing.T) {
	open := replay(
		ledger.Transaction{Type: ledger.TransactionTypeEntry, EntryAmount: 30, ToStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{ID: 2, Type: ledger.TransactionTypeReserve, ExitAmount: 10, FromStock: shared.StockWarehouse},
	)
	require.Equal(t, products.Balances{Warehouse: 20, WarehouseReserve: 10}, open)

	settled := replay(
		ledger.Transaction{Type: ledger.TransactionTypeEntry, EntryAmount: 30, ToStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{ID: 2, Type: ledger.TransactionTypeReserve, ExitAmount: 10, FromStock: shared.StockWarehouse, Confirmed: true},
		ledger.Transaction{ID: 3, Type: ledger.TransactionTypeExit, ExitAmount: 10, FromStock: shared.StockWarehouse, PartnerID: 2, Confirmed: true},
	)
	require.Equal(t, products.Balances{Warehouse: 20}, settled)
}
