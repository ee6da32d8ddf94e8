package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

func newTestService(seed ...products.Product) (*Service, *memoryLedger) {
	mem := newMemoryLedger(seed...)
	return NewService(mem, mem, nil, nil, nil), mem
}

func houseProduct(id int64, code string, balances products.Balances) products.Product {
	return products.Product{ID: id, Code: code, EAN: "789" + code, Name: "Produto " + code, Importer: shared.ImporterHouse, Balances: balances}
}

func TestCreateEntryValidationOrder(t *testing.T) {
	svc, _ := newTestService(houseProduct(1, "P1", products.Balances{}))
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, EntryInput{Code: "P1", Importer: "CASA", Quantity: 10})
	require.Equal(t, shared.KindMissingField, shared.KindOf(err))
	require.Contains(t, err.Error(), "container")

	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Importer: "CASA", Quantity: 10})
	require.Contains(t, err.Error(), "code or ean")

	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA"})
	require.Contains(t, err.Error(), "quantity")

	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Quantity: 10})
	require.Contains(t, err.Error(), "importer")
}

func TestCreateEntryIncreasesWarehouse(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{}))
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 50, Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, TransactionTypeEntry, entry.Type)
	require.True(t, entry.Confirmed)
	require.Equal(t, shared.StockWarehouse, entry.ToStock)
	require.Equal(t, int64(50), entry.EntryAmount)
	require.Equal(t, int64(50), mem.balances(1).Warehouse)

	// The receipt records expected and received as the declared quantity.
	line := mem.state.receipts[receiptKey{1, entry.ContainerID}]
	require.Equal(t, int64(50), line.QuantityExpected)
	require.Equal(t, int64(50), line.QuantityReceived)
	require.False(t, line.Confirmed)
}

func TestCreateEntryRejectsDuplicateContainer(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{}))
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 50})
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 30})
	require.Equal(t, shared.KindConflict, shared.KindOf(err))
	require.Equal(t, int64(50), mem.balances(1).Warehouse)

	// A different container accepts the same product again.
	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-2", Code: "P1", Importer: "CASA", Quantity: 30})
	require.NoError(t, err)
	require.Equal(t, int64(80), mem.balances(1).Warehouse)
}

func TestCreateEntryImporterMismatch(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{}))

	_, err := svc.CreateEntry(context.Background(), EntryInput{Lot: "CNT-1", Code: "P1", Importer: "PARCEIRO", Quantity: 10})
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
	require.Equal(t, int64(0), mem.balances(1).Warehouse)
}

func TestCreateExit(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{Warehouse: 10, Retail: 4}))
	ctx := context.Background()

	exit, err := svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "LOJA", Quantity: 3, Client: "cliente"})
	require.NoError(t, err)
	require.Equal(t, shared.StockRetail, exit.FromStock)
	require.Equal(t, int64(3), exit.ExitAmount)
	require.Equal(t, int64(1), mem.balances(1).Retail)
	require.Equal(t, int64(10), mem.balances(1).Warehouse)

	_, err = svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "LOJA", Quantity: 2})
	require.Equal(t, shared.KindInsufficientStock, shared.KindOf(err))
	require.Equal(t, int64(1), mem.balances(1).Retail)
}

func TestCreateDevolution(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{Retail: 4}))
	ctx := context.Background()

	_, err := svc.CreateDevolution(ctx, DevolutionInput{Code: "P1", Stock: "LOJA", Quantity: 2, Operator: "ana"})
	require.Equal(t, shared.KindMissingField, shared.KindOf(err))

	dev, err := svc.CreateDevolution(ctx, DevolutionInput{Code: "P1", Stock: "LOJA", Quantity: 2, Client: "cliente", Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, TransactionTypeDevolution, dev.Type)
	require.Equal(t, int64(6), mem.balances(1).Retail)
}

func TestDeleteEntryReversesBalanceAndReceipt(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{}))
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 50})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, entry.ID))
	require.Equal(t, int64(0), mem.balances(1).Warehouse)
	require.Empty(t, mem.state.transactions)
	require.Empty(t, mem.state.receipts)

	// With the receipt gone the container accepts the product again.
	_, err = svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 20})
	require.NoError(t, err)
	require.Equal(t, int64(20), mem.balances(1).Warehouse)
}

func TestDeleteExitRestoresBalance(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{Retail: 10}))
	ctx := context.Background()

	exit, err := svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "LOJA", Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, int64(6), mem.balances(1).Retail)

	require.NoError(t, svc.DeleteTransaction(ctx, exit.ID))
	require.Equal(t, int64(10), mem.balances(1).Retail)
}

func TestDeleteDevolutionFailsWhenAlreadySold(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{Retail: 0}))
	ctx := context.Background()

	dev, err := svc.CreateDevolution(ctx, DevolutionInput{Code: "P1", Stock: "LOJA", Quantity: 2, Client: "cliente", Operator: "ana"})
	require.NoError(t, err)

	_, err = svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "LOJA", Quantity: 2})
	require.NoError(t, err)

	// Reversing the devolution would push retail negative; the unit aborts.
	err = svc.DeleteTransaction(ctx, dev.ID)
	require.Equal(t, shared.KindInsufficientStock, shared.KindOf(err))
	require.Contains(t, mem.state.transactions, dev.ID)
}

func TestDeleteTransactionNotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.DeleteTransaction(context.Background(), 99)
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestListTransactionsDropsBadFilters(t *testing.T) {
	svc, _ := newTestService(houseProduct(1, "P1", products.Balances{Warehouse: 10}))
	ctx := context.Background()

	_, err := svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "DEPOSITO", Quantity: 1})
	require.NoError(t, err)

	items, total, err := svc.ListTransactions(ctx, ListFilter{Type: "saida-desconhecida", Stock: "nowhere"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)

	items, _, err = svc.ListTransactions(ctx, ListFilter{Type: "exit", Stock: "depósito"})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

// TestStockLifecycle walks one product through the full movement cycle and
// checks the balances conserve at every step.
func TestStockLifecycle(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{}))
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, EntryInput{Lot: "CNT-1", Code: "P1", Importer: "CASA", Quantity: 50, Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 50}, mem.balances(1))

	declared, err := svc.CreateTransfer(ctx, TransferInput{Code: "P1", Quantity: 20, Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 50}, mem.balances(1))

	_, err = svc.ConfirmTransfer(ctx, ConfirmTransferInput{TransactionID: declared.ID, Quantity: 18, Operator: "bia"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 32, Retail: 18}, mem.balances(1))

	_, err = svc.CreateExit(ctx, ExitInput{Code: "P1", Stock: "LOJA", Quantity: 5, Client: "cliente"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 32, Retail: 13}, mem.balances(1))

	reserve, err := svc.CreateReserve(ctx, ReserveInput{Code: "P1", Stock: "DEPOSITO", Quantity: 10, Client: "cliente", Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 22, Retail: 13, WarehouseReserve: 10}, mem.balances(1))

	_, err = svc.ConfirmReserves(ctx, ConfirmReservesInput{TransactionIDs: []int64{reserve.ID}, Operator: "ana"})
	require.NoError(t, err)
	require.Equal(t, products.Balances{Warehouse: 22, Retail: 13}, mem.balances(1))
}
