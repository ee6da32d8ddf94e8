package ledger

import (
	"context"
	"sort"
	"strings"

	"github.com/estoque-erp/estoque-erp/internal/containers"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

type receiptKey struct {
	productID   int64
	containerID int64
}

type memoryState struct {
	products     map[int64]products.Product
	transactions map[int64]Transaction
	receipts     map[receiptKey]containers.ProductOnContainer
	containers   map[string]containers.Container
	nextTxID     int64
	nextContID   int64
}

func (s *memoryState) clone() *memoryState {
	next := &memoryState{
		products:     make(map[int64]products.Product, len(s.products)),
		transactions: make(map[int64]Transaction, len(s.transactions)),
		receipts:     make(map[receiptKey]containers.ProductOnContainer, len(s.receipts)),
		containers:   make(map[string]containers.Container, len(s.containers)),
		nextTxID:     s.nextTxID,
		nextContID:   s.nextContID,
	}
	for k, v := range s.products {
		next.products[k] = v
	}
	for k, v := range s.transactions {
		next.transactions[k] = v
	}
	for k, v := range s.receipts {
		next.receipts[k] = v
	}
	for k, v := range s.containers {
		next.containers[k] = v
	}
	return next
}

// memoryLedger implements RepositoryPort and ProductResolver over maps,
// committing the transactional snapshot only when the callback succeeds.
type memoryLedger struct {
	state *memoryState
}

func newMemoryLedger(seed ...products.Product) *memoryLedger {
	state := &memoryState{
		products:     make(map[int64]products.Product),
		transactions: make(map[int64]Transaction),
		receipts:     make(map[receiptKey]containers.ProductOnContainer),
		containers:   make(map[string]containers.Container),
	}
	for _, p := range seed {
		state.products[p.ID] = p
	}
	return &memoryLedger{state: state}
}

func (m *memoryLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{state: m.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memoryLedger) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	if t, ok := m.state.transactions[id]; ok {
		return t, nil
	}
	return Transaction{}, shared.ErrNotFound
}

func (m *memoryLedger) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, int, error) {
	var items []Transaction
	for _, t := range m.state.transactions {
		if filter.Type != "" && string(t.Type) != filter.Type {
			continue
		}
		if filter.ProductID != 0 && t.ProductID != filter.ProductID {
			continue
		}
		if filter.Stock != "" && string(t.FromStock) != filter.Stock && string(t.ToStock) != filter.Stock {
			continue
		}
		if filter.Client != "" && !strings.Contains(strings.ToLower(t.Client), strings.ToLower(filter.Client)) {
			continue
		}
		if filter.Confirmed != nil && t.Confirmed != *filter.Confirmed {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, len(items), nil
}

func (m *memoryLedger) Resolve(ctx context.Context, code, ean string, importer shared.Importer) (products.Product, error) {
	for _, p := range m.state.products {
		if (code != "" && p.Code == code) || (ean != "" && p.EAN == ean) {
			if importer != "" && p.Importer != importer {
				return products.Product{}, shared.E(shared.KindNotFound, "product not found")
			}
			return p, nil
		}
	}
	return products.Product{}, shared.E(shared.KindNotFound, "product not found")
}

func (m *memoryLedger) balances(productID int64) products.Balances {
	return m.state.products[productID].Balances
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id int64) (products.Product, error) {
	if p, ok := tx.state.products[id]; ok {
		return p, nil
	}
	return products.Product{}, shared.ErrNotFound
}

func (tx *memoryTx) UpdateBalances(ctx context.Context, productID int64, balances products.Balances) error {
	p := tx.state.products[productID]
	p.Balances = balances
	tx.state.products[productID] = p
	return nil
}

func (tx *memoryTx) UpdateLocation(ctx context.Context, productID int64, location string) error {
	p := tx.state.products[productID]
	p.Location = location
	tx.state.products[productID] = p
	return nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	tx.state.nextTxID++
	t.ID = tx.state.nextTxID
	tx.state.transactions[t.ID] = t
	return t.ID, nil
}

func (tx *memoryTx) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	if t, ok := tx.state.transactions[id]; ok {
		return t, nil
	}
	return Transaction{}, shared.ErrNotFound
}

func (tx *memoryTx) FindPartnerForUpdate(ctx context.Context, id int64) (Transaction, error) {
	for _, t := range tx.state.transactions {
		if t.PartnerID == id {
			return t, nil
		}
	}
	return Transaction{}, shared.ErrNotFound
}

func (tx *memoryTx) UpdateTransaction(ctx context.Context, t Transaction) error {
	stored, ok := tx.state.transactions[t.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.EntryAmount = t.EntryAmount
	stored.ExitAmount = t.ExitAmount
	stored.Confirmed = t.Confirmed
	tx.state.transactions[t.ID] = stored
	return nil
}

func (tx *memoryTx) DeleteTransactions(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		delete(tx.state.transactions, id)
	}
	return nil
}

func (tx *memoryTx) FindOrCreateContainer(ctx context.Context, lotCode string) (containers.Container, error) {
	if c, ok := tx.state.containers[lotCode]; ok {
		return c, nil
	}
	tx.state.nextContID++
	c := containers.Container{ID: tx.state.nextContID, LotCode: lotCode}
	tx.state.containers[lotCode] = c
	return c, nil
}

func (tx *memoryTx) GetReceipt(ctx context.Context, productID, containerID int64) (containers.ProductOnContainer, error) {
	if line, ok := tx.state.receipts[receiptKey{productID, containerID}]; ok {
		return line, nil
	}
	return containers.ProductOnContainer{}, shared.ErrNotFound
}

func (tx *memoryTx) InsertReceipt(ctx context.Context, receipt containers.ProductOnContainer) error {
	tx.state.receipts[receiptKey{receipt.ProductID, receipt.ContainerID}] = receipt
	return nil
}

func (tx *memoryTx) DeleteReceipt(ctx context.Context, productID, containerID int64) error {
	delete(tx.state.receipts, receiptKey{productID, containerID})
	return nil
}
