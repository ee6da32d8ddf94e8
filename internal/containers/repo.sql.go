package containers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// Repository persists container data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the conference flow.
type TxRepository interface {
	GetReceiptForUpdate(ctx context.Context, id int64) (ProductOnContainer, error)
	UpdateReceipt(ctx context.Context, id int64, received int64) error
	GetProductBalancesForUpdate(ctx context.Context, productID int64) (products.Balances, error)
	UpdateProductBalances(ctx context.Context, productID int64, balances products.Balances) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("containers repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// List returns containers with their receipt lines, newest first.
func (r *Repository) List(ctx context.Context, page shared.Pagination) ([]ContainerWithLines, int, error) {
	if r == nil {
		return nil, 0, errors.New("containers repository not initialised")
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM containers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, lot_code, created_at FROM containers ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []ContainerWithLines
	ids := []int64{}
	for rows.Next() {
		var c ContainerWithLines
		if err := rows.Scan(&c.ID, &c.LotCode, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}

	lineRows, err := r.pool.Query(ctx, `SELECT id, product_id, container_id, quantity_expected, quantity_received, confirmed, created_at
FROM product_containers WHERE container_id = ANY($1) ORDER BY id ASC`, ids)
	if err != nil {
		return nil, 0, err
	}
	defer lineRows.Close()

	byContainer := make(map[int64][]ProductOnContainer)
	for lineRows.Next() {
		var line ProductOnContainer
		if err := lineRows.Scan(&line.ID, &line.ProductID, &line.ContainerID, &line.QuantityExpected, &line.QuantityReceived, &line.Confirmed, &line.CreatedAt); err != nil {
			return nil, 0, err
		}
		byContainer[line.ContainerID] = append(byContainer[line.ContainerID], line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Lines = byContainer[list[i].ID]
	}
	return list, total, nil
}

// FindByLot returns the container registered for the lot code.
func (r *Repository) FindByLot(ctx context.Context, lotCode string) (Container, error) {
	var c Container
	err := r.pool.QueryRow(ctx, `SELECT id, lot_code, created_at FROM containers WHERE lot_code = $1`, lotCode).
		Scan(&c.ID, &c.LotCode, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Container{}, shared.ErrNotFound
	}
	return c, err
}

func (r *txRepository) GetReceiptForUpdate(ctx context.Context, id int64) (ProductOnContainer, error) {
	var line ProductOnContainer
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, container_id, quantity_expected, quantity_received, confirmed, created_at
FROM product_containers WHERE id = $1 FOR UPDATE`, id).
		Scan(&line.ID, &line.ProductID, &line.ContainerID, &line.QuantityExpected, &line.QuantityReceived, &line.Confirmed, &line.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductOnContainer{}, shared.ErrNotFound
	}
	return line, err
}

func (r *txRepository) UpdateReceipt(ctx context.Context, id int64, received int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE product_containers SET quantity_received = $2, confirmed = TRUE WHERE id = $1`, id, received)
	return err
}

func (r *txRepository) GetProductBalancesForUpdate(ctx context.Context, productID int64) (products.Balances, error) {
	var b products.Balances
	err := r.tx.QueryRow(ctx, `SELECT warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty FROM products WHERE id = $1 FOR UPDATE`, productID).
		Scan(&b.Warehouse, &b.Retail, &b.WarehouseReserve, &b.RetailReserve)
	if errors.Is(err, pgx.ErrNoRows) {
		return products.Balances{}, shared.ErrNotFound
	}
	return b, err
}

func (r *txRepository) UpdateProductBalances(ctx context.Context, productID int64, balances products.Balances) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET warehouse_qty = $2, retail_qty = $3, warehouse_reserve_qty = $4, retail_reserve_qty = $5, updated_at = NOW() WHERE id = $1`,
		productID, balances.Warehouse, balances.Retail, balances.WarehouseReserve, balances.RetailReserve)
	return err
}
