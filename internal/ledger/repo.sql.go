package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estoque-erp/estoque-erp/internal/containers"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
// Every mutating ledger operation runs entirely against one of these.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (products.Product, error)
	UpdateBalances(ctx context.Context, productID int64, balances products.Balances) error
	UpdateLocation(ctx context.Context, productID int64, location string) error
	InsertTransaction(ctx context.Context, tx Transaction) (int64, error)
	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	FindPartnerForUpdate(ctx context.Context, id int64) (Transaction, error)
	UpdateTransaction(ctx context.Context, tx Transaction) error
	DeleteTransactions(ctx context.Context, ids ...int64) error
	FindOrCreateContainer(ctx context.Context, lotCode string) (containers.Container, error)
	GetReceipt(ctx context.Context, productID, containerID int64) (containers.ProductOnContainer, error)
	InsertReceipt(ctx context.Context, receipt containers.ProductOnContainer) error
	DeleteReceipt(ctx context.Context, productID, containerID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
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

const transactionColumns = `id, tx_type, product_id, container_id, from_stock, to_stock, entry_amount, exit_amount, entry_expected, confirmed, partner_id, operator, client, observation, created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var containerID, entryAmount, exitAmount, entryExpected, partnerID *int64
	var fromStock, toStock, operator, client, observation *string
	err := row.Scan(&t.ID, &t.Type, &t.ProductID, &containerID, &fromStock, &toStock,
		&entryAmount, &exitAmount, &entryExpected, &t.Confirmed, &partnerID,
		&operator, &client, &observation, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	if containerID != nil {
		t.ContainerID = *containerID
	}
	if fromStock != nil {
		t.FromStock = shared.Stock(*fromStock)
	}
	if toStock != nil {
		t.ToStock = shared.Stock(*toStock)
	}
	if entryAmount != nil {
		t.EntryAmount = *entryAmount
	}
	if exitAmount != nil {
		t.ExitAmount = *exitAmount
	}
	if entryExpected != nil {
		t.EntryExpected = *entryExpected
	}
	if partnerID != nil {
		t.PartnerID = *partnerID
	}
	if operator != nil {
		t.Operator = *operator
	}
	if client != nil {
		t.Client = *client
	}
	if observation != nil {
		t.Observation = *observation
	}
	return t, nil
}

// GetTransaction fetches a single ledger row.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return t, err
}

// ListTransactions returns ledger rows matching the filter, newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, int, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM transactions WHERE 1=1`
	args := []any{}
	argCount := 0

	addClause := func(clause string, value any) {
		argCount++
		placeholder := "$" + strconv.Itoa(argCount)
		query += clause + placeholder
		countQuery += clause + placeholder
		args = append(args, value)
	}

	if filter.Type != "" {
		addClause(` AND tx_type = `, filter.Type)
	}
	if filter.Stock != "" {
		argCount++
		placeholder := "$" + strconv.Itoa(argCount)
		clause := ` AND (from_stock = ` + placeholder + ` OR to_stock = ` + placeholder + `)`
		query += clause
		countQuery += clause
		args = append(args, filter.Stock)
	}
	if filter.ProductID != 0 {
		addClause(` AND product_id = `, filter.ProductID)
	}
	if filter.Client != "" {
		addClause(` AND client ILIKE `, "%"+filter.Client+"%")
	}
	if filter.Confirmed != nil {
		addClause(` AND confirmed = `, *filter.Confirmed)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.Limit, total)
	argCount++
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, page.PerPage)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (products.Product, error) {
	var p products.Product
	var ean, location *string
	err := r.tx.QueryRow(ctx, `SELECT id, code, ean, name, importer, location, warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty, created_at, updated_at
FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Code, &ean, &p.Name, &p.Importer, &location,
			&p.Balances.Warehouse, &p.Balances.Retail, &p.Balances.WarehouseReserve, &p.Balances.RetailReserve,
			&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return products.Product{}, shared.ErrNotFound
	}
	if err != nil {
		return products.Product{}, err
	}
	if ean != nil {
		p.EAN = *ean
	}
	if location != nil {
		p.Location = *location
	}
	return p, nil
}

func (r *txRepository) UpdateBalances(ctx context.Context, productID int64, balances products.Balances) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET warehouse_qty = $2, retail_qty = $3, warehouse_reserve_qty = $4, retail_reserve_qty = $5, updated_at = NOW() WHERE id = $1`,
		productID, balances.Warehouse, balances.Retail, balances.WarehouseReserve, balances.RetailReserve)
	return err
}

func (r *txRepository) UpdateLocation(ctx context.Context, productID int64, location string) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET location = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`, productID, location)
	return err
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (tx_type, product_id, container_id, from_stock, to_stock, entry_amount, exit_amount, entry_expected, confirmed, partner_id, operator, client, observation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), NOW(), NOW()) RETURNING id`,
		string(t.Type), t.ProductID, nullInt(t.ContainerID), nullStock(t.FromStock), nullStock(t.ToStock),
		nullInt(t.EntryAmount), nullInt(t.ExitAmount), nullInt(t.EntryExpected), t.Confirmed, nullInt(t.PartnerID),
		t.Operator, t.Client, t.Observation).Scan(&id)
	return id, err
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return t, err
}

func (r *txRepository) FindPartnerForUpdate(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE partner_id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return t, err
}

func (r *txRepository) UpdateTransaction(ctx context.Context, t Transaction) error {
	_, err := r.tx.Exec(ctx, `UPDATE transactions SET entry_amount = $2, exit_amount = $3, confirmed = $4, updated_at = NOW() WHERE id = $1`,
		t.ID, nullInt(t.EntryAmount), nullInt(t.ExitAmount), t.Confirmed)
	return err
}

func (r *txRepository) DeleteTransactions(ctx context.Context, ids ...int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids)
	return err
}

func (r *txRepository) FindOrCreateContainer(ctx context.Context, lotCode string) (containers.Container, error) {
	var c containers.Container
	err := r.tx.QueryRow(ctx, `INSERT INTO containers (lot_code, created_at) VALUES ($1, NOW())
ON CONFLICT (lot_code) DO UPDATE SET lot_code = EXCLUDED.lot_code
RETURNING id, lot_code, created_at`, lotCode).Scan(&c.ID, &c.LotCode, &c.CreatedAt)
	return c, err
}

func (r *txRepository) GetReceipt(ctx context.Context, productID, containerID int64) (containers.ProductOnContainer, error) {
	var line containers.ProductOnContainer
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, container_id, quantity_expected, quantity_received, confirmed, created_at
FROM product_containers WHERE product_id = $1 AND container_id = $2`, productID, containerID).
		Scan(&line.ID, &line.ProductID, &line.ContainerID, &line.QuantityExpected, &line.QuantityReceived, &line.Confirmed, &line.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return containers.ProductOnContainer{}, shared.ErrNotFound
	}
	return line, err
}

func (r *txRepository) InsertReceipt(ctx context.Context, receipt containers.ProductOnContainer) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_containers (product_id, container_id, quantity_expected, quantity_received, confirmed, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())`,
		receipt.ProductID, receipt.ContainerID, receipt.QuantityExpected, receipt.QuantityReceived, receipt.Confirmed)
	return err
}

func (r *txRepository) DeleteReceipt(ctx context.Context, productID, containerID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM product_containers WHERE product_id = $1 AND container_id = $2`, productID, containerID)
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullStock(value shared.Stock) any {
	if value == "" {
		return nil
	}
	return string(value)
}
