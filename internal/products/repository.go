package products

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estoque-erp/estoque-erp/internal/platform/db"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	Importer *shared.Importer
}

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	FindByCodeOrEAN(ctx context.Context, code, ean string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	DeleteCascade(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, code, ean, name, importer, location, warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var ean, location *string
	err := row.Scan(&p.ID, &p.Code, &ean, &p.Name, &p.Importer, &location,
		&p.Balances.Warehouse, &p.Balances.Retail, &p.Balances.WarehouseReserve, &p.Balances.RetailReserve,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if ean != nil {
		p.EAN = *ean
	}
	if location != nil {
		p.Location = *location
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (code ILIKE $` + strconv.Itoa(argCount) + ` OR ean ILIKE $` + strconv.Itoa(argCount) + ` OR name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Importer != nil {
		argCount++
		clause := ` AND importer = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.Importer))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func sortOrder(by, dir string) string {
	column := "code"
	switch by {
	case "name", "importer", "created_at":
		column = by
	}
	if strings.EqualFold(dir, "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) FindByCodeOrEAN(ctx context.Context, code, ean string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE ($1 <> '' AND code = $1) OR ($2 <> '' AND ean = $2) LIMIT 1`,
		code, ean))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (code, ean, name, importer, location, warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), 0, 0, 0, 0, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		product.Code, product.EAN, product.Name, string(product.Importer), product.Location).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, shared.Ef(shared.KindAlreadyExists, "product %s already registered", product.Code)
		}
		return Product{}, err
	}
	return product, nil
}

// DeleteCascade removes a product together with its transactions and
// container links in one atomic unit.
func (r *repository) DeleteCascade(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE product_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_containers WHERE product_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
