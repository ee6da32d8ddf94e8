package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/estoque-erp/estoque-erp/internal/ledger"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// IntegrityChecker replays the movement ledger per product and compares the
// result against the stored balances. A divergence means some write bypassed
// the service layer or a unit committed partially.
type IntegrityChecker struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	failures prometheus.Counter
}

// NewIntegrityChecker constructs the checker and registers its failure counter.
func NewIntegrityChecker(pool *pgxpool.Pool, logger *slog.Logger, registerer prometheus.Registerer) *IntegrityChecker {
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estoque_integrity_failures_total",
		Help: "Total de produtos com saldo divergente do livro de movimentações.",
	})
	if registerer != nil {
		registerer.MustRegister(failures)
	}
	return &IntegrityChecker{pool: pool, logger: logger, failures: failures}
}

// HandleTask processes TaskStockIntegrity tasks.
func (c *IntegrityChecker) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload StockIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	divergent, err := c.Scan(ctx, payload.ProductIDs)
	if err != nil {
		return err
	}
	if len(divergent) > 0 {
		return fmt.Errorf("integrity scan found %d divergent products", len(divergent))
	}
	return nil
}

// Scan returns the ids of products whose balances do not match the ledger.
func (c *IntegrityChecker) Scan(ctx context.Context, productIDs []int64) ([]int64, error) {
	query := `SELECT id, warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty FROM products`
	args := []any{}
	if len(productIDs) > 0 {
		query += ` WHERE id = ANY($1)`
		args = append(args, productIDs)
	}
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored := make(map[int64]products.Balances)
	for rows.Next() {
		var id int64
		var b products.Balances
		if err := rows.Scan(&id, &b.Warehouse, &b.Retail, &b.WarehouseReserve, &b.RetailReserve); err != nil {
			return nil, err
		}
		stored[id] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	replayed := make(map[int64]products.Balances, len(stored))
	txQuery := `SELECT product_id, tx_type, from_stock, to_stock, entry_amount, exit_amount, confirmed, partner_id FROM transactions`
	txArgs := []any{}
	if len(productIDs) > 0 {
		txQuery += ` WHERE product_id = ANY($1)`
		txArgs = append(txArgs, productIDs)
	}
	txRows, err := c.pool.Query(ctx, txQuery, txArgs...)
	if err != nil {
		return nil, err
	}
	defer txRows.Close()

	for txRows.Next() {
		var productID int64
		var txType string
		var fromStock, toStock *string
		var entryAmount, exitAmount, partnerID *int64
		var confirmed bool
		if err := txRows.Scan(&productID, &txType, &fromStock, &toStock, &entryAmount, &exitAmount, &confirmed, &partnerID); err != nil {
			return nil, err
		}
		row := ledger.Transaction{Type: ledger.TransactionType(txType), Confirmed: confirmed}
		if fromStock != nil {
			row.FromStock = shared.Stock(*fromStock)
		}
		if toStock != nil {
			row.ToStock = shared.Stock(*toStock)
		}
		if entryAmount != nil {
			row.EntryAmount = *entryAmount
		}
		if exitAmount != nil {
			row.ExitAmount = *exitAmount
		}
		if partnerID != nil {
			row.PartnerID = *partnerID
		}
		replayed[productID] = applyMovement(replayed[productID], row)
	}
	if err := txRows.Err(); err != nil {
		return nil, err
	}

	var divergent []int64
	for id, want := range stored {
		if replayed[id] != want {
			divergent = append(divergent, id)
			c.failures.Inc()
			if c.logger != nil {
				c.logger.Error("stock integrity divergence",
					slog.Int64("product_id", id),
					slog.Any("stored", want),
					slog.Any("replayed", replayed[id]))
			}
		}
	}
	return divergent, nil
}

// applyMovement folds one ledger row into the accumulated balances. Paired
// rows contribute through a single leg so the pair never counts twice: a
// confirmed transference through its declaration, a settled reserve through
// the reserve row rather than its exit.
func applyMovement(b products.Balances, row ledger.Transaction) products.Balances {
	switch row.Type {
	case ledger.TransactionTypeEntry:
		b.Warehouse += row.EntryAmount
	case ledger.TransactionTypeDevolution:
		if row.ToStock == shared.StockRetail {
			b.Retail += row.EntryAmount
		} else {
			b.Warehouse += row.EntryAmount
		}
	case ledger.TransactionTypeExit:
		if row.PartnerID != 0 {
			// Settles a reserve whose plain drop the reserve row already counts.
			return b
		}
		if row.FromStock == shared.StockRetail {
			b.Retail -= row.ExitAmount
		} else {
			b.Warehouse -= row.ExitAmount
		}
	case ledger.TransactionTypeTransference:
		if row.PartnerID == 0 && row.Confirmed {
			b.Warehouse -= row.EntryAmount
			b.Retail += row.EntryAmount
		}
	case ledger.TransactionTypeReserve:
		if row.FromStock == shared.StockRetail {
			b.Retail -= row.ExitAmount
			if !row.Confirmed {
				b.RetailReserve += row.ExitAmount
			}
		} else {
			b.Warehouse -= row.ExitAmount
			if !row.Confirmed {
				b.WarehouseReserve += row.ExitAmount
			}
		}
	}
	return b
}
