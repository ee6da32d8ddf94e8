package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/estoque-erp/estoque-erp/internal/containers"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, int, error)
}

// ProductResolver finds products by code or EAN for write paths.
type ProductResolver interface {
	Resolve(ctx context.Context, code, ean string, importer shared.Importer) (products.Product, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the ledger state machine: every mutation pairs a balance change
// with a log append inside one atomic unit.
type Service struct {
	repo        RepositoryPort
	resolver    ProductResolver
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, resolver ProductResolver, audit AuditPort, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, idempotency: idem, logger: logger}
}

// CreateEntry receives goods into the warehouse against a shipment container.
func (s *Service) CreateEntry(ctx context.Context, input EntryInput) (Transaction, error) {
	if input.Lot == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "container is required")
	}
	if input.Code == "" && input.EAN == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "code or ean is required")
	}
	if input.Quantity <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "quantity is required")
	}
	importer, err := shared.ParseImporter(input.Importer)
	if err != nil {
		return Transaction{}, shared.E(shared.KindMissingField, "importer is required")
	}
	product, err := s.resolver.Resolve(ctx, input.Code, input.EAN, importer)
	if err != nil {
		return Transaction{}, err
	}

	insertedKey := false
	if s.idempotency != nil && input.RefCode != "" {
		if err := s.idempotency.CheckAndInsert(ctx, "ENTRY:"+input.RefCode, "ledger"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Transaction{}, shared.E(shared.KindConflict, "entry already processed")
			}
			return Transaction{}, err
		}
		insertedKey = true
	}

	var created Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		container, err := tx.FindOrCreateContainer(ctx, input.Lot)
		if err != nil {
			return err
		}
		if _, err := tx.GetReceipt(ctx, product.ID, container.ID); err == nil {
			return shared.Ef(shared.KindConflict, "product %s was already entered into container %s", product.Code, container.LotCode)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		locked, err := tx.GetProductForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		next, err := locked.Balances.Apply(products.PlainDelta(shared.StockWarehouse, input.Quantity))
		if err != nil {
			return err
		}
		if err := tx.InsertReceipt(ctx, containers.ProductOnContainer{
			ProductID:        product.ID,
			ContainerID:      container.ID,
			QuantityExpected: input.Quantity,
			QuantityReceived: input.Quantity,
		}); err != nil {
			return err
		}
		if err := tx.UpdateBalances(ctx, product.ID, next); err != nil {
			return err
		}
		id, err := tx.InsertTransaction(ctx, Transaction{
			Type:        TransactionTypeEntry,
			ProductID:   product.ID,
			ContainerID: container.ID,
			ToStock:     shared.StockWarehouse,
			EntryAmount: input.Quantity,
			Confirmed:   true,
			Operator:    input.Operator,
			Observation: input.Observation,
		})
		if err != nil {
			return err
		}
		created, err = tx.GetTransactionForUpdate(ctx, id)
		return err
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, "ENTRY:"+input.RefCode)
		}
		return Transaction{}, err
	}
	s.recordAudit(ctx, created, input.Operator)
	return created, nil
}

// CreateExit removes goods from a location.
func (s *Service) CreateExit(ctx context.Context, input ExitInput) (Transaction, error) {
	if input.Code == "" && input.EAN == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "code or ean is required")
	}
	if input.Stock == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "stock is required")
	}
	stock, err := shared.ParseStock(input.Stock)
	if err != nil {
		return Transaction{}, shared.Ef(shared.KindNotFound, "unknown stock %q", input.Stock)
	}
	if input.Quantity <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "quantity is required")
	}
	product, err := s.resolver.Resolve(ctx, input.Code, input.EAN, "")
	if err != nil {
		return Transaction{}, err
	}

	var created Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetProductForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		if locked.Balances.On(stock) < input.Quantity {
			return shared.E(shared.KindInsufficientStock, "insufficient stock")
		}
		next, err := locked.Balances.Apply(products.PlainDelta(stock, -input.Quantity))
		if err != nil {
			return err
		}
		if err := tx.UpdateBalances(ctx, product.ID, next); err != nil {
			return err
		}
		id, err := tx.InsertTransaction(ctx, Transaction{
			Type:        TransactionTypeExit,
			ProductID:   product.ID,
			FromStock:   stock,
			ExitAmount:  input.Quantity,
			Confirmed:   true,
			Client:      input.Client,
			Operator:    input.Operator,
			Observation: input.Observation,
		})
		if err != nil {
			return err
		}
		created, err = tx.GetTransactionForUpdate(ctx, id)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, created, input.Operator)
	return created, nil
}

// CreateDevolution records a return that increases a location's balance.
func (s *Service) CreateDevolution(ctx context.Context, input DevolutionInput) (Transaction, error) {
	if input.Code == "" && input.EAN == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "code or ean is required")
	}
	if input.Client == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "client is required")
	}
	if input.Quantity <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "quantity is required")
	}
	if input.Operator == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "operator is required")
	}
	if input.Stock == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "stock is required")
	}
	stock, err := shared.ParseStock(input.Stock)
	if err != nil {
		return Transaction{}, shared.Ef(shared.KindNotFound, "unknown stock %q", input.Stock)
	}
	product, err := s.resolver.Resolve(ctx, input.Code, input.EAN, "")
	if err != nil {
		return Transaction{}, err
	}

	var created Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetProductForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		next, err := locked.Balances.Apply(products.PlainDelta(stock, input.Quantity))
		if err != nil {
			return err
		}
		if err := tx.UpdateBalances(ctx, product.ID, next); err != nil {
			return err
		}
		id, err := tx.InsertTransaction(ctx, Transaction{
			Type:        TransactionTypeDevolution,
			ProductID:   product.ID,
			ToStock:     stock,
			EntryAmount: input.Quantity,
			Confirmed:   true,
			Client:      input.Client,
			Operator:    input.Operator,
			Observation: input.Observation,
		})
		if err != nil {
			return err
		}
		created, err = tx.GetTransactionForUpdate(ctx, id)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, created, input.Operator)
	return created, nil
}

// DeleteTransaction exactly reverses the balance effect of the transaction
// being removed, then deletes it. A transference deletion removes both legs
// of the pair with a single reversal.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.E(shared.KindMissingField, "transaction id is required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		row, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.E(shared.KindNotFound, "transaction not found")
			}
			return err
		}
		switch row.Type {
		case TransactionTypeEntry:
			return s.deleteEntry(ctx, tx, row)
		case TransactionTypeExit:
			return s.reverseAndDelete(ctx, tx, row, products.PlainDelta(row.FromStock, row.ExitAmount))
		case TransactionTypeDevolution:
			return s.reverseAndDelete(ctx, tx, row, products.PlainDelta(row.ToStock, -row.EntryAmount))
		case TransactionTypeTransference:
			return s.deleteTransferPair(ctx, tx, row)
		case TransactionTypeReserve:
			return s.deleteReserveRow(ctx, tx, row)
		default:
			return shared.Ef(shared.KindConflict, "unknown transaction type %s", row.Type)
		}
	})
}

func (s *Service) deleteEntry(ctx context.Context, tx TxRepository, row Transaction) error {
	if err := s.reverseAndDelete(ctx, tx, row, products.PlainDelta(row.ToStock, -row.EntryAmount)); err != nil {
		return err
	}
	if row.ContainerID != 0 {
		return tx.DeleteReceipt(ctx, row.ProductID, row.ContainerID)
	}
	return nil
}

func (s *Service) reverseAndDelete(ctx context.Context, tx TxRepository, row Transaction, delta products.Delta) error {
	locked, err := tx.GetProductForUpdate(ctx, row.ProductID)
	if err != nil {
		return err
	}
	next, err := locked.Balances.Apply(delta)
	if err != nil {
		return err
	}
	if err := tx.UpdateBalances(ctx, row.ProductID, next); err != nil {
		return err
	}
	return tx.DeleteTransactions(ctx, row.ID)
}

// GetTransaction fetches a ledger row.
func (s *Service) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "transaction id is required")
	}
	return s.repo.GetTransaction(ctx, id)
}

// ListTransactions lists ledger rows. Unresolvable type/stock filters are
// dropped rather than rejected; write paths stay strict.
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter) ([]Transaction, int, error) {
	if filter.Type != "" {
		switch TransactionType(shared.FoldLabel(filter.Type)) {
		case TransactionTypeEntry, TransactionTypeExit, TransactionTypeTransference, TransactionTypeDevolution, TransactionTypeReserve:
			filter.Type = shared.FoldLabel(filter.Type)
		default:
			filter.Type = ""
		}
	}
	if filter.Stock != "" {
		if stock, err := shared.ParseStock(filter.Stock); err == nil {
			filter.Stock = string(stock)
		} else {
			filter.Stock = ""
		}
	}
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, t Transaction, operator string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   fmt.Sprintf("ledger:%s", t.Type),
		Entity:   "transactions",
		EntityID: fmt.Sprintf("%d", t.ID),
		Meta: map[string]any{
			"product_id": t.ProductID,
			"amount":     t.Amount(),
			"operator":   operator,
		},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
