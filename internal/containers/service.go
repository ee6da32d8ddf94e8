package containers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, page shared.Pagination) ([]ContainerWithLines, int, error)
	FindByLot(ctx context.Context, lotCode string) (Container, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the conference flow over container receipts.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns containers with their receipt lines.
func (s *Service) List(ctx context.Context, page shared.Pagination) ([]ContainerWithLines, int, error) {
	return s.repo.List(ctx, page)
}

// FindByLot fetches a container by its lot code.
func (s *Service) FindByLot(ctx context.Context, lotCode string) (Container, error) {
	if lotCode == "" {
		return Container{}, shared.E(shared.KindMissingField, "lot code is required")
	}
	return s.repo.FindByLot(ctx, lotCode)
}

// ConfirmReceipts applies a conference batch: for each receipt the recounted
// quantity replaces the recorded one and the warehouse balance moves by the
// difference. The whole batch is one atomic unit; a failure partway applies
// nothing.
func (s *Service) ConfirmReceipts(ctx context.Context, actorID int64, confirmations []ReceiptConfirmation) error {
	if len(confirmations) == 0 {
		return shared.E(shared.KindMissingField, "at least one receipt is required")
	}
	for _, c := range confirmations {
		if c.ID <= 0 {
			return shared.E(shared.KindMissingField, "receipt id is required")
		}
		if c.QuantityReceived < 0 {
			return shared.E(shared.KindMissingField, "received quantity must not be negative")
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, c := range confirmations {
			receipt, err := tx.GetReceiptForUpdate(ctx, c.ID)
			if err != nil {
				return shared.Wrap(shared.KindNotFound, fmt.Sprintf("receipt %d not found", c.ID), err)
			}
			delta := c.QuantityReceived - receipt.QuantityReceived
			if delta != 0 {
				balances, err := tx.GetProductBalancesForUpdate(ctx, receipt.ProductID)
				if err != nil {
					return err
				}
				next, err := balances.Apply(products.PlainDelta(shared.StockWarehouse, delta))
				if err != nil {
					return err
				}
				if err := tx.UpdateProductBalances(ctx, receipt.ProductID, next); err != nil {
					return err
				}
			}
			if err := tx.UpdateReceipt(ctx, c.ID, c.QuantityReceived); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "containers:conference",
			Entity:   "product_containers",
			EntityID: fmt.Sprintf("batch:%d", len(confirmations)),
			Meta:     map[string]any{"receipts": len(confirmations)},
		})
	}
	return nil
}
