package ledger

import (
	"context"
	"errors"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// CreateReserve places a soft hold: the plain balance drops and the reserve
// balance rises by the same quantity, so held goods cannot be sold twice.
func (s *Service) CreateReserve(ctx context.Context, input ReserveInput) (Transaction, error) {
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
	if input.Client == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "client is required")
	}
	if input.Operator == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "operator is required")
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
			if input.Intake {
				return ErrReserveExceedsReceipt
			}
			return shared.E(shared.KindInsufficientStock, "insufficient stock")
		}
		next, err := locked.Balances.Apply(products.HoldDelta(stock, input.Quantity))
		if err != nil {
			return err
		}
		if err := tx.UpdateBalances(ctx, product.ID, next); err != nil {
			return err
		}
		id, err := tx.InsertTransaction(ctx, Transaction{
			Type:        TransactionTypeReserve,
			ProductID:   product.ID,
			FromStock:   stock,
			ExitAmount:  input.Quantity,
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

// ConfirmReservesInput confirms a batch of holds as definitive exits.
type ConfirmReservesInput struct {
	TransactionIDs []int64
	Operator       string
}

// ConfirmReserves converts held quantities into confirmed exits. The whole
// batch settles in one atomic unit; one bad id aborts all of it.
func (s *Service) ConfirmReserves(ctx context.Context, input ConfirmReservesInput) ([]Transaction, error) {
	if len(input.TransactionIDs) == 0 {
		return nil, shared.E(shared.KindMissingField, "transaction ids are required")
	}
	var exits []Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exits = exits[:0]
		for _, id := range input.TransactionIDs {
			row, err := tx.GetTransactionForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.Ef(shared.KindNotFound, "reserve %d not found", id)
				}
				return err
			}
			if row.Type != TransactionTypeReserve {
				return shared.Ef(shared.KindConflict, "transaction %d is not a reserve", id)
			}
			if row.Confirmed {
				return shared.Ef(shared.KindConflict, "reserve %d already confirmed", id)
			}

			locked, err := tx.GetProductForUpdate(ctx, row.ProductID)
			if err != nil {
				return err
			}
			// The plain balance already dropped when the hold was placed;
			// confirming only releases the held quantity.
			next, err := locked.Balances.Apply(products.ReserveDelta(row.FromStock, -row.ExitAmount))
			if err != nil {
				return err
			}
			if err := tx.UpdateBalances(ctx, row.ProductID, next); err != nil {
				return err
			}

			row.Confirmed = true
			if err := tx.UpdateTransaction(ctx, row); err != nil {
				return err
			}
			exitID, err := tx.InsertTransaction(ctx, Transaction{
				Type:        TransactionTypeExit,
				ProductID:   row.ProductID,
				FromStock:   row.FromStock,
				ExitAmount:  row.ExitAmount,
				Confirmed:   true,
				PartnerID:   row.ID,
				Client:      row.Client,
				Operator:    input.Operator,
				Observation: row.Observation,
			})
			if err != nil {
				return err
			}
			exit, err := tx.GetTransactionForUpdate(ctx, exitID)
			if err != nil {
				return err
			}
			exits = append(exits, exit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, exit := range exits {
		s.recordAudit(ctx, exit, input.Operator)
	}
	return exits, nil
}

// deleteReserveRow cancels a hold. An open hold gives its quantity back to
// the plain balance; a confirmed hold already handed its effect to the exit
// row, so only the reserve row disappears.
func (s *Service) deleteReserveRow(ctx context.Context, tx TxRepository, row Transaction) error {
	if row.Confirmed {
		return tx.DeleteTransactions(ctx, row.ID)
	}
	locked, err := tx.GetProductForUpdate(ctx, row.ProductID)
	if err != nil {
		return err
	}
	next, err := locked.Balances.Apply(products.HoldDelta(row.FromStock, -row.ExitAmount))
	if err != nil {
		return err
	}
	if err := tx.UpdateBalances(ctx, row.ProductID, next); err != nil {
		return err
	}
	return tx.DeleteTransactions(ctx, row.ID)
}
