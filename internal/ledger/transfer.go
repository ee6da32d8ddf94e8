package ledger

import (
	"context"
	"errors"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// CreateTransfer declares a warehouse-to-retail move. The declaration only
// records the expected quantity; balances move when the retail side confirms
// how much actually arrived. With Confirm set the declaration and its
// confirmation run in the same atomic unit, taking the declared quantity as
// the received one.
func (s *Service) CreateTransfer(ctx context.Context, input TransferInput) (Transaction, error) {
	if input.Code == "" && input.EAN == "" {
		return Transaction{}, shared.E(shared.KindMissingField, "code or ean is required")
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
		if locked.Balances.Warehouse < input.Quantity {
			return shared.E(shared.KindInsufficientStock, "insufficient stock in warehouse")
		}
		id, err := tx.InsertTransaction(ctx, Transaction{
			Type:          TransactionTypeTransference,
			ProductID:     product.ID,
			FromStock:     shared.StockWarehouse,
			ToStock:       shared.StockRetail,
			EntryExpected: input.Quantity,
			Operator:      input.Operator,
			Observation:   input.Observation,
		})
		if err != nil {
			return err
		}
		if input.Location != "" {
			if err := tx.UpdateLocation(ctx, product.ID, input.Location); err != nil {
				return err
			}
		}
		if input.Confirm {
			created, err = s.confirmTransferTx(ctx, tx, id, input.Quantity, input.Operator, "")
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

// ConfirmTransferInput carries the retail-side confirmation. Location, when
// set, records where the received goods were shelved.
type ConfirmTransferInput struct {
	TransactionID int64
	Quantity      int64
	Operator      string
	Location      string
}

// ConfirmTransfer settles a declared transference with the quantity that
// actually arrived at retail, which may differ from what was declared.
func (s *Service) ConfirmTransfer(ctx context.Context, input ConfirmTransferInput) (Transaction, error) {
	if input.TransactionID <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "transaction id is required")
	}
	if input.Quantity <= 0 {
		return Transaction{}, shared.E(shared.KindMissingField, "quantity is required")
	}
	var confirmed Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		confirmed, err = s.confirmTransferTx(ctx, tx, input.TransactionID, input.Quantity, input.Operator, input.Location)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, confirmed, input.Operator)
	return confirmed, nil
}

// confirmTransferTx applies the actual quantity once: warehouse drops and
// retail rises by what arrived, the declaration is marked confirmed with the
// actual amount, and a partner row records the exit leg. A non-empty location
// retags where the goods were shelved.
func (s *Service) confirmTransferTx(ctx context.Context, tx TxRepository, id, actual int64, operator, location string) (Transaction, error) {
	declared, err := tx.GetTransactionForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Transaction{}, shared.E(shared.KindNotFound, "transference not found")
		}
		return Transaction{}, err
	}
	if declared.Type != TransactionTypeTransference {
		return Transaction{}, shared.E(shared.KindConflict, "transaction is not a transference")
	}
	if declared.Confirmed || declared.PartnerID != 0 {
		return Transaction{}, shared.E(shared.KindConflict, "transference already confirmed")
	}

	locked, err := tx.GetProductForUpdate(ctx, declared.ProductID)
	if err != nil {
		return Transaction{}, err
	}
	if locked.Balances.Warehouse < actual {
		return Transaction{}, shared.E(shared.KindInsufficientStock, "insufficient stock in warehouse")
	}
	next, err := locked.Balances.Apply(products.Delta{Warehouse: -actual, Retail: actual})
	if err != nil {
		return Transaction{}, err
	}
	if err := tx.UpdateBalances(ctx, declared.ProductID, next); err != nil {
		return Transaction{}, err
	}

	if location != "" {
		if err := tx.UpdateLocation(ctx, declared.ProductID, location); err != nil {
			return Transaction{}, err
		}
	}

	if _, err := tx.InsertTransaction(ctx, Transaction{
		Type:          TransactionTypeTransference,
		ProductID:     declared.ProductID,
		FromStock:     shared.StockWarehouse,
		ToStock:       shared.StockRetail,
		ExitAmount:    actual,
		EntryExpected: declared.EntryExpected,
		Confirmed:     true,
		PartnerID:     declared.ID,
		Operator:      operator,
		Observation:   declared.Observation,
	}); err != nil {
		return Transaction{}, err
	}

	declared.EntryAmount = actual
	declared.Confirmed = true
	if err := tx.UpdateTransaction(ctx, declared); err != nil {
		return Transaction{}, err
	}
	return tx.GetTransactionForUpdate(ctx, declared.ID)
}

// deleteTransferPair removes both legs of a transference with one reversal.
// An unconfirmed declaration never touched the balances, so only the row is
// removed in that case.
func (s *Service) deleteTransferPair(ctx context.Context, tx TxRepository, row Transaction) error {
	declared := row
	var partner *Transaction
	if row.PartnerID != 0 {
		// The exit leg was requested; its partner field points at the declaration.
		p, err := tx.GetTransactionForUpdate(ctx, row.PartnerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err == nil {
			declared = p
		}
		partner = &row
	} else {
		p, err := tx.FindPartnerForUpdate(ctx, row.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err == nil {
			partner = &p
		}
	}

	ids := []int64{declared.ID}
	if partner != nil {
		ids = append(ids, partner.ID)
	}
	if !declared.Confirmed && partner == nil {
		return tx.DeleteTransactions(ctx, ids...)
	}

	amount := declared.EntryAmount
	if amount == 0 && partner != nil {
		amount = partner.Amount()
	}
	locked, err := tx.GetProductForUpdate(ctx, declared.ProductID)
	if err != nil {
		return err
	}
	next, err := locked.Balances.Apply(products.Delta{Warehouse: amount, Retail: -amount})
	if err != nil {
		return err
	}
	if err := tx.UpdateBalances(ctx, declared.ProductID, next); err != nil {
		return err
	}
	return tx.DeleteTransactions(ctx, ids...)
}
