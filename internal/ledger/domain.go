package ledger

import (
	"time"

	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// TransactionType enumerates the supported ledger movements.
type TransactionType string

const (
	// TransactionTypeEntry represents goods received into the warehouse via a container.
	TransactionTypeEntry TransactionType = "ENTRY"
	// TransactionTypeExit represents a sale or removal from a location.
	TransactionTypeExit TransactionType = "EXIT"
	// TransactionTypeTransference represents the two-phase warehouse-to-retail move.
	TransactionTypeTransference TransactionType = "TRANSFERENCE"
	// TransactionTypeDevolution represents a return into a location.
	TransactionTypeDevolution TransactionType = "DEVOLUTION"
	// TransactionTypeReserve represents a soft hold against a location.
	TransactionTypeReserve TransactionType = "RESERVE"
)

// Transaction is an immutable ledger row. Amount fields use zero as "not
// populated"; a valid amount is always positive. A confirming TRANSFERENCE
// row references its declaration through PartnerID.
type Transaction struct {
	ID            int64           `json:"id"`
	Type          TransactionType `json:"type"`
	ProductID     int64           `json:"product_id"`
	ContainerID   int64           `json:"container_id,omitempty"`
	FromStock     shared.Stock    `json:"from_stock,omitempty"`
	ToStock       shared.Stock    `json:"to_stock,omitempty"`
	EntryAmount   int64           `json:"entry_amount,omitempty"`
	ExitAmount    int64           `json:"exit_amount,omitempty"`
	EntryExpected int64           `json:"entry_expected,omitempty"`
	Confirmed     bool            `json:"confirmed"`
	PartnerID     int64           `json:"partner_id,omitempty"`
	Operator      string          `json:"operator,omitempty"`
	Client        string          `json:"client,omitempty"`
	Observation   string          `json:"observation,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Amount returns whichever of the entry/exit amounts is populated. Both may
// be populated on a confirming transference leg; the exit amount wins there
// because it is what was applied to the balances.
func (t Transaction) Amount() int64 {
	if t.ExitAmount != 0 {
		return t.ExitAmount
	}
	return t.EntryAmount
}

// EntryInput describes goods arriving via a shipment container.
type EntryInput struct {
	Code        string
	EAN         string
	Importer    string
	Lot         string
	Quantity    int64
	Operator    string
	Observation string
	RefCode     string
}

// ExitInput describes a sale or removal.
type ExitInput struct {
	Code        string
	EAN         string
	Stock       string
	Quantity    int64
	Client      string
	Operator    string
	Observation string
}

// DevolutionInput describes a return into a location.
type DevolutionInput struct {
	Code        string
	EAN         string
	Stock       string
	Quantity    int64
	Client      string
	Operator    string
	Observation string
}

// TransferInput declares a warehouse-to-retail move.
type TransferInput struct {
	Code        string
	EAN         string
	Quantity    int64
	Operator    string
	Observation string
	Location    string
	// Confirm performs the declaration and its confirmation in one unit,
	// with the declared quantity as the received quantity.
	Confirm bool
}

// ReserveInput describes a soft hold request.
type ReserveInput struct {
	Code        string
	EAN         string
	Stock       string
	Quantity    int64
	Client      string
	Operator    string
	Observation string
	// Intake marks the stricter shipment-intake reservation path.
	Intake bool
}

// ListFilter selects transactions for read paths. Unresolvable type/stock
// labels are treated as absent filters.
type ListFilter struct {
	Type      string
	Stock     string
	ProductID int64
	Client    string
	Confirmed *bool
	Page      int
	Limit     int
}

// ErrReserveExceedsReceipt is the dedicated error raised by the
// shipment-intake reservation path.
var ErrReserveExceedsReceipt = shared.E(shared.KindInsufficientStock, "reserve exceeds received quantity")
