package ledger

// EntryRequest is the JSON payload for receiving goods via a container.
type EntryRequest struct {
	Code        string `json:"code,omitempty" validate:"omitempty,max=64"`
	EAN         string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Importer    string `json:"importer" validate:"required"`
	Lot         string `json:"lot" validate:"required,max=64"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Operator    string `json:"operator,omitempty" validate:"omitempty,max=128"`
	Observation string `json:"observation,omitempty" validate:"omitempty,max=512"`
	RefCode     string `json:"ref_code,omitempty" validate:"omitempty,max=64"`
}

// ExitRequest is the JSON payload for a sale or removal.
type ExitRequest struct {
	Code        string `json:"code,omitempty" validate:"omitempty,max=64"`
	EAN         string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Stock       string `json:"stock" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Client      string `json:"client,omitempty" validate:"omitempty,max=255"`
	Operator    string `json:"operator,omitempty" validate:"omitempty,max=128"`
	Observation string `json:"observation,omitempty" validate:"omitempty,max=512"`
}

// DevolutionRequest is the JSON payload for a client return.
type DevolutionRequest struct {
	Code        string `json:"code,omitempty" validate:"omitempty,max=64"`
	EAN         string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Stock       string `json:"stock" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Client      string `json:"client" validate:"required,max=255"`
	Operator    string `json:"operator" validate:"required,max=128"`
	Observation string `json:"observation,omitempty" validate:"omitempty,max=512"`
}

// TransferRequest is the JSON payload for declaring a warehouse-to-retail move.
type TransferRequest struct {
	Code        string `json:"code,omitempty" validate:"omitempty,max=64"`
	EAN         string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Operator    string `json:"operator,omitempty" validate:"omitempty,max=128"`
	Observation string `json:"observation,omitempty" validate:"omitempty,max=512"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=64"`
	Confirm     bool   `json:"confirm,omitempty"`
}

// ConfirmTransferRequest settles a declared transference.
type ConfirmTransferRequest struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Operator string `json:"operator,omitempty" validate:"omitempty,max=128"`
	Location string `json:"location,omitempty" validate:"omitempty,max=64"`
}

// ReserveRequest is the JSON payload for placing a hold.
type ReserveRequest struct {
	Code        string `json:"code,omitempty" validate:"omitempty,max=64"`
	EAN         string `json:"ean,omitempty" validate:"omitempty,max=64"`
	Stock       string `json:"stock" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Client      string `json:"client" validate:"required,max=255"`
	Operator    string `json:"operator,omitempty" validate:"omitempty,max=128"`
	Observation string `json:"observation,omitempty" validate:"omitempty,max=512"`
	Intake      bool   `json:"intake,omitempty"`
}

// ConfirmReservesRequest converts a batch of holds into exits.
type ConfirmReservesRequest struct {
	TransactionIDs []int64 `json:"transaction_ids" validate:"required,min=1,dive,gt=0"`
	Operator       string  `json:"operator,omitempty" validate:"omitempty,max=128"`
}

// ListResponse wraps a paginated transaction listing.
type ListResponse struct {
	Items []Transaction `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
