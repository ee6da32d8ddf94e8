package containers

import "time"

// Container groups entries received under one shipment lot. It carries no
// quantity of its own.
type Container struct {
	ID        int64     `json:"id"`
	LotCode   string    `json:"lot_code"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductOnContainer records the declared and received quantity of a product
// against a container. At most one record exists per (product, container).
type ProductOnContainer struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	ContainerID      int64     `json:"container_id"`
	QuantityExpected int64     `json:"quantity_expected"`
	QuantityReceived int64     `json:"quantity_received"`
	Confirmed        bool      `json:"confirmed"`
	CreatedAt        time.Time `json:"created_at"`
}

// ContainerWithLines pairs a container with its product receipts.
type ContainerWithLines struct {
	Container
	Lines []ProductOnContainer `json:"lines"`
}

// ReceiptConfirmation is one line of a conference batch.
type ReceiptConfirmation struct {
	ID               int64
	QuantityReceived int64
}
