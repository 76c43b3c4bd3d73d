package receiving

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// ReceiveInput books a supplier delivery against one purchase order line.
type ReceiveInput struct {
	LineID   uuid.UUID
	Quantity decimal.Decimal
	Notes    *string
}

// ReceiveResult reports the updated line and the recomputed parent status.
type ReceiveResult struct {
	Line         models.PurchaseOrderLine  `json:"line"`
	ParentStatus enums.PurchaseOrderStatus `json:"parent_status"`
}

// StockReceivedEvent is the outbox payload for a booked receipt.
type StockReceivedEvent struct {
	LineID          uuid.UUID                 `json:"line_id"`
	PurchaseOrderID uuid.UUID                 `json:"purchase_order_id"`
	ProductID       *uuid.UUID                `json:"product_id,omitempty"`
	Quantity        decimal.Decimal           `json:"quantity"`
	TotalReceived   decimal.Decimal           `json:"total_received"`
	ParentStatus    enums.PurchaseOrderStatus `json:"parent_status"`
}
