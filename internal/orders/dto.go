package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	"github.com/dmreyes/backoffice-backend/pkg/pagination"
)

// CreateInput submits a new sales order with its line snapshot.
type CreateInput struct {
	EntityID        uuid.UUID
	CustomerID      uuid.UUID
	OrderNumber     string
	DefaultPriority int
	Notes           *string
	Lines           []LineInput
}

// LineInput is one ordered item. Quantity and price are frozen at creation.
type LineInput struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// TrackingInput carries shipment metadata recorded when an order ships.
type TrackingInput struct {
	Carrier *string
	Number  *string
}

// ListFilter narrows order listings. Cursor is the opaque value handed back
// on the previous page.
type ListFilter struct {
	EntityID   uuid.UUID
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     string
}

// ListQuery is the repository-level listing input with a decoded cursor and a
// buffered limit.
type ListQuery struct {
	EntityID   uuid.UUID
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     *pagination.Cursor
}

// OrderPage is one page of a keyset-paginated listing. NextCursor is empty on
// the last page.
type OrderPage struct {
	Orders     []models.SalesOrder `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// OrderStateChangedEvent is the outbox payload for every lifecycle move.
type OrderStateChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Reason      *string           `json:"reason,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
