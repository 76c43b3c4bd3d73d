package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// Snapshot is the production dashboard payload for one entity.
type Snapshot struct {
	EntityID    uuid.UUID          `json:"entity_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Shortages   []ProductShortage  `json:"shortages"`
	Deadlines   []UpcomingDeadline `json:"deadlines"`
	Orders      []OrderProgress    `json:"orders"`
}

// ProductShortage aggregates unmet reservations for one product across all
// open orders.
type ProductShortage struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku"`
	TotalShortage  decimal.Decimal `json:"total_shortage"`
	AffectedOrders int             `json:"affected_orders"`
}

// UpcomingDeadline ranks an open order by how soon it is due.
type UpcomingDeadline struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Deadline      time.Time `json:"deadline"`
	DaysRemaining int       `json:"days_remaining"`
}

// OrderProgress reports fulfillment completion for one open order.
type OrderProgress struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	TotalRequired   decimal.Decimal   `json:"total_required"`
	TotalFulfilled  decimal.Decimal   `json:"total_fulfilled"`
	PercentComplete decimal.Decimal   `json:"percent_complete"`
}
