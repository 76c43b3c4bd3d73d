package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderLine is one ordered item on a purchase order.
// QuantityReceived grows monotonically and never exceeds Quantity.
type PurchaseOrderLine struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID         uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;index"`
	PurchaseOrderID  uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ProductID        *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Description      string          `gorm:"column:description;not null"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"column:quantity_received;type:numeric(18,4);not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"column:unit_cost;type:numeric(18,4);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
