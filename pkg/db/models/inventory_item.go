package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks the on-hand/reserved/available counts per product.
// AvailableQty is derived (on hand minus reserved) but persisted for query
// speed; every mutation must keep it in lockstep. Only the inventory ledger's
// reserve/release/consume/receive operations may touch these columns.
type InventoryItem struct {
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	EntityID     uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;index"`
	OnHandQty    decimal.Decimal `gorm:"column:on_hand_qty;type:numeric(18,4);not null;default:0"`
	ReservedQty  decimal.Decimal `gorm:"column:reserved_qty;type:numeric(18,4);not null;default:0"`
	AvailableQty decimal.Decimal `gorm:"column:available_qty;type:numeric(18,4);not null;default:0"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
