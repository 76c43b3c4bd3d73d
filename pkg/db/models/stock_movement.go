package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// StockMovement is an append-only audit entry recorded for every on-hand
// change and reservation release. Delta is signed: receipts are positive,
// fulfillment consumption negative.
type StockMovement struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID      uuid.UUID            `gorm:"column:entity_id;type:uuid;not null;index"`
	ProductID     uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	Delta         decimal.Decimal      `gorm:"column:delta;type:numeric(18,4);not null"`
	Reason        enums.MovementReason `gorm:"column:reason;type:movement_reason;not null"`
	ReferenceType string               `gorm:"column:reference_type;not null"`
	ReferenceID   uuid.UUID            `gorm:"column:reference_id;type:uuid;not null"`
	Notes         *string              `gorm:"column:notes"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
