package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// AllocationRecord is one reservation of inventory against an order/product
// pair. QuantityReserved is what the caller asked for, QuantityAllocated what
// was actually held against stock (less when stock was short), and
// QuantityFulfilled what has been physically consumed. Records are never
// deleted; cancellation only flips the status and releases the held stock.
// Invariant: 0 <= fulfilled <= allocated <= reserved.
type AllocationRecord struct {
	ID                      uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID                uuid.UUID              `gorm:"column:entity_id;type:uuid;not null;index"`
	OrderID                 uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID               uuid.UUID              `gorm:"column:product_id;type:uuid;not null;index"`
	QuantityReserved        decimal.Decimal        `gorm:"column:quantity_reserved;type:numeric(18,4);not null"`
	QuantityAllocated       decimal.Decimal        `gorm:"column:quantity_allocated;type:numeric(18,4);not null"`
	QuantityFulfilled       decimal.Decimal        `gorm:"column:quantity_fulfilled;type:numeric(18,4);not null;default:0"`
	Priority                int                    `gorm:"column:priority;not null;default:5"`
	ExpectedFulfillmentDate *time.Time             `gorm:"column:expected_fulfillment_date"`
	Status                  enums.AllocationStatus `gorm:"column:status;type:allocation_status;not null;default:'allocated'"`
	CreatedAt               time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
