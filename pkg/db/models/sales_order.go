package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// SalesOrder is a confirmed customer order moving through fulfillment.
type SalesOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID        uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	OrderNumber     string            `gorm:"column:order_number;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'created'"`
	DefaultPriority int               `gorm:"column:default_priority;not null;default:5"`
	TrackingCarrier *string           `gorm:"column:tracking_carrier"`
	TrackingNumber  *string           `gorm:"column:tracking_number"`
	CancelReason    *string           `gorm:"column:cancel_reason"`
	Notes           *string           `gorm:"column:notes"`
	ConfirmedAt     *time.Time        `gorm:"column:confirmed_at"`
	ShippedAt       *time.Time        `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	Lines           []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
