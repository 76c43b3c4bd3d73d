package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// PurchaseOrder is the header for goods ordered from a supplier.
type PurchaseOrder struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID    uuid.UUID                 `gorm:"column:entity_id;type:uuid;not null;index"`
	SupplierID  uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null"`
	OrderNumber string                    `gorm:"column:order_number;not null"`
	Status      enums.PurchaseOrderStatus `gorm:"column:status;type:purchase_order_status;not null;default:'draft'"`
	OrderedAt   *time.Time                `gorm:"column:ordered_at"`
	Lines       []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
