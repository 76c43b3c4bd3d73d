package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog row referenced by order lines, allocations and inventory.
// Identity and SKU are immutable once referenced; descriptive fields may change.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID    uuid.UUID `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:ux_products_entity_sku"`
	SKU         string    `gorm:"column:sku;not null;uniqueIndex:ux_products_entity_sku"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Unit        string    `gorm:"column:unit;not null;default:'each'"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
