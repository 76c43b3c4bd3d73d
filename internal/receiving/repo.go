package receiving

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
)

// Repository manages persistence for purchase orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindLine(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderLine, error)
	FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListLines(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.PurchaseOrderLine, error)
	UpdateLine(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdatePurchaseOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a receiving repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindLine(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderLine, error) {
	var line models.PurchaseOrderLine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) ListLines(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.PurchaseOrderLine, error) {
	var lines []models.PurchaseOrderLine
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) UpdateLine(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderLine{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdatePurchaseOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}
