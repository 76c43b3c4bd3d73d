package dashboard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// Repository exposes the read paths the aggregator needs. Everything is
// read-only; the dashboard never mutates state.
type Repository interface {
	ListOpenOrders(ctx context.Context, entityID uuid.UUID) ([]models.SalesOrder, error)
	ListActiveAllocations(ctx context.Context, orderIDs []uuid.UUID) ([]models.AllocationRecord, error)
	FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error)
}

var openOrderStatuses = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusFulfillment,
	enums.OrderStatusNeedsAttention,
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListOpenOrders(ctx context.Context, entityID uuid.UUID) ([]models.SalesOrder, error) {
	q := r.db.WithContext(ctx).
		Model(&models.SalesOrder{}).
		Where("status IN ?", openOrderStatuses)
	if entityID != uuid.Nil {
		q = q.Where("entity_id = ?", entityID)
	}
	var orders []models.SalesOrder
	if err := q.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListActiveAllocations(ctx context.Context, orderIDs []uuid.UUID) ([]models.AllocationRecord, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var records []models.AllocationRecord
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Where("status <> ?", enums.AllocationStatusCancelled).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
