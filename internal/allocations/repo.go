package allocations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	"github.com/dmreyes/backoffice-backend/pkg/pagination"
)

// Repository manages persistence for allocation records and the order reads
// the engine needs to validate requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.AllocationRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AllocationRecord, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]models.AllocationRecord, error)
	// ListByOrder returns every allocation record for an order, uncapped. The
	// result is bounded by the order's own lines, not a page size.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllocationRecord, error)
	ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllocationRecord, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	FindOrderLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an allocation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.AllocationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AllocationRecord, error) {
	var record models.AllocationRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.AllocationRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.AllocationRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.AllocationRecord{})
	if filter.EntityID != uuid.Nil {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var records []models.AllocationRecord
	if err := q.Order("priority ASC").
		Order("created_at ASC").
		Limit(pagination.NormalizeLimit(filter.Limit)).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllocationRecord, error) {
	var records []models.AllocationRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AllocationRecord, error) {
	var records []models.AllocationRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("status IN ?", []enums.AllocationStatus{enums.AllocationStatusReserved, enums.AllocationStatusAllocated}).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
