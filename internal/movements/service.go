package movements

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
)

// Reference types stamped on audit entries.
const (
	ReferenceAllocation    = "allocation"
	ReferencePurchaseOrder = "purchase_order_line"
	ReferenceSalesOrder    = "sales_order"
	ReferenceAdjustment    = "adjustment"
)

// RecordInput is one audit entry to append.
type RecordInput struct {
	EntityID      uuid.UUID
	ProductID     uuid.UUID
	Delta         decimal.Decimal
	Reason        enums.MovementReason
	ReferenceType string
	ReferenceID   uuid.UUID
	Notes         *string
}

// Service appends and reads the stock movement audit trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type service struct {
	repo Repository
}

// NewService builds a movement service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends an audit entry inside the caller's transaction so the entry
// commits together with the inventory change it describes.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for movement record")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid movement reason")
	}
	if input.Delta.IsZero() {
		return nil
	}

	movement := models.StockMovement{
		EntityID:      input.EntityID,
		ProductID:     input.ProductID,
		Delta:         input.Delta,
		Reason:        input.Reason,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Notes:         input.Notes,
	}
	if err := s.repo.WithTx(tx).Create(ctx, &movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	rows, err := s.repo.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return rows, nil
}
