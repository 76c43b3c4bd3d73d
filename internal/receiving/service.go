package receiving

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/internal/inventory"
	"github.com/dmreyes/backoffice-backend/internal/movements"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/metrics"
	"github.com/dmreyes/backoffice-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type movementRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input movements.RecordInput) error
}

// Service books supplier deliveries against purchase order lines and keeps
// the parent status in step with its lines.
type Service interface {
	Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  inventory.Ledger
	moves   movementRecorder
	outbox  outboxPublisher
	metrics *metrics.FulfillmentMetrics
}

// NewService builds a receiving service with the required dependencies.
// Metrics may be nil; the recorder is nil-safe.
func NewService(repo Repository, tx txRunner, ledger inventory.Ledger, moves movementRecorder, publisher outboxPublisher, m *metrics.FulfillmentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receiving repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if moves == nil {
		return nil, fmt.Errorf("movement recorder required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		moves:   moves,
		outbox:  publisher,
		metrics: m,
	}, nil
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error) {
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt quantity must be positive")
	}

	var result *ReceiveResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order line")
		}
		po, err := repo.FindPurchaseOrder(ctx, line.PurchaseOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}

		if !po.Status.CanReceive() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("purchase order in status %s cannot receive goods", po.Status))
		}
		newReceived := line.QuantityReceived.Add(input.Quantity)
		if newReceived.GreaterThan(line.Quantity) {
			return pkgerrors.New(pkgerrors.CodeOverReceipt,
				fmt.Sprintf("receipt of %s exceeds ordered quantity %s (already received %s)",
					input.Quantity, line.Quantity, line.QuantityReceived))
		}

		if err := repo.UpdateLine(ctx, line.ID, map[string]any{
			"quantity_received": newReceived,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order line")
		}
		line.QuantityReceived = newReceived

		if line.ProductID != nil {
			if err := s.ledger.Receive(ctx, tx, line.EntityID, *line.ProductID, input.Quantity); err != nil {
				return err
			}
			if err := s.moves.Record(ctx, tx, movements.RecordInput{
				EntityID:      line.EntityID,
				ProductID:     *line.ProductID,
				Delta:         input.Quantity,
				Reason:        enums.MovementReasonReceipt,
				ReferenceType: movements.ReferencePurchaseOrder,
				ReferenceID:   line.ID,
				Notes:         input.Notes,
			}); err != nil {
				return err
			}
		}

		// siblings are reloaded after the write so the recompute sees the
		// just-updated line, never a stale snapshot
		parentStatus, err := s.recomputeParentStatus(ctx, repo, po)
		if err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventStockReceived,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			EntityID:      line.EntityID,
			Version:       1,
			Data: StockReceivedEvent{
				LineID:          line.ID,
				PurchaseOrderID: po.ID,
				ProductID:       line.ProductID,
				Quantity:        input.Quantity,
				TotalReceived:   newReceived,
				ParentStatus:    parentStatus,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = &ReceiveResult{Line: *line, ParentStatus: parentStatus}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "partial"
	if result.Line.QuantityReceived.Equal(result.Line.Quantity) {
		outcome = "full"
	}
	s.metrics.IncReceipt(outcome)
	return result, nil
}

func (s *service) recomputeParentStatus(ctx context.Context, repo Repository, po *models.PurchaseOrder) (enums.PurchaseOrderStatus, error) {
	lines, err := repo.ListLines(ctx, po.ID)
	if err != nil {
		return po.Status, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling lines")
	}

	allComplete := len(lines) > 0
	anyReceived := false
	for _, line := range lines {
		if line.QuantityReceived.GreaterThan(decimal.Zero) {
			anyReceived = true
		}
		if line.QuantityReceived.LessThan(line.Quantity) {
			allComplete = false
		}
	}

	target := po.Status
	switch {
	case allComplete:
		target = enums.PurchaseOrderStatusReceived
	case anyReceived:
		target = enums.PurchaseOrderStatusPartialReceived
	}
	if target == po.Status {
		return target, nil
	}
	if err := repo.UpdatePurchaseOrder(ctx, po.ID, map[string]any{"status": target}); err != nil {
		return po.Status, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
	}
	return target, nil
}
