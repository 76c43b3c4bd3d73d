package allocations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/internal/inventory"
	"github.com/dmreyes/backoffice-backend/internal/movements"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
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

// Service holds, consumes and releases stock for sales orders.
type Service interface {
	Allocate(ctx context.Context, input AllocateInput) (*AllocateResult, error)
	AutoAllocate(ctx context.Context, entityID, orderID uuid.UUID, priority *int) ([]AutoAllocateLineResult, error)
	Fulfill(ctx context.Context, input FulfillInput) (*models.AllocationRecord, error)
	Cancel(ctx context.Context, allocationID uuid.UUID) error
	// CancelActiveForOrder runs inside the caller's transaction; see the
	// method doc below.
	CancelActiveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	Get(ctx context.Context, allocationID uuid.UUID) (*models.AllocationRecord, error)
	List(ctx context.Context, filter ListFilter) ([]models.AllocationRecord, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  inventory.Ledger
	moves   movementRecorder
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.FulfillmentMetrics
}

// NewService builds an allocation service with the required dependencies.
// Logger and metrics may be nil.
func NewService(repo Repository, tx txRunner, ledger inventory.Ledger, moves movementRecorder, publisher outboxPublisher, logg *logger.Logger, m *metrics.FulfillmentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allocations repository required")
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
		logg:    logg,
		metrics: m,
	}, nil
}

func (s *service) Allocate(ctx context.Context, input AllocateInput) (*AllocateResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation quantity must be positive")
	}

	var result *AllocateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderForAllocation(ctx, repo, input.EntityID, input.OrderID)
		if err != nil {
			return err
		}

		res, err := s.allocateOne(ctx, tx, repo, order, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAllocation(result.Outcome)
	return result, nil
}

// AutoAllocate walks the order's lines and allocates each line's full
// quantity unless the product is already covered by a live allocation.
// Every line runs in its own transaction and is reported individually; a
// skipped or failed line never aborts the rest of the batch.
func (s *service) AutoAllocate(ctx context.Context, entityID, orderID uuid.UUID, priority *int) ([]AutoAllocateLineResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrderForAllocation(ctx, s.repo, entityID, orderID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.FindOrderLines(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
	}

	existing, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing allocations")
	}
	covered := map[uuid.UUID]bool{}
	for _, rec := range existing {
		if rec.Status == enums.AllocationStatusCancelled {
			continue
		}
		covered[rec.ProductID] = true
	}

	var results []AutoAllocateLineResult
	var failures error
	for _, line := range lines {
		if line.ProductID == nil {
			results = append(results, AutoAllocateLineResult{LineID: line.ID, Skipped: SkipNoProduct})
			continue
		}
		if covered[*line.ProductID] {
			results = append(results, AutoAllocateLineResult{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Skipped:   SkipAlreadyCovered,
			})
			continue
		}

		var res *AllocateResult
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			out, err := s.allocateOne(ctx, tx, s.repo.WithTx(tx), order, AllocateInput{
				EntityID:  order.EntityID,
				OrderID:   orderID,
				ProductID: *line.ProductID,
				Quantity:  line.Quantity,
				Priority:  priority,
			})
			if err != nil {
				return err
			}
			res = out
			return nil
		})
		if err != nil {
			if derr := pkgerrors.As(err); derr != nil && derr.Code() == pkgerrors.CodeNotFound {
				results = append(results, AutoAllocateLineResult{
					LineID:    line.ID,
					ProductID: line.ProductID,
					Skipped:   SkipNoInventory,
				})
				continue
			}
			failures = multierr.Append(failures, fmt.Errorf("line %s: %w", line.ID, err))
			results = append(results, AutoAllocateLineResult{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Error:     err.Error(),
			})
			continue
		}

		covered[*line.ProductID] = true
		results = append(results, AutoAllocateLineResult{
			LineID:     line.ID,
			ProductID:  line.ProductID,
			Allocation: &res.Record,
			Outcome:    res.Outcome,
		})
		s.metrics.IncAllocation(res.Outcome)
	}

	if failures != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String()})
		s.logg.Warn(logCtx, "auto-allocation finished with line failures: "+failures.Error())
	}
	return results, nil
}

// allocateOne reserves stock and records the allocation inside the caller's
// transaction. A short grant produces a reserved (shortage) record, never an error.
func (s *service) allocateOne(ctx context.Context, tx *gorm.DB, repo Repository, order *models.SalesOrder, input AllocateInput) (*AllocateResult, error) {
	// a product with no stock record cannot be allocated against at all
	if _, err := s.ledger.Get(ctx, tx, input.ProductID); err != nil {
		return nil, err
	}

	granted, err := s.ledger.Reserve(ctx, tx, input.ProductID, input.Quantity)
	if err != nil {
		return nil, err
	}

	status := enums.AllocationStatusReserved
	outcome := OutcomePartial
	if granted.Equal(input.Quantity) {
		status = enums.AllocationStatusAllocated
		outcome = OutcomeFull
	}

	priority := order.DefaultPriority
	if input.Priority != nil {
		priority = *input.Priority
	}

	record := models.AllocationRecord{
		ID:                      uuid.New(),
		EntityID:                order.EntityID,
		OrderID:                 order.ID,
		ProductID:               input.ProductID,
		QuantityReserved:        input.Quantity,
		QuantityAllocated:       granted,
		QuantityFulfilled:       decimal.Zero,
		Priority:                priority,
		ExpectedFulfillmentDate: input.ExpectedFulfillmentDate,
		Status:                  status,
	}
	if err := repo.Create(ctx, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create allocation record")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventAllocationCreated,
		AggregateType: enums.AggregateAllocation,
		AggregateID:   record.ID,
		EntityID:      record.EntityID,
		Version:       1,
		Data: AllocationCreatedEvent{
			AllocationID: record.ID,
			OrderID:      record.OrderID,
			ProductID:    record.ProductID,
			Requested:    record.QuantityReserved,
			Allocated:    record.QuantityAllocated,
			Status:       record.Status,
			Outcome:      outcome,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return &AllocateResult{Record: record, Outcome: outcome}, nil
}

func (s *service) Fulfill(ctx context.Context, input FulfillInput) (*models.AllocationRecord, error) {
	if input.AllocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation id required")
	}
	if input.Quantity != nil && input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fulfill quantity must be positive")
	}

	var updated *models.AllocationRecord
	outcome := OutcomePartial
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, input.AllocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "allocation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allocation")
		}

		if record.Status == enums.AllocationStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "allocation is cancelled")
		}

		remaining := record.QuantityAllocated.Sub(record.QuantityFulfilled)
		if remaining.LessThanOrEqual(decimal.Zero) {
			return pkgerrors.New(pkgerrors.CodeNothingToFulfill, "no allocated quantity left to fulfill")
		}

		// requests beyond the allocated balance fulfill what is left
		qty := remaining
		if input.Quantity != nil && input.Quantity.LessThan(remaining) {
			qty = *input.Quantity
		}

		if err := s.ledger.Consume(ctx, tx, record.ProductID, qty); err != nil {
			return err
		}

		newFulfilled := record.QuantityFulfilled.Add(qty)
		newStatus := record.Status
		if newFulfilled.Equal(record.QuantityReserved) {
			newStatus = enums.AllocationStatusFulfilled
			outcome = OutcomeFull
		}

		updates := map[string]any{
			"quantity_fulfilled": newFulfilled,
			"status":             newStatus,
		}
		if err := repo.Update(ctx, record.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update allocation")
		}
		record.QuantityFulfilled = newFulfilled
		record.Status = newStatus
		updated = record

		if err := s.moves.Record(ctx, tx, movements.RecordInput{
			EntityID:      record.EntityID,
			ProductID:     record.ProductID,
			Delta:         qty.Neg(),
			Reason:        enums.MovementReasonFulfillment,
			ReferenceType: movements.ReferenceAllocation,
			ReferenceID:   record.ID,
			Notes:         input.Notes,
		}); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAllocationFulfilled,
			AggregateType: enums.AggregateAllocation,
			AggregateID:   record.ID,
			EntityID:      record.EntityID,
			Version:       1,
			Data: AllocationFulfilledEvent{
				AllocationID: record.ID,
				OrderID:      record.OrderID,
				ProductID:    record.ProductID,
				Quantity:     qty,
				Fulfilled:    newFulfilled,
				Status:       newStatus,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncFulfillment(outcome)
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, allocationID uuid.UUID) error {
	if allocationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "allocation id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "allocation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allocation")
		}

		if record.Status == enums.AllocationStatusCancelled {
			return nil
		}
		if record.Status == enums.AllocationStatusFulfilled {
			return pkgerrors.New(pkgerrors.CodeAlreadyFulfilled, "fulfilled allocation cannot be cancelled")
		}

		return s.cancelLocked(ctx, tx, repo, record)
	})
}

// cancelLocked releases held stock and flips the record inside an open
// transaction. Callers must have verified the record is still active.
func (s *service) cancelLocked(ctx context.Context, tx *gorm.DB, repo Repository, record *models.AllocationRecord) error {
	held := record.QuantityAllocated.Sub(record.QuantityFulfilled)
	if held.GreaterThan(decimal.Zero) {
		if err := s.ledger.Release(ctx, tx, record.ProductID, held); err != nil {
			return err
		}
		if err := s.moves.Record(ctx, tx, movements.RecordInput{
			EntityID:      record.EntityID,
			ProductID:     record.ProductID,
			Delta:         held,
			Reason:        enums.MovementReasonRelease,
			ReferenceType: movements.ReferenceAllocation,
			ReferenceID:   record.ID,
		}); err != nil {
			return err
		}
	}

	if err := repo.Update(ctx, record.ID, map[string]any{
		"status": enums.AllocationStatusCancelled,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel allocation")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventAllocationCancelled,
		AggregateType: enums.AggregateAllocation,
		AggregateID:   record.ID,
		EntityID:      record.EntityID,
		Version:       1,
		Data: AllocationCancelledEvent{
			AllocationID: record.ID,
			OrderID:      record.OrderID,
			ProductID:    record.ProductID,
			Released:     held,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

// CancelActiveForOrder releases every non-fulfilled allocation for an order
// inside the caller's transaction. Used by order cancellation.
func (s *service) CancelActiveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	records, err := repo.ListActiveByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active allocations")
	}
	for i := range records {
		if err := s.cancelLocked(ctx, tx, repo, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, allocationID uuid.UUID) (*models.AllocationRecord, error) {
	if allocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation id required")
	}
	record, err := s.repo.FindByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "allocation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allocation")
	}
	return record, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.AllocationRecord, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list allocations")
	}
	return records, nil
}

func (s *service) loadOrderForAllocation(ctx context.Context, repo Repository, entityID, orderID uuid.UUID) (*models.SalesOrder, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if entityID != uuid.Nil && order.EntityID != entityID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	switch order.Status {
	case enums.OrderStatusConfirmed, enums.OrderStatusFulfillment:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order state does not allow allocation")
	}
	return order, nil
}
