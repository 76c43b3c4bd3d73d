package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/outbox"
	"github.com/dmreyes/backoffice-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// allocationReleaser cancels an order's live allocations inside the caller's
// transaction, returning held stock before the order flips to cancelled.
type allocationReleaser interface {
	CancelActiveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// Service drives the sales order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SalesOrder, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	StartFulfillment(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	Ship(ctx context.Context, orderID uuid.UUID, tracking TrackingInput) (*models.SalesOrder, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason *string) (*models.SalesOrder, error)
	FlagNeedsAttention(ctx context.Context, orderID uuid.UUID, note *string) (*models.SalesOrder, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error)
	List(ctx context.Context, filter ListFilter) (*OrderPage, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	allocations allocationReleaser
	outbox      outboxPublisher
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, allocations allocationReleaser, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if allocations == nil {
		return nil, fmt.Errorf("allocation releaser required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, allocations: allocations, outbox: publisher}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SalesOrder, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order line required")
	}
	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line price cannot be negative")
		}
	}

	priority := input.DefaultPriority
	if priority <= 0 {
		priority = 5
	}

	order := models.SalesOrder{
		ID:              uuid.New(),
		EntityID:        input.EntityID,
		CustomerID:      input.CustomerID,
		OrderNumber:     input.OrderNumber,
		Status:          enums.OrderStatusCreated,
		DefaultPriority: priority,
		Notes:           input.Notes,
	}
	for _, line := range input.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ID:          uuid.New(),
			EntityID:    input.EntityID,
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	now := time.Now().UTC()
	return s.transition(ctx, orderID, enums.OrderStatusConfirmed, nil, map[string]any{
		"confirmed_at": now,
	})
}

func (s *service) StartFulfillment(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	return s.transition(ctx, orderID, enums.OrderStatusFulfillment, nil, nil)
}

func (s *service) Ship(ctx context.Context, orderID uuid.UUID, tracking TrackingInput) (*models.SalesOrder, error) {
	now := time.Now().UTC()
	updates := map[string]any{"shipped_at": now}
	if tracking.Carrier != nil {
		updates["tracking_carrier"] = *tracking.Carrier
	}
	if tracking.Number != nil {
		updates["tracking_number"] = *tracking.Number
	}
	return s.transition(ctx, orderID, enums.OrderStatusShipped, nil, updates)
}

func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	now := time.Now().UTC()
	return s.transition(ctx, orderID, enums.OrderStatusDelivered, nil, map[string]any{
		"delivered_at": now,
	})
}

func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	now := time.Now().UTC()
	return s.transition(ctx, orderID, enums.OrderStatusCompleted, nil, map[string]any{
		"completed_at": now,
	})
}

// Cancel flips the order and releases every non-fulfilled allocation in the
// same transaction. An order is never left cancelled while stock is held.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason *string) (*models.SalesOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot cancel order in status %s", order.Status))
		}

		if err := s.allocations.CancelActiveForOrder(ctx, tx, orderID); err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if reason != nil {
			updates["cancel_reason"] = *reason
		}
		if err := repo.Update(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		from := order.Status
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancelReason = reason
		updated = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateSalesOrder,
			AggregateID:   order.ID,
			EntityID:      order.EntityID,
			Version:       1,
			Data: OrderStateChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				From:        from,
				To:          enums.OrderStatusCancelled,
				Reason:      reason,
				OccurredAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) FlagNeedsAttention(ctx context.Context, orderID uuid.UUID, note *string) (*models.SalesOrder, error) {
	updates := map[string]any{}
	if note != nil {
		updates["notes"] = *note
	}
	return s.transition(ctx, orderID, enums.OrderStatusNeedsAttention, note, updates)
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.load(ctx, s.repo, orderID)
}

func (s *service) List(ctx context.Context, filter ListFilter) (*OrderPage, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListQuery{
		EntityID:   filter.EntityID,
		CustomerID: filter.CustomerID,
		Status:     filter.Status,
		Limit:      pagination.LimitWithBuffer(filter.Limit),
		Cursor:     cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &OrderPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// transition performs one lifecycle move with its status timestamp and emits
// the matching outbox event atomically.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, reason *string, extra map[string]any) (*models.SalesOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("invalid transition from %s to %s", order.Status, target))
		}

		updates := map[string]any{"status": target}
		for key, value := range extra {
			updates[key] = value
		}
		if err := repo.Update(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		from := order.Status
		order.Status = target
		applyTimestamps(order, updates)
		updated = order

		eventType := enums.EventOrderStateChanged
		if target == enums.OrderStatusConfirmed {
			eventType = enums.EventOrderConfirmed
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateSalesOrder,
			AggregateID:   order.ID,
			EntityID:      order.EntityID,
			Version:       1,
			Data: OrderStateChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				From:        from,
				To:          target,
				Reason:      reason,
				OccurredAt:  time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.SalesOrder, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func applyTimestamps(order *models.SalesOrder, updates map[string]any) {
	for key, value := range updates {
		ts, ok := value.(time.Time)
		if !ok {
			continue
		}
		stamped := ts
		switch key {
		case "confirmed_at":
			order.ConfirmedAt = &stamped
		case "shipped_at":
			order.ShippedAt = &stamped
		case "delivered_at":
			order.DeliveredAt = &stamped
		case "completed_at":
			order.CompletedAt = &stamped
		}
	}
}
