package allocations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
)

// Allocation outcomes reported to callers and metrics.
const (
	OutcomeFull    = "full"
	OutcomePartial = "partial"
)

// AllocateInput requests stock to be held for one order/product pair.
type AllocateInput struct {
	EntityID                uuid.UUID
	OrderID                 uuid.UUID
	ProductID               uuid.UUID
	Quantity                decimal.Decimal
	Priority                *int
	ExpectedFulfillmentDate *time.Time
}

// AllocateResult reports what was actually held.
type AllocateResult struct {
	Record  models.AllocationRecord `json:"record"`
	Outcome string                  `json:"outcome"`
}

// Skip reasons reported by auto-allocation.
const (
	SkipNoProduct      = "no_product"
	SkipAlreadyCovered = "already_covered"
	SkipNoInventory    = "no_inventory_record"
)

// AutoAllocateLineResult reports what auto-allocation did for one order line.
// Error carries the failure message for lines whose allocation did not go
// through; the rest of the batch is unaffected.
type AutoAllocateLineResult struct {
	LineID     uuid.UUID                `json:"line_id"`
	ProductID  *uuid.UUID               `json:"product_id,omitempty"`
	Allocation *models.AllocationRecord `json:"allocation,omitempty"`
	Outcome    string                   `json:"outcome,omitempty"`
	Skipped    string                   `json:"skipped,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// FulfillInput consumes held stock for an allocation. A nil Quantity fulfills
// the full allocated balance.
type FulfillInput struct {
	AllocationID uuid.UUID
	Quantity     *decimal.Decimal
	Notes        *string
}

// ListFilter narrows allocation listings.
type ListFilter struct {
	EntityID  uuid.UUID
	OrderID   *uuid.UUID
	ProductID *uuid.UUID
	Status    *enums.AllocationStatus
	Limit     int
}

// AllocationCreatedEvent is emitted when stock is held for an order.
type AllocationCreatedEvent struct {
	AllocationID uuid.UUID              `json:"allocation_id"`
	OrderID      uuid.UUID              `json:"order_id"`
	ProductID    uuid.UUID              `json:"product_id"`
	Requested    decimal.Decimal        `json:"requested"`
	Allocated    decimal.Decimal        `json:"allocated"`
	Status       enums.AllocationStatus `json:"status"`
	Outcome      string                 `json:"outcome"`
}

// AllocationFulfilledEvent is emitted when held stock is consumed.
type AllocationFulfilledEvent struct {
	AllocationID uuid.UUID              `json:"allocation_id"`
	OrderID      uuid.UUID              `json:"order_id"`
	ProductID    uuid.UUID              `json:"product_id"`
	Quantity     decimal.Decimal        `json:"quantity"`
	Fulfilled    decimal.Decimal        `json:"fulfilled"`
	Status       enums.AllocationStatus `json:"status"`
}

// AllocationCancelledEvent is emitted when a hold is released.
type AllocationCancelledEvent struct {
	AllocationID uuid.UUID       `json:"allocation_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Released     decimal.Decimal `json:"released"`
}
