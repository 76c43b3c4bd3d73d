package enums

import "fmt"

// OrderStatus tracks the lifecycle of a sales order.
type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "created"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusFulfillment     OrderStatus = "fulfillment"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusNeedsAttention  OrderStatus = "needs_attention"
	OrderStatusReturnRequested OrderStatus = "return_requested"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusConfirmed,
	OrderStatusFulfillment,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusNeedsAttention,
	OrderStatusReturnRequested,
}

// orderTransitions is the single source of truth for legal lifecycle moves.
// cancelled is reachable from every non-terminal state; needs_attention is a
// side branch set by external monitoring and resumable into the main flow.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:         {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusNeedsAttention},
	OrderStatusConfirmed:       {OrderStatusFulfillment, OrderStatusCancelled, OrderStatusNeedsAttention},
	OrderStatusFulfillment:     {OrderStatusShipped, OrderStatusCancelled, OrderStatusNeedsAttention},
	OrderStatusShipped:         {OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled, OrderStatusNeedsAttention},
	OrderStatusDelivered:       {OrderStatusCompleted, OrderStatusReturnRequested, OrderStatusCancelled},
	OrderStatusNeedsAttention:  {OrderStatusConfirmed, OrderStatusFulfillment, OrderStatusCancelled},
	OrderStatusReturnRequested: {OrderStatusCancelled},
	OrderStatusCompleted:       {},
	OrderStatusCancelled:       {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal from this state.
func (o OrderStatus) IsTerminal() bool {
	return len(orderTransitions[o]) == 0
}

// CanTransitionTo reports whether moving to target is a legal lifecycle step.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderTransitions[o] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
