package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSalesOrder    OutboxAggregateType = "sales_order"
	AggregateAllocation    OutboxAggregateType = "allocation"
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateInventory     OutboxAggregateType = "inventory"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSalesOrder,
	AggregateAllocation,
	AggregatePurchaseOrder,
	AggregateInventory,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderConfirmed      OutboxEventType = "order_confirmed"
	EventOrderStateChanged   OutboxEventType = "order_state_changed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventAllocationCreated   OutboxEventType = "allocation_created"
	EventAllocationFulfilled OutboxEventType = "allocation_fulfilled"
	EventAllocationCancelled OutboxEventType = "allocation_cancelled"
	EventStockReceived       OutboxEventType = "stock_received"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderConfirmed,
	EventOrderStateChanged,
	EventOrderCancelled,
	EventAllocationCreated,
	EventAllocationFulfilled,
	EventAllocationCancelled,
	EventStockReceived,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
