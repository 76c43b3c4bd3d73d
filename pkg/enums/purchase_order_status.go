package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent            PurchaseOrderStatus = "sent"
	PurchaseOrderStatusAcknowledged    PurchaseOrderStatus = "acknowledged"
	PurchaseOrderStatusPartialReceived PurchaseOrderStatus = "partial_received"
	PurchaseOrderStatusReceived        PurchaseOrderStatus = "received"
	PurchaseOrderStatusClosed          PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusAcknowledged,
	PurchaseOrderStatusPartialReceived,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusClosed,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// CanReceive reports whether goods may be booked against the purchase order.
func (p PurchaseOrderStatus) CanReceive() bool {
	switch p {
	case PurchaseOrderStatusSent, PurchaseOrderStatusAcknowledged, PurchaseOrderStatusPartialReceived:
		return true
	default:
		return false
	}
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
