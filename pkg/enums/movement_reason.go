package enums

import "fmt"

// MovementReason classifies stock movement audit entries.
type MovementReason string

const (
	MovementReasonReceipt     MovementReason = "receipt"
	MovementReasonFulfillment MovementReason = "fulfillment"
	MovementReasonRelease     MovementReason = "release"
	MovementReasonAdjustment  MovementReason = "adjustment"
)

var validMovementReasons = []MovementReason{
	MovementReasonReceipt,
	MovementReasonFulfillment,
	MovementReasonRelease,
	MovementReasonAdjustment,
}

// String implements fmt.Stringer.
func (m MovementReason) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementReason.
func (m MovementReason) IsValid() bool {
	for _, candidate := range validMovementReasons {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementReason converts raw input into a MovementReason.
func ParseMovementReason(value string) (MovementReason, error) {
	for _, candidate := range validMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reason %q", value)
}
