package enums

import "fmt"

// AllocationStatus tracks the state of an inventory allocation record.
// "reserved" means partially covered: the requested quantity exceeded what
// was available when the allocation was made and the shortage is still open.
type AllocationStatus string

const (
	AllocationStatusReserved  AllocationStatus = "reserved"
	AllocationStatusAllocated AllocationStatus = "allocated"
	AllocationStatusFulfilled AllocationStatus = "fulfilled"
	AllocationStatusCancelled AllocationStatus = "cancelled"
)

var validAllocationStatuses = []AllocationStatus{
	AllocationStatusReserved,
	AllocationStatusAllocated,
	AllocationStatusFulfilled,
	AllocationStatusCancelled,
}

// String implements fmt.Stringer.
func (a AllocationStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AllocationStatus.
func (a AllocationStatus) IsValid() bool {
	for _, candidate := range validAllocationStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsActive reports whether the allocation still holds or awaits stock.
func (a AllocationStatus) IsActive() bool {
	return a == AllocationStatusReserved || a == AllocationStatusAllocated
}

// ParseAllocationStatus converts raw input into an AllocationStatus.
func ParseAllocationStatus(value string) (AllocationStatus, error) {
	for _, candidate := range validAllocationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation status %q", value)
}
