package enums

import "fmt"

// TryAtHomeStatus tracks the trial sub-workflow of a try-at-home order.
type TryAtHomeStatus string

const (
	TryAtHomeStatusPending           TryAtHomeStatus = "pending"
	TryAtHomeStatusDelivered         TryAtHomeStatus = "delivered"
	TryAtHomeStatusReturned          TryAtHomeStatus = "returned"
	TryAtHomeStatusPartiallyReturned TryAtHomeStatus = "partially_returned"
	TryAtHomeStatusKept              TryAtHomeStatus = "kept"
)

var validTryAtHomeStatuses = []TryAtHomeStatus{
	TryAtHomeStatusPending,
	TryAtHomeStatusDelivered,
	TryAtHomeStatusReturned,
	TryAtHomeStatusPartiallyReturned,
	TryAtHomeStatusKept,
}

// String implements fmt.Stringer.
func (t TryAtHomeStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TryAtHomeStatus.
func (t TryAtHomeStatus) IsValid() bool {
	for _, candidate := range validTryAtHomeStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTryAtHomeStatus converts raw input into a TryAtHomeStatus.
func ParseTryAtHomeStatus(value string) (TryAtHomeStatus, error) {
	for _, candidate := range validTryAtHomeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid try-at-home status %q", value)
}

// IsReturn reports whether the status moves stock back into the catalog.
func (t TryAtHomeStatus) IsReturn() bool {
	return t == TryAtHomeStatusReturned || t == TryAtHomeStatusPartiallyReturned
}
