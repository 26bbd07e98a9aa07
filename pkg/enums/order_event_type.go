package enums

import "fmt"

// OrderEventType names the push notifications emitted for orders.
type OrderEventType string

const (
	OrderEventTypeNewOrder      OrderEventType = "new_order"
	OrderEventTypeStatusUpdated OrderEventType = "order_status_updated"
)

var validOrderEventTypes = []OrderEventType{
	OrderEventTypeNewOrder,
	OrderEventTypeStatusUpdated,
}

// String implements fmt.Stringer.
func (o OrderEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderEventType.
func (o OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into a OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}
