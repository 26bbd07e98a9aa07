package orders

import (
	"fmt"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
)

var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPlaced:         {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:      {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:      {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

var tryAtHomeTransitions = map[enums.TryAtHomeStatus][]enums.TryAtHomeStatus{
	enums.TryAtHomeStatusPending: {enums.TryAtHomeStatusDelivered},
	enums.TryAtHomeStatusDelivered: {
		enums.TryAtHomeStatusReturned,
		enums.TryAtHomeStatusPartiallyReturned,
		enums.TryAtHomeStatusKept,
	},
}

// CanTransition reports whether to is a direct successor of from. Same-state moves are rejected.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionTryAtHome reports whether the try-at-home sub-status may move from -> to.
func CanTransitionTryAtHome(from, to enums.TryAtHomeStatus) bool {
	for _, next := range tryAtHomeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to fmt.Stringer) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{
			"from": from.String(),
			"to":   to.String(),
		})
}
