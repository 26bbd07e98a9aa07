package orders

import (
	"testing"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPlaced:         {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		enums.OrderStatusConfirmed:      {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
		enums.OrderStatusPreparing:      {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
		enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		enums.OrderStatusDelivered:      nil,
		enums.OrderStatusCancelled:      nil,
	}
	all := []enums.OrderStatus{
		enums.OrderStatusPlaced,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	for from, successors := range allowed {
		for _, to := range all {
			want := false
			for _, s := range successors {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionTryAtHome(t *testing.T) {
	assert.True(t, CanTransitionTryAtHome(enums.TryAtHomeStatusPending, enums.TryAtHomeStatusDelivered))
	assert.False(t, CanTransitionTryAtHome(enums.TryAtHomeStatusPending, enums.TryAtHomeStatusReturned))
	for _, terminal := range []enums.TryAtHomeStatus{
		enums.TryAtHomeStatusReturned,
		enums.TryAtHomeStatusPartiallyReturned,
		enums.TryAtHomeStatusKept,
	} {
		assert.True(t, CanTransitionTryAtHome(enums.TryAtHomeStatusDelivered, terminal))
		assert.False(t, CanTransitionTryAtHome(terminal, enums.TryAtHomeStatusDelivered))
	}
}
