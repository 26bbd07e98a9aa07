package realtime

import (
	"context"
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderEvent is the payload pushed to order subscribers.
type OrderEvent struct {
	Type            enums.OrderEventType   `json:"type"`
	OrderID         uuid.UUID              `json:"order_id"`
	OrderNumber     string                 `json:"order_number,omitempty"`
	UserID          uuid.UUID              `json:"user_id"`
	Status          enums.OrderStatus      `json:"status"`
	TryAtHomeStatus *enums.TryAtHomeStatus `json:"try_at_home_status,omitempty"`
	OccurredAt      time.Time              `json:"occurred_at"`
}

// Notifier delivers order events. Delivery is best effort; callers log failures.
type Notifier interface {
	Publish(ctx context.Context, event OrderEvent) error
}
