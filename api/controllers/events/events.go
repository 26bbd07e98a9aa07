package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/tristore-backend/api/middleware"
	"github.com/angelmondragon/tristore-backend/api/responses"
	"github.com/angelmondragon/tristore-backend/api/validators"
	internalorders "github.com/angelmondragon/tristore-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	"github.com/angelmondragon/tristore-backend/pkg/realtime"
)

const defaultKeepAlive = 25 * time.Second

// Subscriber opens live order event streams.
type Subscriber interface {
	SubscribeNewOrders(ctx context.Context) (*realtime.Subscription, error)
	SubscribeOrder(ctx context.Context, orderID string) (*realtime.Subscription, error)
}

// OrderStream pushes status updates of one order to anyone allowed to read it.
func OrderStream(svc internalorders.Service, subs Subscriber, keepAlive time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || subs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order events unavailable"))
			return
		}
		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.GetOrder(r.Context(), actor, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := subs.SubscribeOrder(r.Context(), orderID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to order events"))
			return
		}
		defer func() { _ = sub.Close() }()

		stream(w, r, sub, keepAlive, logg)
	}
}

// NewOrderStream pushes every newly placed order. Admin only.
func NewOrderStream(subs Subscriber, keepAlive time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if subs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order events unavailable"))
			return
		}
		sub, err := subs.SubscribeNewOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to new orders"))
			return
		}
		defer func() { _ = sub.Close() }()

		stream(w, r, sub, keepAlive, logg)
	}
}

func stream(w http.ResponseWriter, r *http.Request, sub *realtime.Subscription, keepAlive time.Duration, logg *logger.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
		return
	}
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, event); err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"order_id": event.OrderID.String(),
						"error":    err.Error(),
					}), "order event stream write failed")
				}
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event realtime.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
