package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

const subscriptionBuffer = 16

type redisPubSub interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
	OrderChannel(id string) string
}

// Broker publishes order events over Redis pub/sub. New orders go to the global
// channel, status updates to the channel keyed by order id.
type Broker struct {
	client redisPubSub
	logg   *logger.Logger
}

// NewBroker wires a broker over the redis client.
func NewBroker(client redisPubSub, logg *logger.Logger) (*Broker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Broker{client: client, logg: logg}, nil
}

// ChannelFor returns the channel an event is published on.
func (b *Broker) ChannelFor(event OrderEvent) string {
	if event.Type == enums.OrderEventTypeNewOrder {
		return b.client.OrderChannel("")
	}
	return b.client.OrderChannel(event.OrderID.String())
}

func (b *Broker) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := b.client.Publish(ctx, b.ChannelFor(event), payload); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// SubscribeNewOrders streams every new_order event.
func (b *Broker) SubscribeNewOrders(ctx context.Context) (*Subscription, error) {
	return b.subscribe(ctx, b.client.OrderChannel(""))
}

// SubscribeOrder streams status updates of a single order.
func (b *Broker) SubscribeOrder(ctx context.Context, orderID string) (*Subscription, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id required")
	}
	return b.subscribe(ctx, b.client.OrderChannel(orderID))
}

func (b *Broker) subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps, err := b.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{
		ps:     ps,
		events: make(chan OrderEvent, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(ctx, b.logg)
	return sub, nil
}

// Subscription is a live stream of decoded order events.
type Subscription struct {
	ps     *goredis.PubSub
	events chan OrderEvent
	done   chan struct{}
	once   sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan OrderEvent {
	return s.events
}

// Close stops the stream and releases the redis connection.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *Subscription) pump(ctx context.Context, logg *logger.Logger) {
	defer close(s.events)
	messages := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"channel": msg.Channel,
						"error":   err.Error(),
					}), "dropping malformed order event")
				}
				continue
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}
