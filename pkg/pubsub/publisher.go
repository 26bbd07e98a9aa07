package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/tristore-backend/pkg/realtime"
)

const (
	attrEventType = "event_type"
	attrOrderID   = "order_id"
)

type publisher interface {
	Publish(context.Context, *pubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// OrderEventPublisher forwards order events to a Pub/Sub topic.
type OrderEventPublisher struct {
	pub publisher
}

// NewOrderEventPublisher wraps the topic publisher returned by Client.OrdersPublisher.
func NewOrderEventPublisher(p *pubsub.Publisher) (*OrderEventPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return &OrderEventPublisher{pub: &gcpPublisher{Publisher: p}}, nil
}

// Publish sends the event and waits for the server ack.
func (p *OrderEventPublisher) Publish(ctx context.Context, event realtime.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			attrEventType: string(event.Type),
			attrOrderID:   event.OrderID.String(),
		},
	}
	result := p.pub.Publish(ctx, msg)
	if result == nil {
		return errors.New("publish result is nil")
	}
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *OrderEventPublisher) Stop() {
	if g, ok := p.pub.(*gcpPublisher); ok && g.Publisher != nil {
		g.Publisher.Stop()
	}
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*pubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
