package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/realtime"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	return r.id, r.err
}

type fakePublisher struct {
	messages []*pubsub.Message
	result   publishResult
}

func (f *fakePublisher) Publish(_ context.Context, msg *pubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return f.result
}

func TestOrderEventPublisher_SetsAttributes(t *testing.T) {
	fake := &fakePublisher{result: fakeResult{id: "msg-1"}}
	p := &OrderEventPublisher{pub: fake}
	orderID := uuid.New()

	err := p.Publish(context.Background(), realtime.OrderEvent{
		Type:    enums.OrderEventTypeNewOrder,
		OrderID: orderID,
		Status:  enums.OrderStatusPlaced,
	})
	require.NoError(t, err)
	require.Len(t, fake.messages, 1)

	msg := fake.messages[0]
	assert.Equal(t, "new_order", msg.Attributes[attrEventType])
	assert.Equal(t, orderID.String(), msg.Attributes[attrOrderID])

	var decoded realtime.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, enums.OrderStatusPlaced, decoded.Status)
}

func TestOrderEventPublisher_PropagatesFailures(t *testing.T) {
	p := &OrderEventPublisher{pub: &fakePublisher{result: fakeResult{err: errors.New("unavailable")}}}
	err := p.Publish(context.Background(), realtime.OrderEvent{OrderID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")

	p = &OrderEventPublisher{pub: &fakePublisher{}}
	assert.Error(t, p.Publish(context.Background(), realtime.OrderEvent{}))
}

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "tristore-prod"}
	assert.Equal(t, "projects/tristore-prod/topics/orders", c.topicResourceName("orders"))
	assert.Equal(t, "projects/x/topics/y", c.topicResourceName("projects/x/topics/y"))
	assert.Equal(t, "", c.topicResourceName(" "))

	_, err := NewOrderEventPublisher(nil)
	assert.Error(t, err)
}
