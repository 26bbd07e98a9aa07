package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tristore-backend/pkg/config"
)

func TestClientOptions(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "tristore"}, config.PubSubConfig{OrdersTopic: "orders"}))

	opts := clientOptions(
		config.GCPConfig{ProjectID: "tristore", CredentialsFile: "/secrets/sa.json"},
		config.PubSubConfig{OrdersTopic: "orders", Endpoint: "localhost:8085"},
	)
	assert.Len(t, opts, 2)
}

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "tristore"}
	assert.Equal(t, "projects/tristore/topics/orders", c.topicResourceName(" orders "))
	assert.Equal(t, "projects/other/topics/orders", c.topicResourceName("projects/other/topics/orders"))
	assert.Empty(t, c.topicResourceName(""))

	var nilClient *Client
	assert.Nil(t, nilClient.OrdersPublisher())
	assert.NoError(t, nilClient.Close())
}
