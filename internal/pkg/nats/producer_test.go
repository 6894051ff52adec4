package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducer_NilClient(t *testing.T) {
	producer, err := NewProducer(nil)
	assert.Error(t, err)
	assert.Nil(t, producer)
	assert.Contains(t, err.Error(), "client cannot be nil")
}

func TestPublishJSON_MarshalFailure(t *testing.T) {
	producer, err := NewProducer(&Client{})
	assert.NoError(t, err)

	// Channels cannot be JSON-encoded, so this fails before any publish
	err = producer.PublishJSON("payments.settled", map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
}
