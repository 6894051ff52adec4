package nats

import (
	"encoding/json"
	"fmt"
)

// Producer publishes JSON-encoded messages over an established client
// connection. Gateways use it so event encoding stays in one place.
type Producer struct {
	client *Client
}

// NewProducer creates a producer on top of an existing client
func NewProducer(client *Client) (*Producer, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	return &Producer{client: client}, nil
}

// PublishJSON marshals the message and publishes it to the subject
func (p *Producer) PublishJSON(subject string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", subject, err)
	}

	if err := p.client.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}
