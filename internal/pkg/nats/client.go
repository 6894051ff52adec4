package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Client wraps a NATS connection used for the payment event bus. Settlement
// events and reconciliation alerts both travel over this connection, so it
// reconnects indefinitely rather than giving up.
type Client struct {
	conn *nats.Conn
}

func NewClient(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
	}

	return &Client{conn: conn}, nil
}

// GetConn returns the underlying NATS connection.
func (c *Client) GetConn() *nats.Conn {
	return c.conn
}

// Publish sends a message to the specified subject.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close drains the connection, letting in-flight messages finish.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
