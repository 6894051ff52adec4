package gateway

import (
	"context"
	"fmt"

	"github.com/jkarimi/pesaflow/internal/pkg/constants"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	natspkg "github.com/jkarimi/pesaflow/internal/pkg/nats"
)

// NATSGateway publishes payment domain events
type NATSGateway struct {
	producer *natspkg.Producer
}

// NewNATSGateway creates a new NATS gateway
func NewNATSGateway(client *natspkg.Client) (*NATSGateway, error) {
	producer, err := natspkg.NewProducer(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS producer: %w", err)
	}
	return &NATSGateway{
		producer: producer,
	}, nil
}

// PublishPaymentEvent emits a settled or failed event depending on the terminal status
func (g *NATSGateway) PublishPaymentEvent(ctx context.Context, event *models.PaymentEvent) error {
	subject := constants.SubjectPaymentFailed
	if event.Status == models.PaymentStatusPaid {
		subject = constants.SubjectPaymentSettled
	}

	if err := g.producer.PublishJSON(subject, event); err != nil {
		logger.ErrorCtx(ctx, "Failed to publish payment event",
			logger.String("booking_id", event.BookingID.String()),
			logger.String("subject", subject),
			logger.Err(err))
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	return nil
}
