package gateway

import (
	"context"
	"fmt"

	"github.com/jkarimi/pesaflow/internal/pkg/constants"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	natspkg "github.com/jkarimi/pesaflow/internal/pkg/nats"
)

// NATSGateway publishes reconciliation alerts
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

// PublishAlert emits a reconciliation alert for operators
func (g *NATSGateway) PublishAlert(ctx context.Context, alert *models.ReconciliationAlert) error {
	if err := g.producer.PublishJSON(constants.SubjectReconciliationAlert, alert); err != nil {
		logger.ErrorCtx(ctx, "Failed to publish reconciliation alert",
			logger.String("run_id", alert.RunID.String()),
			logger.Err(err))
		return fmt.Errorf("failed to publish reconciliation alert: %w", err)
	}

	return nil
}
