package gateway

import (
	"context"

	"github.com/jkarimi/pesaflow/internal/pkg/database"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	natspkg "github.com/jkarimi/pesaflow/internal/pkg/nats"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
	"github.com/jkarimi/pesaflow/services/payments"
)

// PaymentGateway bundles the provider and event gateways behind payments.PaymentGW
type PaymentGateway struct {
	daraja *DarajaGateway
	nats   *NATSGateway
}

var _ payments.PaymentGW = (*PaymentGateway)(nil)

// NewPaymentGateway creates a gateway instance with provider and NATS clients
func NewPaymentGateway(cfg *models.Config, natsClient *natspkg.Client, redisClient *database.RedisClient, l *logger.ZapLogger) (*PaymentGateway, error) {
	natsGW, err := NewNATSGateway(natsClient)
	if err != nil {
		return nil, err
	}
	return &PaymentGateway{
		daraja: NewDarajaGateway(cfg, redisClient, l),
		nats:   natsGW,
	}, nil
}

// InitiateSTKPush forwards to the provider gateway
func (g *PaymentGateway) InitiateSTKPush(ctx context.Context, msisdn string, amount int64, accountRef string) (*models.InitiateResult, error) {
	return g.daraja.InitiateSTKPush(ctx, msisdn, amount, accountRef)
}

// QueryStatus forwards to the provider gateway
func (g *PaymentGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*models.StatusResult, error) {
	return g.daraja.QueryStatus(ctx, checkoutRequestID)
}

// DeferStatusCheck forwards to the provider gateway's pending queue
func (g *PaymentGateway) DeferStatusCheck(checkoutRequestID string, fn retry.RetryableFunc) error {
	return g.daraja.DeferStatusCheck(checkoutRequestID, fn)
}

// PublishPaymentEvent forwards to the NATS gateway
func (g *PaymentGateway) PublishPaymentEvent(ctx context.Context, event *models.PaymentEvent) error {
	return g.nats.PublishPaymentEvent(ctx, event)
}

// StartPendingDrain starts the deferred-call drain loop on the provider gateway
func (g *PaymentGateway) StartPendingDrain(ctx context.Context) {
	g.daraja.StartPendingDrain(ctx)
}
