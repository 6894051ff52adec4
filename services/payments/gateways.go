package payments

import (
	"context"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
)

// PaymentGW defines the interface for payment gateway operations
type PaymentGW interface {
	// InitiateSTKPush pushes a payment prompt to the customer's phone and
	// returns the provider correlation ids.
	InitiateSTKPush(ctx context.Context, msisdn string, amount int64, accountRef string) (*models.InitiateResult, error)

	// QueryStatus asks the provider for the current state of a push request.
	QueryStatus(ctx context.Context, checkoutRequestID string) (*models.StatusResult, error)

	// DeferStatusCheck parks a verification call in the bounded pending queue
	// until the provider is reachable again. Returns retry.ErrQueueFull when
	// the queue is at capacity.
	DeferStatusCheck(checkoutRequestID string, fn retry.RetryableFunc) error

	// PublishPaymentEvent emits a settled/failed domain event.
	PublishPaymentEvent(ctx context.Context, event *models.PaymentEvent) error
}
