package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

// PaymentUC defines the interface for payment use cases
type PaymentUC interface {
	// InitiatePayment starts a push payment for an approved booking. It is
	// idempotent: re-invoking while an attempt is in flight returns the
	// existing correlation id instead of pushing again.
	InitiatePayment(ctx context.Context, req *models.InitiateRequest) (*models.InitiateResponse, error)

	// GetPaymentStatus returns the client-facing payment status projection.
	// When the status has been unclear for longer than the configured window
	// it queries the provider directly before answering.
	GetPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*models.PaymentStatusView, error)

	// HandleCallback processes a provider webhook. It never returns an error
	// for business failures; the provider is always acknowledged.
	HandleCallback(ctx context.Context, callback *models.STKCallback)
}
