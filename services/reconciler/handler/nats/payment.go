package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jkarimi/pesaflow/internal/pkg/attemptstore"
	"github.com/jkarimi/pesaflow/internal/pkg/constants"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	natspkg "github.com/jkarimi/pesaflow/internal/pkg/nats"
)

// NatsHandler consumes payment events so the reconciler can drop stale
// resolution counters the moment a transaction settles on its own.
type NatsHandler struct {
	client    *natspkg.Client
	attempts  attemptstore.Store
	consumers []*natspkg.Consumer
}

// NewNatsHandler creates a new NATS event handler
func NewNatsHandler(client *natspkg.Client, attempts attemptstore.Store) *NatsHandler {
	return &NatsHandler{
		client:   client,
		attempts: attempts,
	}
}

// Start subscribes to the payment event subjects with the reconciler queue group
func (h *NatsHandler) Start() error {
	for _, subject := range []string{constants.SubjectPaymentSettled, constants.SubjectPaymentFailed} {
		consumer, err := natspkg.NewConsumer(h.client, subject, constants.QueueGroupReconciler, h.handlePaymentEvent)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		h.consumers = append(h.consumers, consumer)
	}
	return nil
}

// Stop unsubscribes all consumers
func (h *NatsHandler) Stop() {
	for _, consumer := range h.consumers {
		if err := consumer.Stop(); err != nil {
			logger.Warn("Failed to stop consumer", logger.Err(err))
		}
	}
}

// handlePaymentEvent clears any pending resolution counters for a settled booking
func (h *NatsHandler) handlePaymentEvent(message []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payment event: %w", err)
	}

	ctx := context.Background()
	for _, issue := range []models.IssueType{
		models.IssueTimeoutRecovery,
		models.IssueStatusVerification,
		models.IssueFailedCallbackRetry,
		models.IssueAPISyncIssue,
	} {
		key := fmt.Sprintf("%s:%s", event.BookingID, issue)
		if err := h.attempts.Clear(ctx, key); err != nil {
			logger.Warn("Failed to clear resolution counter",
				logger.String("booking_id", event.BookingID.String()),
				logger.Err(err))
		}
	}

	logger.Info("Payment event observed",
		logger.String("booking_id", event.BookingID.String()),
		logger.String("status", string(event.Status)),
		logger.Int64("amount", event.Amount))

	return nil
}
