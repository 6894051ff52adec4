package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

// PaymentRepo defines the interface for payment repository operations.
// Terminal transitions are conditional writes keyed on the current status so
// that concurrent callbacks for the same correlation id cannot both win.
type PaymentRepo interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	GetBookingByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Booking, error)

	// MarkProcessing moves a Pending or Failed booking into Processing and
	// records the new attempt. Fails if the booking is already Processing or Paid.
	MarkProcessing(ctx context.Context, bookingID uuid.UUID, checkoutRequestID, merchantRequestID, msisdn string) error

	// CompletePayment settles the transaction identified by checkoutRequestID
	// if and only if it is still Processing, confirming the booking in the
	// same statement. Returns models.ErrAlreadySettled when the conditional
	// update matches no row.
	CompletePayment(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc, receipt string) error

	// FailPayment moves the transaction to Failed under the same Processing
	// precondition as CompletePayment.
	FailPayment(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc string) error

	// HasPaidAttempt reports whether any attempt for the booking already
	// settled. Used to drop duplicate success callbacks for older attempts.
	HasPaidAttempt(ctx context.Context, bookingID uuid.UUID) (bool, error)

	GetAttempts(ctx context.Context, bookingID uuid.UUID) ([]models.PaymentAttempt, error)

	// DemotePaidAttempt moves a settled attempt back to Failed. The Paid
	// precondition makes the demotion idempotent: an attempt that already
	// lost its settlement matches no row and the call is a no-op.
	DemotePaidAttempt(ctx context.Context, attemptID uuid.UUID, reason string) error

	// ListTransactions returns bookings with payment activity inside the
	// window, for reconciliation scans.
	ListTransactions(ctx context.Context, start, end time.Time, filters models.ReconcileFilters) ([]models.Booking, error)

	// ListStaleProcessing returns bookings stuck in Processing longer than the cutoff.
	ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]models.Booking, error)

	// MarkForReview flags a booking for operator attention without touching
	// its payment status.
	MarkForReview(ctx context.Context, bookingID uuid.UUID, reason string) error

	// UpdateAmount corrects the recorded amount after a verified mismatch.
	UpdateAmount(ctx context.Context, bookingID uuid.UUID, amount int64) error

	// CountReceiptUses reports how many settled transactions share a receipt.
	CountReceiptUses(ctx context.Context, receipt string) (int, error)

	// AppendAudit appends a hash-chained record to the booking's audit trail.
	AppendAudit(ctx context.Context, record *models.AuditRecord) error

	GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]models.AuditRecord, error)
}
