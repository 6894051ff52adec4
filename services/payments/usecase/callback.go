package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
	"github.com/jkarimi/pesaflow/internal/utils"
)

// HandleCallback processes a provider webhook through the ingestion gates:
// shape validation, transaction lookup, the duplicate-success gate and the
// conditional state transition. The provider has already been acknowledged by
// the handler; nothing here can surface an error to it. Transient processing
// failures are rescheduled with backoff, bounded by the callback retry budget.
func (uc *PaymentUC) HandleCallback(ctx context.Context, callback *models.STKCallback) {
	if callback == nil || callback.CheckoutRequestID == "" {
		logger.WarnCtx(ctx, "Dropping malformed callback: missing checkout request id")
		return
	}

	booking, err := uc.repo.GetBookingByCheckoutRequestID(ctx, callback.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			// Orphaned callback: money may have moved without a local record.
			// Reconciliation picks these up from the provider side.
			logger.WarnCtx(ctx, "Callback references unknown checkout request id",
				logger.String("checkout_request_id", callback.CheckoutRequestID),
				logger.Int("result_code", callback.ResultCode))
			return
		}
		uc.scheduleCallbackRetry(callback, err)
		return
	}

	if callback.ResultCode == 0 {
		uc.handleSuccessCallback(ctx, booking, callback)
		return
	}

	if err := uc.applyOutcome(ctx, booking, callback.ResultCode, callback.ResultDesc, "", actorCallbackPipeline); err != nil {
		uc.scheduleCallbackRetry(callback, err)
	}
}

func (uc *PaymentUC) handleSuccessCallback(ctx context.Context, booking *models.Booking, callback *models.STKCallback) {
	// Duplicate-success gate: a booking that already settled on any attempt
	// must not settle again off a late callback for an older attempt
	paid, err := uc.repo.HasPaidAttempt(ctx, booking.ID)
	if err != nil {
		uc.scheduleCallbackRetry(callback, err)
		return
	}
	if paid || booking.PaymentStatus == models.PaymentStatusPaid {
		logger.InfoCtx(ctx, "Dropping duplicate success callback",
			logger.String("booking_id", booking.ID.String()),
			logger.String("checkout_request_id", callback.CheckoutRequestID))
		return
	}

	settlement := callback.CallbackMetadata.Extract()

	if err := uc.applyOutcome(ctx, booking, callback.ResultCode, callback.ResultDesc, settlement.MpesaReceipt, actorCallbackPipeline); err != nil {
		uc.scheduleCallbackRetry(callback, err)
		return
	}

	// Settlement metadata feeds the reconciliation invariants but never
	// blocks the settle itself
	if settlement.Amount != 0 && settlement.Amount != booking.Amount {
		reason := fmt.Sprintf("callback amount %d differs from expected %d", settlement.Amount, booking.Amount)
		if err := uc.repo.MarkForReview(ctx, booking.ID, reason); err != nil {
			logger.ErrorCtx(ctx, "Failed to flag amount mismatch", logger.Err(err))
		}
	}
	if settlement.MpesaReceipt != "" {
		uses, err := uc.repo.CountReceiptUses(ctx, settlement.MpesaReceipt)
		if err == nil && uses > 1 {
			reason := fmt.Sprintf("receipt %s already used by another settled payment", settlement.MpesaReceipt)
			if err := uc.repo.MarkForReview(ctx, booking.ID, reason); err != nil {
				logger.ErrorCtx(ctx, "Failed to flag duplicate receipt", logger.Err(err))
			}
		}
	}
}

// scheduleCallbackRetry defers a failed callback reprocess with exponential
// backoff. The attempt counter lives in the attempt store so the budget holds
// across instances; exhaustion flags the booking for operator review.
func (uc *PaymentUC) scheduleCallbackRetry(callback *models.STKCallback, cause error) {
	ctx := context.Background()

	attempt, err := uc.attempts.Incr(ctx, callback.CheckoutRequestID)
	if err != nil {
		logger.Error("Failed to track callback retry attempt",
			logger.String("checkout_request_id", callback.CheckoutRequestID),
			logger.Err(err))
		return
	}

	if attempt > uc.cfg.Payments.CallbackMaxRetries {
		logger.Error("Callback retry budget exhausted",
			logger.String("checkout_request_id", callback.CheckoutRequestID),
			logger.Int("attempts", attempt),
			logger.Err(cause))

		booking, getErr := uc.repo.GetBookingByCheckoutRequestID(ctx, callback.CheckoutRequestID)
		if getErr != nil {
			return
		}
		// Review reasons land in a bounded column; keep the cause readable
		reason := utils.Truncate(fmt.Sprintf("callback processing failed after %d retries: %v", uc.cfg.Payments.CallbackMaxRetries, cause), 500)
		if reviewErr := uc.repo.MarkForReview(ctx, booking.ID, reason); reviewErr != nil {
			logger.Error("Failed to flag booking after retry exhaustion", logger.Err(reviewErr))
		}
		uc.audit(ctx, &models.AuditRecord{
			BookingID:    booking.ID,
			Action:       "callback_retry_exhausted",
			Actor:        actorCallbackPipeline,
			BeforeStatus: string(booking.PaymentStatus),
			AfterStatus:  string(booking.PaymentStatus),
			Detail:       reason,
			Attempt:      attempt,
		})
		return
	}

	backoff := retry.Config{
		BaseDelay:  uc.cfg.Payments.CallbackBaseDelay,
		MaxDelay:   uc.cfg.Payments.CallbackMaxDelay,
		Multiplier: 2.0,
	}
	delay := backoff.Delay(attempt - 1)

	logger.Warn("Callback processing failed, retry scheduled",
		logger.String("checkout_request_id", callback.CheckoutRequestID),
		logger.Int("attempt", attempt),
		logger.Duration("delay", delay),
		logger.Err(cause))

	uc.schedule(delay, func() {
		uc.HandleCallback(context.Background(), callback)
	})
}
