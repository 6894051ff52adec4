package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/attemptstore"
	"github.com/jkarimi/pesaflow/internal/pkg/classifier"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
	"github.com/jkarimi/pesaflow/internal/utils"
	"github.com/jkarimi/pesaflow/services/payments"
)

const (
	actorPaymentEngine    = "payment-engine"
	actorCallbackPipeline = "callback-pipeline"
	actorStatusQuery      = "status-query"
)

// PaymentUC implements the payments.PaymentUC interface
type PaymentUC struct {
	cfg      *models.Config
	repo     payments.PaymentRepo
	gw       payments.PaymentGW
	attempts attemptstore.Store

	// schedule defers a callback reprocess; overridable in tests so they
	// don't sleep through the backoff curve
	schedule func(d time.Duration, fn func())
}

// NewPaymentUC creates a new payment use case
func NewPaymentUC(cfg *models.Config, repo payments.PaymentRepo, gw payments.PaymentGW, attempts attemptstore.Store) *PaymentUC {
	return &PaymentUC{
		cfg:      cfg,
		repo:     repo,
		gw:       gw,
		attempts: attempts,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// InitiatePayment starts a push payment for an approved booking. Re-invoking
// while an attempt is in flight returns the existing correlation id.
func (uc *PaymentUC) InitiatePayment(ctx context.Context, req *models.InitiateRequest) (*models.InitiateResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id: %w", err)
	}

	valid, msisdn, err := utils.ValidateMSISDN(req.PhoneNumber)
	if !valid {
		return nil, &payments.ClientError{Info: classifier.ForKind(classifier.KindInvalidPhone), Err: err}
	}

	booking, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.ApprovalState != models.ApprovalStateApproved {
		return nil, models.ErrNotApproved
	}

	switch booking.PaymentStatus {
	case models.PaymentStatusPaid:
		return nil, models.ErrAlreadyPaid
	case models.PaymentStatusProcessing:
		// Idempotent re-invocation: the in-flight attempt answers for both
		resp := &models.InitiateResponse{Amount: booking.Amount, AlreadyInProgress: true}
		if booking.CheckoutRequestID != nil {
			resp.CheckoutRequestID = *booking.CheckoutRequestID
		}
		if booking.MerchantRequestID != nil {
			resp.MerchantRequestID = *booking.MerchantRequestID
		}
		return resp, nil
	}

	result, err := uc.gw.InitiateSTKPush(ctx, msisdn, booking.Price, booking.Reference)
	if err != nil {
		return nil, uc.wrapProviderError(err)
	}

	err = uc.repo.MarkProcessing(ctx, bookingID, result.CheckoutRequestID, result.MerchantRequestID, msisdn)
	if err != nil {
		if errors.Is(err, models.ErrPaymentInProgress) {
			// Lost a race with a concurrent initiation; the winner's attempt stands
			current, getErr := uc.repo.GetBooking(ctx, bookingID)
			if getErr == nil && current.CheckoutRequestID != nil {
				return &models.InitiateResponse{
					CheckoutRequestID: *current.CheckoutRequestID,
					Amount:            current.Amount,
					AlreadyInProgress: true,
				}, nil
			}
		}
		return nil, err
	}

	uc.audit(ctx, &models.AuditRecord{
		BookingID:    bookingID,
		Action:       "initiate",
		Actor:        actorPaymentEngine,
		BeforeStatus: string(booking.PaymentStatus),
		AfterStatus:  string(models.PaymentStatusProcessing),
		Detail:       fmt.Sprintf("push sent to %s", utils.MaskMSISDN(msisdn)),
	})

	logger.InfoCtx(ctx, "Payment initiated",
		logger.String("booking_id", bookingID.String()),
		logger.String("checkout_request_id", result.CheckoutRequestID),
		logger.Int64("amount", booking.Price))

	return &models.InitiateResponse{
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		Amount:            booking.Price,
	}, nil
}

// GetPaymentStatus returns the client-facing payment status projection. A
// transaction stuck in Processing past the unclear-status window triggers a
// direct provider query before answering.
func (uc *PaymentUC) GetPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*models.PaymentStatusView, error) {
	booking, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.ProcessingFor(time.Now()) > uc.cfg.Payments.UnclearStatusAfter && booking.CheckoutRequestID != nil {
		booking = uc.verifyUnclearStatus(ctx, booking)
	}

	return uc.statusView(booking), nil
}

// verifyUnclearStatus asks the provider directly for a stuck transaction's
// outcome. Provider unavailability defers the check to the pending queue
// instead of failing the status read.
func (uc *PaymentUC) verifyUnclearStatus(ctx context.Context, booking *models.Booking) *models.Booking {
	checkoutRequestID := *booking.CheckoutRequestID

	result, err := uc.gw.QueryStatus(ctx, checkoutRequestID)
	if err != nil {
		uc.deferVerification(checkoutRequestID)
		logger.WarnCtx(ctx, "Provider status query failed, verification deferred",
			logger.String("checkout_request_id", checkoutRequestID),
			logger.Err(err))
		return booking
	}

	if err := uc.applyOutcome(ctx, booking, result.ResultCode, result.ResultDesc, "", actorStatusQuery); err != nil {
		logger.ErrorCtx(ctx, "Failed to apply queried outcome",
			logger.String("checkout_request_id", checkoutRequestID),
			logger.Err(err))
		return booking
	}

	refreshed, err := uc.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return booking
	}
	return refreshed
}

// deferVerification parks a status verification in the gateway's pending queue
func (uc *PaymentUC) deferVerification(checkoutRequestID string) {
	err := uc.gw.DeferStatusCheck(checkoutRequestID, func(ctx context.Context) error {
		booking, err := uc.repo.GetBookingByCheckoutRequestID(ctx, checkoutRequestID)
		if err != nil {
			return err
		}
		if booking.PaymentStatus != models.PaymentStatusProcessing {
			return nil
		}
		result, err := uc.gw.QueryStatus(ctx, checkoutRequestID)
		if err != nil {
			return err
		}
		return uc.applyOutcome(ctx, booking, result.ResultCode, result.ResultDesc, "", actorStatusQuery)
	})
	if err != nil && !errors.Is(err, retry.ErrQueueFull) {
		logger.Warn("Failed to defer status verification",
			logger.String("checkout_request_id", checkoutRequestID),
			logger.Err(err))
	}
}

// applyOutcome settles or fails a Processing transaction from a provider
// verdict and emits the matching domain event. ErrAlreadySettled from the
// conditional write means another path won the race; that is not an error.
func (uc *PaymentUC) applyOutcome(ctx context.Context, booking *models.Booking, resultCode int, resultDesc, receipt string, actor string) error {
	checkoutRequestID := ""
	if booking.CheckoutRequestID != nil {
		checkoutRequestID = *booking.CheckoutRequestID
	}

	info := classifier.Classify(resultCode)
	resultDesc = utils.SanitizeString(resultDesc)

	var err error
	var afterStatus models.PaymentStatus
	if info.IsSuccess() {
		afterStatus = models.PaymentStatusPaid
		err = uc.repo.CompletePayment(ctx, checkoutRequestID, resultCode, resultDesc, receipt)
	} else {
		afterStatus = models.PaymentStatusFailed
		err = uc.repo.FailPayment(ctx, checkoutRequestID, resultCode, resultDesc)
	}

	if err != nil {
		if errors.Is(err, models.ErrAlreadySettled) {
			logger.InfoCtx(ctx, "Transaction already settled, outcome dropped",
				logger.String("checkout_request_id", checkoutRequestID),
				logger.Int("result_code", resultCode))
			return nil
		}
		return err
	}

	uc.audit(ctx, &models.AuditRecord{
		BookingID:    booking.ID,
		Action:       "settle",
		Actor:        actor,
		BeforeStatus: string(models.PaymentStatusProcessing),
		AfterStatus:  string(afterStatus),
		Detail:       fmt.Sprintf("result %d: %s", resultCode, resultDesc),
	})

	if clearErr := uc.attempts.Clear(ctx, checkoutRequestID); clearErr != nil {
		logger.WarnCtx(ctx, "Failed to clear callback retry counter", logger.Err(clearErr))
	}

	event := &models.PaymentEvent{
		BookingID:         booking.ID,
		CheckoutRequestID: checkoutRequestID,
		Amount:            booking.Amount,
		Status:            afterStatus,
		ResultCode:        resultCode,
		ResultDesc:        resultDesc,
		OccurredAt:        time.Now(),
	}
	if pubErr := uc.gw.PublishPaymentEvent(ctx, event); pubErr != nil {
		// The transition is already durable; the event is best effort and
		// reconciliation covers consumers that missed it
		logger.ErrorCtx(ctx, "Failed to publish payment event",
			logger.String("booking_id", booking.ID.String()),
			logger.Err(pubErr))
	}

	return nil
}

// statusView builds the client-facing projection of a booking's payment state
func (uc *PaymentUC) statusView(booking *models.Booking) *models.PaymentStatusView {
	view := &models.PaymentStatusView{
		BookingID:     booking.ID,
		PaymentStatus: booking.PaymentStatus,
		Amount:        booking.Amount,
		MpesaReceipt:  booking.MpesaReceipt,
		ResultCode:    booking.ResultCode,
		ResultDesc:    booking.ResultDesc,
		StatusUpdated: booking.UpdatedAt,
	}

	if booking.PaymentStatus == models.PaymentStatusFailed && booking.ResultCode != nil {
		view.ShowRetry = classifier.Classify(*booking.ResultCode).ShowRetry
	}

	return view
}

// wrapProviderError converts gateway failures into client-facing errors
func (uc *PaymentUC) wrapProviderError(err error) error {
	var provErr *models.ProviderError
	if errors.As(err, &provErr) {
		return &payments.ClientError{Info: classifier.Classify(provErr.Code), Err: err}
	}

	var classified interface{ ClassifierInfo() classifier.ErrorInfo }
	if errors.As(err, &classified) {
		return &payments.ClientError{Info: classified.ClassifierInfo(), Err: err}
	}

	if errors.Is(err, retry.ErrQueueFull) {
		return &payments.ClientError{Info: classifier.ForKind(classifier.KindQueueFull), Err: err}
	}

	return &payments.ClientError{Info: classifier.ForKind(classifier.KindAPIUnavailable), Err: err}
}

// audit appends to the tamper-evident trail; failures are logged, never fatal
func (uc *PaymentUC) audit(ctx context.Context, record *models.AuditRecord) {
	if err := uc.repo.AppendAudit(ctx, record); err != nil {
		logger.ErrorCtx(ctx, "Failed to append audit record",
			logger.String("booking_id", record.BookingID.String()),
			logger.String("action", record.Action),
			logger.Err(err))
	}
}
