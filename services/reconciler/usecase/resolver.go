package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/classifier"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

const actorReconciler = "reconciler"

// resolve attempts automatic resolution of a classified issue. Attempts are
// bounded per (booking, issue) through the attempt store; once the budget is
// spent the booking is handed to an operator instead of being retried forever.
func (s *ReconcilerService) resolve(ctx context.Context, booking *models.Booking, finding *models.Finding) {
	key := fmt.Sprintf("%s:%s", booking.ID, finding.Issue)

	attempt, err := s.attempts.Incr(ctx, key)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to track resolution attempt",
			logger.String("booking_id", booking.ID.String()),
			logger.Err(err))
		return
	}

	if attempt > s.cfg.Reconciliation.MaxResolveTries {
		s.escalate(ctx, booking, finding, attempt,
			fmt.Sprintf("automatic resolution gave up after %d attempts", s.cfg.Reconciliation.MaxResolveTries))
		return
	}

	var resolveErr error
	resolved := false

	switch finding.Issue {
	case models.IssueTimeoutRecovery, models.IssueStatusVerification, models.IssueFailedCallbackRetry, models.IssueAPISyncIssue:
		resolved, resolveErr = s.resolveByProviderQuery(ctx, booking)

	case models.IssueAmountMismatch:
		resolved, resolveErr = s.resolveAmountMismatch(ctx, booking, finding)

	case models.IssueDuplicateCallback:
		resolved, resolveErr = s.resolveDuplicateSettlement(ctx, booking, finding)

	case models.IssueOrphanedPayment, models.IssueStatusInconsistency:
		// No safe automatic fix; possible refunds are an operator decision
		resolveErr = s.repo.MarkForReview(ctx, booking.ID, finding.Detail)
		resolved = resolveErr == nil
	}

	s.auditResolution(ctx, booking, finding, attempt, resolved, resolveErr)

	if resolved {
		if err := s.attempts.Clear(ctx, key); err != nil {
			logger.WarnCtx(ctx, "Failed to clear resolution counter", logger.Err(err))
		}
	}
}

// resolveAmountMismatch compares the recorded amount against the booking price.
// A drift inside the tolerance is corrected in place; anything at or past it
// could mean an under- or overpayment and is an operator decision, so the
// recorded amount is left untouched as evidence.
func (s *ReconcilerService) resolveAmountMismatch(ctx context.Context, booking *models.Booking, finding *models.Finding) (bool, error) {
	diff := booking.Amount - booking.Price
	if diff < 0 {
		diff = -diff
	}

	if diff < s.cfg.Reconciliation.AmountTolerance {
		if err := s.repo.UpdateAmount(ctx, booking.ID, booking.Price); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.repo.MarkForReview(ctx, booking.ID, finding.Detail); err != nil {
		return false, err
	}
	return true, nil
}

// resolveDuplicateSettlement keeps exactly one settled attempt for the booking
// and demotes the rest to Failed. The booking itself stays Paid and Approved;
// only the attempt history is rewritten. A receipt that also settles other
// bookings may still hide a refund, so the review flag stays on.
func (s *ReconcilerService) resolveDuplicateSettlement(ctx context.Context, booking *models.Booking, finding *models.Finding) (bool, error) {
	attempts, err := s.repo.GetAttempts(ctx, booking.ID)
	if err != nil {
		return false, err
	}

	// The booking's active correlation id names the attempt that won the
	// settlement; without one the earliest Paid attempt stands in.
	keep := uuid.Nil
	for _, attempt := range attempts {
		if attempt.Status != models.PaymentStatusPaid {
			continue
		}
		if booking.CheckoutRequestID != nil && attempt.CheckoutRequestID == *booking.CheckoutRequestID {
			keep = attempt.ID
			break
		}
		if keep == uuid.Nil {
			keep = attempt.ID
		}
	}

	for _, attempt := range attempts {
		if attempt.Status != models.PaymentStatusPaid || attempt.ID == keep {
			continue
		}
		reason := fmt.Sprintf("duplicate settlement superseded by attempt %s", keep)
		if err := s.repo.DemotePaidAttempt(ctx, attempt.ID, reason); err != nil {
			return false, err
		}
	}

	if err := s.repo.MarkForReview(ctx, booking.ID, finding.Detail); err != nil {
		return false, err
	}
	return true, nil
}

// resolveByProviderQuery asks the provider for the authoritative outcome and
// applies it through the conditional transitions. ErrAlreadySettled means a
// late callback beat us to it, which is a resolution too.
func (s *ReconcilerService) resolveByProviderQuery(ctx context.Context, booking *models.Booking) (bool, error) {
	if booking.CheckoutRequestID == nil {
		return false, fmt.Errorf("no checkout request id to query")
	}
	checkoutRequestID := *booking.CheckoutRequestID

	result, err := s.provider.QueryStatus(ctx, checkoutRequestID)
	if err != nil {
		return false, fmt.Errorf("provider query failed: %w", err)
	}

	info := classifier.Classify(result.ResultCode)
	if info.IsSuccess() {
		err = s.repo.CompletePayment(ctx, checkoutRequestID, result.ResultCode, result.ResultDesc, "")
	} else {
		err = s.repo.FailPayment(ctx, checkoutRequestID, result.ResultCode, result.ResultDesc)
	}
	if err != nil && !errors.Is(err, models.ErrAlreadySettled) {
		return false, err
	}

	logger.InfoCtx(ctx, "Stuck transaction resolved from provider records",
		logger.String("booking_id", booking.ID.String()),
		logger.String("checkout_request_id", checkoutRequestID),
		logger.Int("result_code", result.ResultCode))

	return true, nil
}

// escalate hands an unresolvable issue to a human operator
func (s *ReconcilerService) escalate(ctx context.Context, booking *models.Booking, finding *models.Finding, attempt int, reason string) {
	detail := fmt.Sprintf("%s: %s (%s)", finding.Issue, finding.Detail, reason)
	if err := s.repo.MarkForReview(ctx, booking.ID, detail); err != nil {
		logger.ErrorCtx(ctx, "Failed to escalate issue for review",
			logger.String("booking_id", booking.ID.String()),
			logger.Err(err))
	}

	s.auditResolution(ctx, booking, finding, attempt, false, fmt.Errorf("%s", reason))
}

// auditResolution records every resolution attempt, successful or not
func (s *ReconcilerService) auditResolution(ctx context.Context, booking *models.Booking, finding *models.Finding, attempt int, resolved bool, cause error) {
	detail := fmt.Sprintf("issue %s", finding.Issue)
	if resolved {
		detail += " resolved"
	} else if cause != nil {
		detail += fmt.Sprintf(" unresolved: %v", cause)
	}

	record := &models.AuditRecord{
		BookingID:    booking.ID,
		Action:       "reconcile",
		Actor:        actorReconciler,
		BeforeStatus: string(booking.PaymentStatus),
		AfterStatus:  string(booking.PaymentStatus),
		Detail:       detail,
		Attempt:      attempt,
	}
	if err := s.repo.AppendAudit(ctx, record); err != nil {
		logger.ErrorCtx(ctx, "Failed to audit resolution attempt",
			logger.String("booking_id", booking.ID.String()),
			logger.Err(err))
	}
}
