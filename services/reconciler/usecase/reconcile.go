package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/attemptstore"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	nrpkg "github.com/jkarimi/pesaflow/internal/pkg/newrelic"
	"github.com/jkarimi/pesaflow/services/payments"
	"github.com/jkarimi/pesaflow/services/payments/repository"
	"github.com/jkarimi/pesaflow/services/reconciler"
)

// ReconcilerService implements the reconciler.ReconcilerUC interface. It reads
// the same booking tables the payment engine writes, so every fix goes through
// the payment repository's conditional transitions rather than raw updates.
type ReconcilerService struct {
	cfg      *models.Config
	repo     payments.PaymentRepo
	provider reconciler.ProviderGW
	alerts   reconciler.AlertGW
	attempts attemptstore.Store
}

// NewReconcilerService creates a new reconciliation use case
func NewReconcilerService(
	cfg *models.Config,
	repo payments.PaymentRepo,
	provider reconciler.ProviderGW,
	alerts reconciler.AlertGW,
	attempts attemptstore.Store,
) *ReconcilerService {
	return &ReconcilerService{
		cfg:      cfg,
		repo:     repo,
		provider: provider,
		alerts:   alerts,
		attempts: attempts,
	}
}

// RunReconciliation scans transactions in [start, end), classifies each one
// and attempts automatic resolution of the issues it knows how to handle.
func (s *ReconcilerService) RunReconciliation(ctx context.Context, start, end time.Time, filters models.ReconcileFilters) (*models.ReconciliationReport, error) {
	report := &models.ReconciliationReport{
		RunID:     uuid.New(),
		StartDate: start,
		EndDate:   end,
		StartedAt: time.Now(),
	}

	bookings, err := s.repo.ListTransactions(ctx, start, end, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	report.Scanned = len(bookings)

	_ = nrpkg.WithSegment(ctx, "reconciliation/scan", func() error {
		for i := range bookings {
			booking := &bookings[i]
			finding := s.classify(ctx, booking)
			report.Add(finding)

			if finding.Issue != "" {
				s.resolve(ctx, booking, &finding)
			}
		}
		return nil
	})

	report.FinishedAt = time.Now()

	logger.InfoCtx(ctx, "Reconciliation run finished",
		logger.String("run_id", report.RunID.String()),
		logger.Int("scanned", report.Scanned),
		logger.Int("matched", report.Matched),
		logger.Int("unmatched", report.Unmatched),
		logger.Int("discrepancies", report.Discrepancies),
		logger.Int("pending_verification", report.PendingVerification))

	if report.Discrepancies > 0 || report.Unmatched > 0 {
		alert := &models.ReconciliationAlert{
			RunID:         report.RunID,
			Discrepancies: report.Discrepancies,
			Unmatched:     report.Unmatched,
			StartDate:     start,
			EndDate:       end,
			Detail:        fmt.Sprintf("%d of %d transactions need attention", report.Discrepancies+report.Unmatched, report.Scanned),
			OccurredAt:    time.Now(),
		}
		if err := s.alerts.PublishAlert(ctx, alert); err != nil {
			logger.ErrorCtx(ctx, "Failed to publish reconciliation alert", logger.Err(err))
		}
	}

	return report, nil
}

// StartScheduler runs reconciliation on the configured fixed interval
func (s *ReconcilerService) StartScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Reconciliation.RunInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				end := time.Now()
				start := end.Add(-s.cfg.Reconciliation.LookbackWindow)
				if _, err := s.RunReconciliation(ctx, start, end, models.ReconcileFilters{}); err != nil {
					logger.Error("Scheduled reconciliation run failed", logger.Err(err))
				}
			}
		}
	}()
}

// classify checks one booking against the settlement invariants
func (s *ReconcilerService) classify(ctx context.Context, booking *models.Booking) models.Finding {
	finding := models.Finding{BookingID: booking.ID}
	if booking.CheckoutRequestID != nil {
		finding.CheckoutRequestID = *booking.CheckoutRequestID
	}

	// Callback-retry exhaustion is flagged on the booking regardless of status
	if booking.ReviewRequired && booking.ReviewReason != nil &&
		strings.Contains(*booking.ReviewReason, "callback processing failed") {
		finding.Class = models.FindingUnmatched
		finding.Issue = models.IssueFailedCallbackRetry
		finding.Detail = *booking.ReviewReason
		return finding
	}

	switch booking.PaymentStatus {
	case models.PaymentStatusPaid:
		return s.classifyPaid(ctx, booking, finding)

	case models.PaymentStatusFailed:
		if booking.ResultCode == nil {
			finding.Class = models.FindingDiscrepancy
			finding.Issue = models.IssueStatusInconsistency
			finding.Detail = "failed without a recorded result code"
			return finding
		}
		finding.Class = models.FindingMatched
		return finding

	case models.PaymentStatusProcessing:
		finding.Class = models.FindingPendingVerification
		cutoff := time.Now().Add(-s.cfg.Payments.UnclearStatusAfter)
		if booking.InitiatedAt != nil && booking.InitiatedAt.Before(cutoff) {
			finding.Issue = models.IssueTimeoutRecovery
			finding.Detail = fmt.Sprintf("processing since %s with no callback", booking.InitiatedAt.Format(time.RFC3339))
		}
		return finding

	default:
		// Pending with a correlation id means a push went out but no state
		// followed; the money may sit on the provider side
		if booking.CheckoutRequestID != nil {
			finding.Class = models.FindingDiscrepancy
			finding.Issue = models.IssueOrphanedPayment
			finding.Detail = "push recorded but booking never left Pending"
			return finding
		}
		finding.Class = models.FindingMatched
		return finding
	}
}

func (s *ReconcilerService) classifyPaid(ctx context.Context, booking *models.Booking, finding models.Finding) models.Finding {
	if booking.MpesaReceipt == nil || *booking.MpesaReceipt == "" {
		finding.Class = models.FindingDiscrepancy
		finding.Issue = models.IssueStatusVerification
		finding.Detail = "settled without a receipt"
		return finding
	}

	if diff := booking.Amount - booking.Price; diff >= s.cfg.Reconciliation.AmountTolerance || diff <= -s.cfg.Reconciliation.AmountTolerance {
		finding.Class = models.FindingDiscrepancy
		finding.Issue = models.IssueAmountMismatch
		finding.Detail = fmt.Sprintf("recorded amount %d differs from booking price %d", booking.Amount, booking.Price)
		finding.LocalAmount = booking.Amount
		finding.ExpectedAmount = booking.Price
		return finding
	}

	uses, err := s.repo.CountReceiptUses(ctx, *booking.MpesaReceipt)
	if err == nil && uses > 1 {
		finding.Class = models.FindingDiscrepancy
		finding.Issue = models.IssueDuplicateCallback
		finding.Detail = fmt.Sprintf("receipt %s settles %d payments", *booking.MpesaReceipt, uses)
		return finding
	}

	if booking.ConfirmationState != models.ConfirmationStateConfirmed {
		finding.Class = models.FindingDiscrepancy
		finding.Issue = models.IssueStatusInconsistency
		finding.Detail = "paid but booking not confirmed"
		return finding
	}

	trail, err := s.repo.GetAuditTrail(ctx, booking.ID)
	if err == nil {
		if chainErr := repository.VerifyAuditChain(trail); chainErr != nil {
			finding.Class = models.FindingDiscrepancy
			finding.Issue = models.IssueAPISyncIssue
			finding.Detail = chainErr.Error()
			return finding
		}
	}

	finding.Class = models.FindingMatched
	return finding
}
