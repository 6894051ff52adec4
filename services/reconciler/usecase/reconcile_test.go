package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/attemptstore"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	paymentmocks "github.com/jkarimi/pesaflow/services/payments/mocks"
	"github.com/jkarimi/pesaflow/services/reconciler/mocks"
)

func setupReconcilerTest(t *testing.T) (*ReconcilerService, *paymentmocks.MockPaymentRepo, *mocks.MockProviderGW, *mocks.MockAlertGW) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := paymentmocks.NewMockPaymentRepo(ctrl)
	provider := mocks.NewMockProviderGW(ctrl)
	alerts := mocks.NewMockAlertGW(ctrl)

	cfg := &models.Config{}
	cfg.Payments.UnclearStatusAfter = 30 * time.Second
	cfg.Reconciliation.MaxResolveTries = 2
	cfg.Reconciliation.RunInterval = time.Hour
	cfg.Reconciliation.LookbackWindow = 24 * time.Hour
	cfg.Reconciliation.AmountTolerance = 1

	svc := NewReconcilerService(cfg, repo, provider, alerts, attemptstore.NewMemoryStore())
	return svc, repo, provider, alerts
}

func paidBooking(receipt string) models.Booking {
	checkoutRequestID := "ws_CO_" + uuid.NewString()
	resultCode := 0
	initiatedAt := time.Now().Add(-10 * time.Minute)
	verifiedAt := time.Now().Add(-9 * time.Minute)

	return models.Booking{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		Reference:         "BK-2001",
		Price:             1500,
		ApprovalState:     models.ApprovalStateApproved,
		ConfirmationState: models.ConfirmationStateConfirmed,
		Transaction: models.Transaction{
			CheckoutRequestID: &checkoutRequestID,
			Amount:            1500,
			PaymentStatus:     models.PaymentStatusPaid,
			ResultCode:        &resultCode,
			MpesaReceipt:      &receipt,
			InitiatedAt:       &initiatedAt,
			VerifiedAt:        &verifiedAt,
		},
	}
}

func stuckProcessingBooking(age time.Duration) models.Booking {
	checkoutRequestID := "ws_CO_" + uuid.NewString()
	initiatedAt := time.Now().Add(-age)

	return models.Booking{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Reference:     "BK-2002",
		Price:         2000,
		ApprovalState: models.ApprovalStateApproved,
		Transaction: models.Transaction{
			CheckoutRequestID: &checkoutRequestID,
			Amount:            2000,
			PaymentStatus:     models.PaymentStatusProcessing,
			InitiatedAt:       &initiatedAt,
		},
	}
}

func window() (time.Time, time.Time) {
	end := time.Now()
	return end.Add(-24 * time.Hour), end
}

func TestRunReconciliation_SettledBookingMatches(t *testing.T) {
	svc, repo, _, _ := setupReconcilerTest(t)
	start, end := window()
	booking := paidBooking("SGR7TY12XC")

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().CountReceiptUses(gomock.Any(), "SGR7TY12XC").Return(1, nil)
	repo.EXPECT().GetAuditTrail(gomock.Any(), booking.ID).Return(nil, nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Matched)
	assert.Zero(t, report.Discrepancies)
	assert.Zero(t, report.Unmatched)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.FindingMatched, report.Findings[0].Class)
	assert.Empty(t, report.Findings[0].Issue)
}

func TestRunReconciliation_ListFailure(t *testing.T) {
	svc, repo, _, _ := setupReconcilerTest(t)
	start, end := window()

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return(nil, errors.New("connection refused"))

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRunReconciliation_StuckProcessingRecoveredFromProvider(t *testing.T) {
	svc, repo, provider, _ := setupReconcilerTest(t)
	start, end := window()
	booking := stuckProcessingBooking(5 * time.Minute)
	checkoutRequestID := *booking.CheckoutRequestID

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	provider.EXPECT().QueryStatus(gomock.Any(), checkoutRequestID).
		Return(&models.StatusResult{ResultCode: 0, ResultDesc: "The service request is processed successfully."}, nil)
	repo.EXPECT().CompletePayment(gomock.Any(), checkoutRequestID, 0, "The service request is processed successfully.", "").
		Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *models.AuditRecord) error {
			assert.Equal(t, "reconcile", record.Action)
			assert.Equal(t, booking.ID, record.BookingID)
			assert.Contains(t, record.Detail, "resolved")
			return nil
		})

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingVerification)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.IssueTimeoutRecovery, report.Findings[0].Issue)

	// Resolution succeeded, so the attempt counter was cleared
	key := booking.ID.String() + ":" + string(models.IssueTimeoutRecovery)
	count, err := svc.attempts.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunReconciliation_FreshProcessingLeftAlone(t *testing.T) {
	svc, repo, _, _ := setupReconcilerTest(t)
	start, end := window()
	booking := stuckProcessingBooking(5 * time.Second)

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingVerification)
	assert.Empty(t, report.Findings[0].Issue)
}

func TestRunReconciliation_OrphanedPendingAlerts(t *testing.T) {
	svc, repo, _, alerts := setupReconcilerTest(t)
	start, end := window()

	checkoutRequestID := "ws_CO_orphan"
	booking := models.Booking{
		ID:            uuid.New(),
		ApprovalState: models.ApprovalStateApproved,
		Price:         900,
		Transaction: models.Transaction{
			CheckoutRequestID: &checkoutRequestID,
			PaymentStatus:     models.PaymentStatusPending,
		},
	}

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().MarkForReview(gomock.Any(), booking.ID, gomock.Any()).Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)

	var published *models.ReconciliationAlert
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.ReconciliationAlert) error {
			published = alert
			return nil
		})

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Discrepancies)
	assert.Equal(t, models.IssueOrphanedPayment, report.Findings[0].Issue)
	require.NotNil(t, published)
	assert.Equal(t, report.RunID, published.RunID)
	assert.Equal(t, 1, published.Discrepancies)
}

func TestRunReconciliation_AmountMismatchEscalatedUnchanged(t *testing.T) {
	svc, repo, _, alerts := setupReconcilerTest(t)
	start, end := window()
	booking := paidBooking("SGR7TY12XC")
	booking.Amount = 1400

	// No UpdateAmount expectation: a mismatch past the tolerance must reach an
	// operator with the recorded amount intact
	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().MarkForReview(gomock.Any(), booking.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ interface{}, reason string) error {
			assert.Contains(t, reason, "1400")
			assert.Contains(t, reason, "1500")
			return nil
		})
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).Return(nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	finding := report.Findings[0]
	assert.Equal(t, models.IssueAmountMismatch, finding.Issue)
	assert.Equal(t, int64(1400), finding.LocalAmount)
	assert.Equal(t, int64(1500), finding.ExpectedAmount)
}

func TestRunReconciliation_AmountAtToleranceIsDiscrepancy(t *testing.T) {
	svc, repo, _, alerts := setupReconcilerTest(t)
	svc.cfg.Reconciliation.AmountTolerance = 5
	start, end := window()
	booking := paidBooking("SGR7TY12XC")
	booking.Amount = booking.Price + 5

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().MarkForReview(gomock.Any(), booking.ID, gomock.Any()).Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).Return(nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Discrepancies)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.FindingDiscrepancy, report.Findings[0].Class)
	assert.Equal(t, models.IssueAmountMismatch, report.Findings[0].Issue)
}

func TestRunReconciliation_AmountInsideToleranceMatches(t *testing.T) {
	svc, repo, _, _ := setupReconcilerTest(t)
	svc.cfg.Reconciliation.AmountTolerance = 5
	start, end := window()
	booking := paidBooking("SGR7TY12XC")
	booking.Amount = booking.Price + 4

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().CountReceiptUses(gomock.Any(), "SGR7TY12XC").Return(1, nil)
	repo.EXPECT().GetAuditTrail(gomock.Any(), booking.ID).Return(nil, nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, models.FindingMatched, report.Findings[0].Class)
}

func TestRunReconciliation_DuplicateReceiptDemotesExtraAttempt(t *testing.T) {
	svc, repo, _, alerts := setupReconcilerTest(t)
	start, end := window()
	booking := paidBooking("SGR7TY12XC")

	winner := models.PaymentAttempt{
		ID:                uuid.New(),
		BookingID:         booking.ID,
		CheckoutRequestID: *booking.CheckoutRequestID,
		Status:            models.PaymentStatusPaid,
	}
	extra := models.PaymentAttempt{
		ID:                uuid.New(),
		BookingID:         booking.ID,
		CheckoutRequestID: "ws_CO_" + uuid.NewString(),
		Status:            models.PaymentStatusPaid,
	}

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().CountReceiptUses(gomock.Any(), "SGR7TY12XC").Return(2, nil)
	repo.EXPECT().GetAttempts(gomock.Any(), booking.ID).
		Return([]models.PaymentAttempt{extra, winner}, nil)
	repo.EXPECT().DemotePaidAttempt(gomock.Any(), extra.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ interface{}, reason string) error {
			assert.Contains(t, reason, winner.ID.String())
			return nil
		})
	repo.EXPECT().MarkForReview(gomock.Any(), booking.ID, gomock.Any()).Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).Return(nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, models.IssueDuplicateCallback, report.Findings[0].Issue)
}

func TestRunReconciliation_ExhaustedCallbackRetriesQueriedDirectly(t *testing.T) {
	svc, repo, provider, alerts := setupReconcilerTest(t)
	start, end := window()

	booking := stuckProcessingBooking(2 * time.Minute)
	reason := "callback processing failed after 3 retries: database timeout"
	booking.ReviewRequired = true
	booking.ReviewReason = &reason
	checkoutRequestID := *booking.CheckoutRequestID

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	provider.EXPECT().QueryStatus(gomock.Any(), checkoutRequestID).
		Return(&models.StatusResult{ResultCode: 1032, ResultDesc: "Request cancelled by user"}, nil)
	repo.EXPECT().FailPayment(gomock.Any(), checkoutRequestID, 1032, "Request cancelled by user").Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).Return(nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Unmatched)
	assert.Equal(t, models.IssueFailedCallbackRetry, report.Findings[0].Issue)
}

func TestRunReconciliation_FailedWithoutResultCode(t *testing.T) {
	svc, repo, _, alerts := setupReconcilerTest(t)
	start, end := window()

	booking := stuckProcessingBooking(time.Minute)
	booking.PaymentStatus = models.PaymentStatusFailed

	repo.EXPECT().ListTransactions(gomock.Any(), start, end, models.ReconcileFilters{}).
		Return([]models.Booking{booking}, nil)
	repo.EXPECT().MarkForReview(gomock.Any(), booking.ID, "failed without a recorded result code").Return(nil)
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	alerts.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).Return(nil)

	report, err := svc.RunReconciliation(context.Background(), start, end, models.ReconcileFilters{})

	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusInconsistency, report.Findings[0].Issue)
}
