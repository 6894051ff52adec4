package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

func successCallback(checkoutRequestID, receipt string, amount int64) *models.STKCallback {
	return &models.STKCallback{
		MerchantRequestID: "mr_1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: &models.CallbackMetadata{
			Item: []models.CallbackItem{
				{Name: "Amount", Value: float64(amount)},
				{Name: "MpesaReceiptNumber", Value: receipt},
				{Name: "PhoneNumber", Value: float64(254712345678)},
			},
		},
	}
}

func TestHandleCallback(t *testing.T) {
	t.Run("success callback settles the transaction", func(t *testing.T) {
		uc, repo, gw := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil)
		repo.EXPECT().HasPaidAttempt(gomock.Any(), bookingID).Return(false, nil)
		repo.EXPECT().CompletePayment(gomock.Any(), "ws_CO_1", 0, gomock.Any(), "NLJ7RT61SV").Return(nil)
		repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
		gw.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event *models.PaymentEvent) error {
				assert.Equal(t, models.PaymentStatusPaid, event.Status)
				assert.Equal(t, bookingID, event.BookingID)
				return nil
			})
		repo.EXPECT().CountReceiptUses(gomock.Any(), "NLJ7RT61SV").Return(1, nil)

		uc.HandleCallback(context.Background(), successCallback("ws_CO_1", "NLJ7RT61SV", 1500))
	})

	t.Run("duplicate success callback is dropped", func(t *testing.T) {
		uc, repo, _ := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil)
		repo.EXPECT().HasPaidAttempt(gomock.Any(), bookingID).Return(true, nil)

		uc.HandleCallback(context.Background(), successCallback("ws_CO_1", "NLJ7RT61SV", 1500))
	})

	t.Run("amount mismatch settles but flags for review", func(t *testing.T) {
		uc, repo, gw := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil)
		repo.EXPECT().HasPaidAttempt(gomock.Any(), bookingID).Return(false, nil)
		repo.EXPECT().CompletePayment(gomock.Any(), "ws_CO_1", 0, gomock.Any(), "NLJ7RT61SV").Return(nil)
		repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
		gw.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).Return(nil)
		repo.EXPECT().MarkForReview(gomock.Any(), bookingID, gomock.Any()).Return(nil)
		repo.EXPECT().CountReceiptUses(gomock.Any(), "NLJ7RT61SV").Return(1, nil)

		// Callback says 900, booking expects 1500
		uc.HandleCallback(context.Background(), successCallback("ws_CO_1", "NLJ7RT61SV", 900))
	})

	t.Run("failure callback fails the transaction", func(t *testing.T) {
		uc, repo, gw := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil)
		repo.EXPECT().FailPayment(gomock.Any(), "ws_CO_1", 1032, "Request cancelled by user").Return(nil)
		repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
		gw.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event *models.PaymentEvent) error {
				assert.Equal(t, models.PaymentStatusFailed, event.Status)
				return nil
			})

		uc.HandleCallback(context.Background(), &models.STKCallback{
			CheckoutRequestID: "ws_CO_1",
			ResultCode:        1032,
			ResultDesc:        "Request cancelled by user",
		})
	})

	t.Run("unknown checkout request id is dropped", func(t *testing.T) {
		uc, repo, _ := setupPaymentUCTest(t)

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_orphan").
			Return(nil, models.ErrBookingNotFound)

		uc.HandleCallback(context.Background(), &models.STKCallback{
			CheckoutRequestID: "ws_CO_orphan",
			ResultCode:        0,
		})
	})

	t.Run("malformed callback is dropped without lookups", func(t *testing.T) {
		uc, _, _ := setupPaymentUCTest(t)

		uc.HandleCallback(context.Background(), &models.STKCallback{ResultCode: 0})
		uc.HandleCallback(context.Background(), nil)
	})
}

func TestHandleCallback_ConcurrentDeliverySettlesOnce(t *testing.T) {
	uc, repo, gw := setupPaymentUCTest(t)
	bookingID := uuid.New()

	uc.schedule = func(d time.Duration, fn func()) {
		t.Errorf("losing a settlement race must not schedule a retry")
	}

	// The fake conditional write lets exactly one caller through, the way the
	// Processing precondition does in the real repository
	var mu sync.Mutex
	settlements := 0

	repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").
		DoAndReturn(func(context.Context, string) (*models.Booking, error) {
			return processingBooking(bookingID, "ws_CO_1", time.Now()), nil
		}).AnyTimes()
	repo.EXPECT().HasPaidAttempt(gomock.Any(), bookingID).Return(false, nil).AnyTimes()
	repo.EXPECT().CompletePayment(gomock.Any(), "ws_CO_1", 0, gomock.Any(), "NLJ7RT61SV").
		DoAndReturn(func(context.Context, string, int, string, string) error {
			mu.Lock()
			defer mu.Unlock()
			if settlements > 0 {
				return models.ErrAlreadySettled
			}
			settlements++
			return nil
		}).AnyTimes()

	// Only the winner audits and publishes
	repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().CountReceiptUses(gomock.Any(), "NLJ7RT61SV").Return(1, nil).AnyTimes()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc.HandleCallback(context.Background(), successCallback("ws_CO_1", "NLJ7RT61SV", 1500))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, settlements, "exactly one delivery may settle the transaction")
}

func TestCallbackRetryScheduling(t *testing.T) {
	t.Run("transient failure schedules a backoff retry", func(t *testing.T) {
		uc, repo, _ := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		var scheduledDelay time.Duration
		scheduled := false
		uc.schedule = func(d time.Duration, fn func()) {
			scheduledDelay = d
			scheduled = true
		}

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil)
		repo.EXPECT().FailPayment(gomock.Any(), "ws_CO_1", 1032, gomock.Any()).
			Return(errors.New("database unavailable"))

		uc.HandleCallback(context.Background(), &models.STKCallback{
			CheckoutRequestID: "ws_CO_1",
			ResultCode:        1032,
			ResultDesc:        "Request cancelled by user",
		})

		assert.True(t, scheduled)
		assert.Equal(t, 5*time.Second, scheduledDelay)

		count, err := uc.attempts.Get(context.Background(), "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("delays follow the doubling curve up to the cap", func(t *testing.T) {
		uc, repo, _ := setupPaymentUCTest(t)
		bookingID := uuid.New()

		var delays []time.Duration
		uc.schedule = func(d time.Duration, fn func()) {
			delays = append(delays, d)
		}

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").
			Return(processingBooking(bookingID, "ws_CO_1", time.Now()), nil).
			Times(3)
		repo.EXPECT().FailPayment(gomock.Any(), "ws_CO_1", 1032, gomock.Any()).
			Return(errors.New("database unavailable")).
			Times(3)

		callback := &models.STKCallback{CheckoutRequestID: "ws_CO_1", ResultCode: 1032}
		uc.HandleCallback(context.Background(), callback)
		uc.HandleCallback(context.Background(), callback)
		uc.HandleCallback(context.Background(), callback)

		assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}, delays)
	})

	t.Run("exhausted budget flags the booking for review", func(t *testing.T) {
		uc, repo, _ := setupPaymentUCTest(t)
		bookingID := uuid.New()
		booking := processingBooking(bookingID, "ws_CO_1", time.Now())

		uc.schedule = func(d time.Duration, fn func()) {
			t.Fatal("no retry should be scheduled after exhaustion")
		}

		// Burn the whole budget up front
		for i := 0; i < 3; i++ {
			_, err := uc.attempts.Incr(context.Background(), "ws_CO_1")
			require.NoError(t, err)
		}

		repo.EXPECT().GetBookingByCheckoutRequestID(gomock.Any(), "ws_CO_1").Return(booking, nil).Times(2)
		repo.EXPECT().FailPayment(gomock.Any(), "ws_CO_1", 1032, gomock.Any()).
			Return(errors.New("database unavailable"))
		repo.EXPECT().MarkForReview(gomock.Any(), bookingID, gomock.Any()).Return(nil)
		repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)

		uc.HandleCallback(context.Background(), &models.STKCallback{
			CheckoutRequestID: "ws_CO_1",
			ResultCode:        1032,
		})
	})
}
