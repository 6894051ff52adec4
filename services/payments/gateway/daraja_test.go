package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/classifier"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
)

func testConfig(baseURL string) *models.Config {
	cfg := &models.Config{}
	cfg.Daraja.BaseURL = baseURL
	cfg.Daraja.ConsumerKey = "key"
	cfg.Daraja.ConsumerSecret = "secret"
	cfg.Daraja.ShortCode = "174379"
	cfg.Daraja.Passkey = "passkey"
	cfg.Daraja.CallbackURL = "https://pesaflow.example.com/payments/callback"
	cfg.Daraja.HTTPTimeout = 2 * time.Second
	cfg.Daraja.TokenTTL = 50 * time.Minute
	cfg.Payments.OutboundMaxRetries = 2
	cfg.Payments.OutboundBaseDelay = 5 * time.Millisecond
	cfg.Payments.OutboundMaxDelay = 20 * time.Millisecond
	cfg.Payments.PendingQueueSize = 1
	cfg.Payments.PendingQueueTTL = time.Minute
	return cfg
}

func testGateway(t *testing.T, baseURL string) *DarajaGateway {
	t.Helper()
	zl, err := logger.NewZapLogger(logger.ZapConfig{Level: "error"}, nil)
	require.NoError(t, err)
	return NewDarajaGateway(testConfig(baseURL), nil, zl)
}

func tokenResponse(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(models.DarajaTokenResponse{AccessToken: "test-token", ExpiresIn: "3599"})
}

func TestInitiateSTKPush(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var tokenCalls, pushCalls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/oauth/v1/generate":
				atomic.AddInt32(&tokenCalls, 1)
				assert.Contains(t, r.Header.Get("Authorization"), "Basic ")
				tokenResponse(w)
			case "/mpesa/stkpush/v1/processrequest":
				atomic.AddInt32(&pushCalls, 1)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				var req models.STKPushRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "174379", req.BusinessShortCode)
				assert.Equal(t, "254712345678", req.PhoneNumber)
				assert.Equal(t, "1500", req.Amount)
				assert.Equal(t, "CustomerPayBillOnline", req.TransactionType)
				assert.NotEmpty(t, req.Password)

				json.NewEncoder(w).Encode(models.STKPushResponse{
					MerchantRequestID:   "mr_1",
					CheckoutRequestID:   "ws_CO_1",
					ResponseCode:        "0",
					ResponseDescription: "Success. Request accepted for processing",
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)

		result, err := gw.InitiateSTKPush(context.Background(), "254712345678", 1500, "BK-1001")

		require.NoError(t, err)
		assert.Equal(t, "ws_CO_1", result.CheckoutRequestID)
		assert.Equal(t, "mr_1", result.MerchantRequestID)
		assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
		assert.Equal(t, int32(1), atomic.LoadInt32(&pushCalls))
	})

	t.Run("business rejection is not retried", func(t *testing.T) {
		var pushCalls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v1/generate" {
				tokenResponse(w)
				return
			}
			atomic.AddInt32(&pushCalls, 1)
			json.NewEncoder(w).Encode(models.STKPushResponse{
				ResponseCode:        "1",
				ResponseDescription: "Insufficient balance",
			})
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)

		_, err := gw.InitiateSTKPush(context.Background(), "254712345678", 1500, "BK-1001")

		var provErr *models.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, 1, provErr.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(&pushCalls))
	})

	t.Run("server errors are retried until success", func(t *testing.T) {
		var pushCalls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v1/generate" {
				tokenResponse(w)
				return
			}
			if atomic.AddInt32(&pushCalls, 1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(models.STKPushResponse{
				CheckoutRequestID: "ws_CO_1",
				ResponseCode:      "0",
			})
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)

		result, err := gw.InitiateSTKPush(context.Background(), "254712345678", 1500, "BK-1001")

		require.NoError(t, err)
		assert.Equal(t, "ws_CO_1", result.CheckoutRequestID)
		assert.Equal(t, int32(3), atomic.LoadInt32(&pushCalls))
	})

	t.Run("persistent unavailability exhausts retries", func(t *testing.T) {
		var pushCalls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v1/generate" {
				tokenResponse(w)
				return
			}
			atomic.AddInt32(&pushCalls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)

		_, err := gw.InitiateSTKPush(context.Background(), "254712345678", 1500, "BK-1001")

		require.Error(t, err)
		var classified *ClassifiedError
		require.ErrorAs(t, err, &classified)
		assert.Equal(t, classifier.KindAPIUnavailable, classified.Info.Kind)
		// Initial attempt plus two retries
		assert.Equal(t, int32(3), atomic.LoadInt32(&pushCalls))
	})
}

func TestQueryStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			tokenResponse(w)
		case "/mpesa/stkpushquery/v1/query":
			var req models.STKQueryRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ws_CO_1", req.CheckoutRequestID)

			json.NewEncoder(w).Encode(models.STKQueryResponse{
				ResponseCode: "0",
				ResultCode:   "1032",
				ResultDesc:   "Request cancelled by user",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gw := testGateway(t, server.URL)

	result, err := gw.QueryStatus(context.Background(), "ws_CO_1")

	require.NoError(t, err)
	assert.Equal(t, 1032, result.ResultCode)
	assert.Equal(t, "Request cancelled by user", result.ResultDesc)
}

func TestTokenCaching(t *testing.T) {
	var tokenCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			atomic.AddInt32(&tokenCalls, 1)
			tokenResponse(w)
			return
		}
		json.NewEncoder(w).Encode(models.STKPushResponse{CheckoutRequestID: "ws_CO_1", ResponseCode: "0"})
	}))
	defer server.Close()

	gw := testGateway(t, server.URL)

	for i := 0; i < 3; i++ {
		_, err := gw.InitiateSTKPush(context.Background(), "254712345678", 1500, "BK-1001")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestDeferStatusCheck(t *testing.T) {
	gw := testGateway(t, "http://127.0.0.1:0")

	noop := func(ctx context.Context) error { return nil }

	assert.NoError(t, gw.DeferStatusCheck("ws_CO_1", noop))
	// Queue size is 1 in the test config
	assert.ErrorIs(t, gw.DeferStatusCheck("ws_CO_2", noop), retry.ErrQueueFull)
}
