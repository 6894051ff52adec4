package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jkarimi/pesaflow/internal/pkg/circuitbreaker"
	"github.com/jkarimi/pesaflow/internal/pkg/classifier"
	"github.com/jkarimi/pesaflow/internal/pkg/constants"
	"github.com/jkarimi/pesaflow/internal/pkg/database"
	httpclient "github.com/jkarimi/pesaflow/internal/pkg/http"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	nrpkg "github.com/jkarimi/pesaflow/internal/pkg/newrelic"
	"github.com/jkarimi/pesaflow/internal/pkg/retry"
)

const (
	tokenPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	timestampLayout = "20060102150405"
)

// DarajaGateway talks to the M-Pesa Daraja API. Every outbound call runs
// through a circuit breaker and, for transient failures, the retry engine.
// The OAuth token is cached in memory for its TTL and mirrored in Redis so
// restarts don't burn a token request.
type DarajaGateway struct {
	cfg     *models.Config
	client  *httpclient.Client
	logger  *logger.ZapLogger
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	pending *retry.PendingQueue
	redis   *database.RedisClient

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewDarajaGateway creates a provider gateway. redisClient may be nil; the
// token is then cached in memory only.
func NewDarajaGateway(cfg *models.Config, redisClient *database.RedisClient, l *logger.ZapLogger) *DarajaGateway {
	retryCfg := retry.Config{
		MaxRetries:    cfg.Payments.OutboundMaxRetries,
		BaseDelay:     cfg.Payments.OutboundBaseDelay,
		MaxDelay:      cfg.Payments.OutboundMaxDelay,
		Multiplier:    2.0,
		Jitter:        true,
		RetryableFunc: retryableProviderError,
	}

	return &DarajaGateway{
		cfg:     cfg,
		client:  httpclient.NewClient(cfg.Daraja.BaseURL, cfg.Daraja.HTTPTimeout),
		logger:  l,
		retrier: retry.New(retryCfg, l),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("daraja"), l),
		pending: retry.NewPendingQueue(cfg.Payments.PendingQueueSize, cfg.Payments.PendingQueueTTL, l),
		redis:   redisClient,
	}
}

// InitiateSTKPush pushes a payment prompt to the customer's phone
func (g *DarajaGateway) InitiateSTKPush(ctx context.Context, msisdn string, amount int64, accountRef string) (*models.InitiateResult, error) {
	timestamp := time.Now().Format(timestampLayout)

	req := models.STKPushRequest{
		BusinessShortCode: g.cfg.Daraja.ShortCode,
		Password:          g.password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            strconv.FormatInt(amount, 10),
		PartyA:            msisdn,
		PartyB:            g.cfg.Daraja.ShortCode,
		PhoneNumber:       msisdn,
		CallBackURL:       g.cfg.Daraja.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   fmt.Sprintf("Payment for %s", accountRef),
	}

	var resp models.STKPushResponse
	err := g.execute(ctx, stkPushPath, req, &resp)
	if err != nil {
		return nil, err
	}

	// ResponseCode "0" means the push was accepted for processing
	if resp.ResponseCode != "0" {
		code := parseCode(resp.ResponseCode)
		return nil, &models.ProviderError{Code: code, Description: resp.ResponseDescription}
	}

	return &models.InitiateResult{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
	}, nil
}

// QueryStatus asks the provider for the current state of a push request
func (g *DarajaGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*models.StatusResult, error) {
	timestamp := time.Now().Format(timestampLayout)

	req := models.STKQueryRequest{
		BusinessShortCode: g.cfg.Daraja.ShortCode,
		Password:          g.password(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp models.STKQueryResponse
	err := g.execute(ctx, stkQueryPath, req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.ResponseCode != "0" {
		code := parseCode(resp.ResponseCode)
		return nil, &models.ProviderError{Code: code, Description: resp.ResponseDescription}
	}

	return &models.StatusResult{
		ResultCode: parseCode(resp.ResultCode),
		ResultDesc: resp.ResultDesc,
	}, nil
}

// DeferStatusCheck parks a verification call until the provider is reachable
// again. Returns retry.ErrQueueFull when the bounded queue is at capacity.
func (g *DarajaGateway) DeferStatusCheck(checkoutRequestID string, fn retry.RetryableFunc) error {
	return g.pending.Enqueue(checkoutRequestID, fn)
}

// StartPendingDrain launches the background loop that replays deferred calls
// once a provider health probe succeeds.
func (g *DarajaGateway) StartPendingDrain(ctx context.Context) {
	g.pending.StartDrainLoop(ctx, g.cfg.Payments.PendingQueueInterval, func(probeCtx context.Context) error {
		_, err := g.accessToken(probeCtx)
		return err
	})
}

// execute POSTs a JSON body through the breaker and retrier, retrying only
// transient error kinds.
func (g *DarajaGateway) execute(ctx context.Context, path string, body, out interface{}) error {
	return g.breaker.Execute(ctx, func(cbCtx context.Context) error {
		return g.retrier.Execute(cbCtx, func(retryCtx context.Context) error {
			return g.doJSON(retryCtx, path, body, out)
		})
	})
}

func (g *DarajaGateway) doJSON(ctx context.Context, path string, body, out interface{}) error {
	token, err := g.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.client.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := nrpkg.InstrumentHTTPRequest(ctx, req, func() (*http.Response, error) {
		return g.client.HTTPClient.Do(req)
	})
	if err != nil {
		info := classifier.ClassifyTransport(err)
		return &ClassifiedError{Info: info, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		info := classifier.ClassifyHTTPStatus(resp.StatusCode)
		if info.Kind == classifier.KindAuthFailed {
			// Token may have been revoked server-side; drop the cache so the
			// next call fetches a fresh one.
			g.invalidateToken()
		}
		return &ClassifiedError{
			Info: info,
			Err:  fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}

// accessToken returns a cached OAuth token, fetching a new one when expired
func (g *DarajaGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		token := g.token
		g.mu.Unlock()
		return token, nil
	}
	g.mu.Unlock()

	// Redis mirror survives restarts within the token TTL
	if g.redis != nil {
		if cached, err := g.redis.Get(ctx, constants.KeyProviderToken); err == nil && cached != "" {
			g.mu.Lock()
			g.token = cached
			g.tokenExpiry = time.Now().Add(time.Minute)
			g.mu.Unlock()
			return cached, nil
		}
	}

	token, err := g.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.token = token
	g.tokenExpiry = time.Now().Add(g.cfg.Daraja.TokenTTL)
	g.mu.Unlock()

	if g.redis != nil {
		if err := g.redis.Set(ctx, constants.KeyProviderToken, token, g.cfg.Daraja.TokenTTL); err != nil {
			g.logger.Warn("Failed to mirror provider token to redis", logger.Err(err))
		}
	}

	return token, nil
}

func (g *DarajaGateway) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.client.BaseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString(
		[]byte(g.cfg.Daraja.ConsumerKey + ":" + g.cfg.Daraja.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := g.client.HTTPClient.Do(req)
	if err != nil {
		info := classifier.ClassifyTransport(err)
		return "", &ClassifiedError{Info: info, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		info := classifier.ClassifyHTTPStatus(resp.StatusCode)
		return "", &ClassifiedError{Info: info, Err: fmt.Errorf("token request returned status %d", resp.StatusCode)}
	}

	var tokenResp models.DarajaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}

func (g *DarajaGateway) invalidateToken() {
	g.mu.Lock()
	g.token = ""
	g.tokenExpiry = time.Time{}
	g.mu.Unlock()

	if g.redis != nil {
		if err := g.redis.Delete(context.Background(), constants.KeyProviderToken); err != nil {
			g.logger.Warn("Failed to drop mirrored provider token", logger.Err(err))
		}
	}
}

// password builds the base64(shortcode+passkey+timestamp) API password
func (g *DarajaGateway) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(g.cfg.Daraja.ShortCode + g.cfg.Daraja.Passkey + timestamp))
}

func parseCode(s string) int {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return code
}

// ClassifiedError pairs a transport or HTTP level failure with its taxonomy entry
type ClassifiedError struct {
	Info classifier.ErrorInfo
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Info.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifierInfo exposes the taxonomy entry to layers that cannot depend on
// this package directly.
func (e *ClassifiedError) ClassifierInfo() classifier.ErrorInfo {
	return e.Info
}

// retryableProviderError reports whether an outbound failure is worth retrying.
// Only api_unavailable, system_error and timeout kinds qualify.
func retryableProviderError(err error) bool {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		switch classified.Info.Kind {
		case classifier.KindAPIUnavailable, classifier.KindSystemError, classifier.KindTimeout:
			return true
		}
	}
	// Provider business errors carry result codes and are never transport-retryable
	return false
}
