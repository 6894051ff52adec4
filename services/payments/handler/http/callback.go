package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/services/payments"
)

// SignatureHeader carries the HMAC-SHA256 of the raw callback body
const SignatureHeader = "X-Callback-Signature"

// CallbackHandler ingests provider webhooks. The provider is acknowledged
// with 200 {ResultCode:0} in every case that reaches processing; rejecting a
// callback would only make the provider retry a payload we already have.
type CallbackHandler struct {
	paymentUC payments.PaymentUC
	secret    string
	// production requires a valid signature; sandbox tolerates a missing one
	requireSignature bool
}

// NewCallbackHandler creates a new callback HTTP handler
func NewCallbackHandler(paymentUC payments.PaymentUC, cfg *models.Config) *CallbackHandler {
	return &CallbackHandler{
		paymentUC:        paymentUC,
		secret:           cfg.Daraja.CallbackSecret,
		requireSignature: cfg.App.IsProduction(),
	}
}

// HandleCallback handles POST /payments/callback
func (h *CallbackHandler) HandleCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.CallbackAck{ResultCode: 1, ResultDesc: "Unreadable body"})
	}

	if !h.verifySignature(body, c.Request().Header.Get(SignatureHeader)) {
		logger.WarnCtx(c.Request().Context(), "Rejecting callback with bad signature",
			logger.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, models.CallbackAck{ResultCode: 1, ResultDesc: "Invalid signature"})
	}

	var envelope models.CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.WarnCtx(c.Request().Context(), "Dropping unparseable callback", logger.Err(err))
		// Ack anyway; a retry of the same broken payload cannot succeed
		return c.JSON(http.StatusOK, models.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
	}

	h.paymentUC.HandleCallback(c.Request().Context(), &envelope.Body.StkCallback)

	return c.JSON(http.StatusOK, models.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

// verifySignature checks the body HMAC. A missing header passes only outside
// production; a present header must always verify.
func (h *CallbackHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return !h.requireSignature
	}
	if h.secret == "" {
		return !h.requireSignature
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
