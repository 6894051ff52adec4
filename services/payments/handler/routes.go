package handler

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
	nrpkg "github.com/jkarimi/pesaflow/internal/pkg/newrelic"
	"github.com/jkarimi/pesaflow/services/payments/handler/http"
)

// Handler coordinates the payment service's HTTP handlers
type Handler struct {
	paymentHandler  *http.PaymentHandler
	callbackHandler *http.CallbackHandler
	cfg             *models.Config
}

// NewHandler creates and initializes all handlers
func NewHandler(
	paymentHandler *http.PaymentHandler,
	callbackHandler *http.CallbackHandler,
	cfg *models.Config,
) *Handler {
	return &Handler{
		paymentHandler:  paymentHandler,
		callbackHandler: callbackHandler,
		cfg:             cfg,
	}
}

// GetJWTMiddleware returns the configured JWT middleware for client requests
func (h *Handler) GetJWTMiddleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(h.cfg.JWT.Secret),
	})
}

// RegisterRoutes registers all routes. The callback endpoint stays outside
// the JWT group: the provider authenticates with the body signature instead,
// and the rate limiter keeps the open endpoint from being hammered.
func (h *Handler) RegisterRoutes(e *echo.Echo, callbackLimiter echo.MiddlewareFunc) {
	e.POST("/payments/callback", nrpkg.TraceHandler("payments/callback", h.callbackHandler.HandleCallback), callbackLimiter)

	protected := e.Group("/payments", h.GetJWTMiddleware())
	protected.POST("/initiate", nrpkg.TraceHandler("payments/initiate", h.paymentHandler.InitiatePayment))
	protected.GET("/status/:booking_id", nrpkg.TraceHandler("payments/status", h.paymentHandler.GetPaymentStatus))
}
