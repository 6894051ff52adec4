package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/middleware"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/utils"
	"github.com/jkarimi/pesaflow/services/payments"
)

// PaymentHandler serves the client-facing payment endpoints
type PaymentHandler struct {
	paymentUC payments.PaymentUC
}

// NewPaymentHandler creates a new payment HTTP handler
func NewPaymentHandler(paymentUC payments.PaymentUC) *PaymentHandler {
	return &PaymentHandler{
		paymentUC: paymentUC,
	}
}

// InitiatePayment handles POST /payments/initiate
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req models.InitiateRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}
	if req.BookingID == "" || req.PhoneNumber == "" {
		return utils.BadRequestResponse(c, "booking_id and phone_number are required")
	}

	middleware.SetBookingID(c, req.BookingID)

	resp, err := h.paymentUC.InitiatePayment(c.Request().Context(), &req)
	if err != nil {
		return h.paymentError(c, err)
	}

	status := http.StatusAccepted
	message := "Payment request sent. Enter your M-Pesa PIN on your phone to complete."
	if resp.AlreadyInProgress {
		status = http.StatusOK
		message = "A payment request is already in progress for this booking."
	}

	return utils.SuccessResponse(c, status, message, resp)
}

// GetPaymentStatus handles GET /payments/status/:booking_id
func (h *PaymentHandler) GetPaymentStatus(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid booking id")
	}

	middleware.SetBookingID(c, bookingID.String())

	view, err := h.paymentUC.GetPaymentStatus(c.Request().Context(), bookingID)
	if err != nil {
		return h.paymentError(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", view)
}

// paymentError maps use case failures onto client responses. Classified
// errors carry user-facing messages; everything else is a generic 502/500.
func (h *PaymentHandler) paymentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrBookingNotFound):
		return utils.NotFoundResponse(c, "Booking not found")
	case errors.Is(err, models.ErrNotApproved):
		return utils.ErrorResponseHandler(c, http.StatusConflict, "Booking is not approved for payment")
	case errors.Is(err, models.ErrAlreadyPaid):
		return utils.ErrorResponseHandler(c, http.StatusConflict, "Booking is already paid")
	}

	var clientErr *payments.ClientError
	if errors.As(err, &clientErr) {
		logger.WarnCtx(c.Request().Context(), "Payment request failed",
			logger.String("kind", string(clientErr.Info.Kind)),
			logger.Err(err))
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"success":    false,
			"error":      string(clientErr.Info.Kind),
			"message":    clientErr.Info.UserMessage,
			"show_retry": clientErr.Info.ShowRetry,
		})
	}

	logger.ErrorCtx(c.Request().Context(), "Payment request failed", logger.Err(err))
	return utils.InternalServerErrorResponse(c, "Something went wrong processing the payment")
}
