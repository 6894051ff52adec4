package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	"github.com/jkarimi/pesaflow/internal/utils"
	"github.com/jkarimi/pesaflow/services/reconciler"
)

// RunRequest triggers an on-demand reconciliation run
type RunRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	BookingID string   `json:"booking_id,omitempty"`
	Statuses  []string `json:"statuses,omitempty"`
}

// ReconcileHandler serves the operator-facing reconciliation endpoints
type ReconcileHandler struct {
	reconcilerUC reconciler.ReconcilerUC
}

// NewReconcileHandler creates a new reconciliation HTTP handler
func NewReconcileHandler(reconcilerUC reconciler.ReconcilerUC) *ReconcileHandler {
	return &ReconcileHandler{
		reconcilerUC: reconcilerUC,
	}
}

// RunReconciliation handles POST /reconciliation/run
func (h *ReconcileHandler) RunReconciliation(c echo.Context) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return utils.BadRequestResponse(c, "start_date must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return utils.BadRequestResponse(c, "end_date must be RFC3339")
	}
	if !end.After(start) {
		return utils.BadRequestResponse(c, "end_date must be after start_date")
	}

	var filters models.ReconcileFilters
	if req.BookingID != "" {
		bookingID, err := uuid.Parse(req.BookingID)
		if err != nil {
			return utils.BadRequestResponse(c, "Invalid booking id")
		}
		filters.BookingID = &bookingID
	}
	for _, status := range req.Statuses {
		filters.Statuses = append(filters.Statuses, models.PaymentStatus(status))
	}

	report, err := h.reconcilerUC.RunReconciliation(c.Request().Context(), start, end, filters)
	if err != nil {
		logger.ErrorCtx(c.Request().Context(), "On-demand reconciliation failed", logger.Err(err))
		return utils.InternalServerErrorResponse(c, "Reconciliation run failed")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Reconciliation completed", report)
}
