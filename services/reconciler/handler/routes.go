package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/middleware"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
	nrpkg "github.com/jkarimi/pesaflow/internal/pkg/newrelic"
	"github.com/jkarimi/pesaflow/services/reconciler/handler/http"
)

// Handler coordinates the reconciler service's HTTP handlers
type Handler struct {
	reconcileHandler *http.ReconcileHandler
	cfg              *models.Config
}

// NewHandler creates and initializes all handlers
func NewHandler(reconcileHandler *http.ReconcileHandler, cfg *models.Config) *Handler {
	return &Handler{
		reconcileHandler: reconcileHandler,
		cfg:              cfg,
	}
}

// RegisterRoutes registers all routes. Reconciliation runs are only triggered
// by trusted services, so the group sits behind the API key middleware.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	internal := e.Group("/reconciliation", middleware.ValidateAPIKey("reconciler-service", "ops-console"))
	internal.POST("/run", nrpkg.TraceHandler("reconciliation/run", h.reconcileHandler.RunReconciliation))
}
