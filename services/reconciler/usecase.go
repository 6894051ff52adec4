package reconciler

import (
	"context"
	"time"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

// ReconcilerUC defines the interface for reconciliation use cases
type ReconcilerUC interface {
	// RunReconciliation scans transactions in [start, end), classifies each
	// against the local invariants, attempts automatic resolution of known
	// issue archetypes and returns the report.
	RunReconciliation(ctx context.Context, start, end time.Time, filters models.ReconcileFilters) (*models.ReconciliationReport, error)

	// StartScheduler runs reconciliation on the configured fixed interval
	// until the context is cancelled.
	StartScheduler(ctx context.Context)
}

// ProviderGW is the slice of the provider gateway reconciliation needs
type ProviderGW interface {
	QueryStatus(ctx context.Context, checkoutRequestID string) (*models.StatusResult, error)
}

// AlertGW publishes reconciliation alerts for operators
type AlertGW interface {
	PublishAlert(ctx context.Context, alert *models.ReconciliationAlert) error
}
