package constants

// NATS Subjects
const (
	// Payment events
	SubjectPaymentSettled = "payments.settled"
	SubjectPaymentFailed  = "payments.failed"

	// Reconciliation
	SubjectReconciliationAlert = "reconciliation.alerts"

	// Queue groups
	QueueGroupReconciler = "reconciler"
)
