package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is published on payments.settled / payments.failed when a
// transaction reaches a terminal state.
type PaymentEvent struct {
	BookingID         uuid.UUID     `json:"booking_id"`
	CheckoutRequestID string        `json:"checkout_request_id"`
	Amount            int64         `json:"amount"`
	Status            PaymentStatus `json:"status"`
	ResultCode        int           `json:"result_code"`
	ResultDesc        string        `json:"result_desc"`
	OccurredAt        time.Time     `json:"occurred_at"`
}

// ReconciliationAlert is published on reconciliation.alerts when a run finds
// discrepancies that need a human operator.
type ReconciliationAlert struct {
	RunID         uuid.UUID `json:"run_id"`
	Discrepancies int       `json:"discrepancies"`
	Unmatched     int       `json:"unmatched"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Detail        string    `json:"detail"`
	OccurredAt    time.Time `json:"occurred_at"`
}
