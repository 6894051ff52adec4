package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "Pending"
	PaymentStatusProcessing PaymentStatus = "Processing"
	PaymentStatusPaid       PaymentStatus = "Paid"
	PaymentStatusFailed     PaymentStatus = "Failed"
)

// IsTerminal returns true for states that end a payment attempt
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// CanTransitionTo reports whether a transition from s to the target status is allowed.
// Pending and Failed may start a new attempt (Processing); Processing may settle either
// way; Paid is final for the booking.
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:    {PaymentStatusProcessing},
		PaymentStatusProcessing: {PaymentStatusPaid, PaymentStatusFailed},
		PaymentStatusFailed:     {PaymentStatusProcessing},
		PaymentStatusPaid:       {},
	}

	for _, t := range allowed[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Transaction holds the payment fields embedded in a booking. One active
// transaction per booking; CheckoutRequestID is the idempotency key once assigned.
type Transaction struct {
	CheckoutRequestID *string       `json:"checkout_request_id,omitempty" db:"checkout_request_id"`
	MerchantRequestID *string       `json:"merchant_request_id,omitempty" db:"merchant_request_id"`
	Amount            int64         `json:"amount" db:"amount"`
	Msisdn            string        `json:"-" db:"msisdn"`
	PaymentStatus     PaymentStatus `json:"payment_status" db:"payment_status"`
	ResultCode        *int          `json:"result_code,omitempty" db:"result_code"`
	ResultDesc        *string       `json:"result_desc,omitempty" db:"result_desc"`
	MpesaReceipt      *string       `json:"mpesa_receipt,omitempty" db:"mpesa_receipt"`
	InitiatedAt       *time.Time    `json:"initiated_at,omitempty" db:"initiated_at"`
	VerifiedAt        *time.Time    `json:"verified_at,omitempty" db:"verified_at"`
}

// ProcessingFor returns how long the transaction has been in Processing, or zero
// if it is not processing. Used to detect unclear status past the polling window.
func (t *Transaction) ProcessingFor(now time.Time) time.Duration {
	if t.PaymentStatus != PaymentStatusProcessing || t.InitiatedAt == nil {
		return 0
	}
	return now.Sub(*t.InitiatedAt)
}

// PaymentAttempt is one row of the ordered attempt history for a booking.
// checkout_request_id carries a unique index so a correlation id can never be
// recorded twice.
type PaymentAttempt struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	BookingID         uuid.UUID     `json:"booking_id" db:"booking_id"`
	CheckoutRequestID string        `json:"checkout_request_id" db:"checkout_request_id"`
	Status            PaymentStatus `json:"status" db:"status"`
	ResultCode        *int          `json:"result_code,omitempty" db:"result_code"`
	ResultDesc        *string       `json:"result_desc,omitempty" db:"result_desc"`
	OutcomeAt         *time.Time    `json:"outcome_at,omitempty" db:"outcome_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
}

// AuditRecord is one append-only, hash-chained entry in the payment audit log.
// Hash covers the previous record's hash plus this record's fields, giving the
// trail tamper evidence.
type AuditRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	BookingID    uuid.UUID `json:"booking_id" db:"booking_id"`
	Action       string    `json:"action" db:"action"`
	Actor        string    `json:"actor" db:"actor"`
	BeforeStatus string    `json:"before_status" db:"before_status"`
	AfterStatus  string    `json:"after_status" db:"after_status"`
	Detail       string    `json:"detail" db:"detail"`
	Attempt      int       `json:"attempt" db:"attempt"`
	PrevHash     string    `json:"prev_hash" db:"prev_hash"`
	Hash         string    `json:"hash" db:"hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
