package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalState represents whether a booking has been approved for payment
type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "PendingApproval"
	ApprovalStateApproved ApprovalState = "Approved"
	ApprovalStateRejected ApprovalState = "Rejected"
)

// ConfirmationState flips to Confirmed only when the payment reaches Paid
type ConfirmationState string

const (
	ConfirmationStateUnconfirmed ConfirmationState = "Unconfirmed"
	ConfirmationStateConfirmed   ConfirmationState = "Confirmed"
)

// Booking is the payable entity. Payment fields are embedded so every status
// transition persists atomically with the booking's dependent fields.
type Booking struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	UserID            uuid.UUID         `json:"user_id" db:"user_id"`
	Reference         string            `json:"reference" db:"reference"`
	Price             int64             `json:"price" db:"price"`
	ApprovalState     ApprovalState     `json:"approval_state" db:"approval_state"`
	ConfirmationState ConfirmationState `json:"confirmation_state" db:"confirmation_state"`
	ReviewRequired    bool              `json:"review_required" db:"review_required"`
	ReviewReason      *string           `json:"review_reason,omitempty" db:"review_reason"`
	Transaction       `json:"transaction"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// InitiateRequest is the client-facing request to start a payment
type InitiateRequest struct {
	BookingID   string `json:"booking_id"`
	PhoneNumber string `json:"phone_number"`
}

// InitiateResponse is returned to the client after a successful push
type InitiateResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	Amount            int64  `json:"amount"`
	AlreadyInProgress bool   `json:"already_in_progress,omitempty"`
}

// PaymentStatusView is the client-facing projection of a booking's payment state
type PaymentStatusView struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Amount        int64         `json:"amount"`
	MpesaReceipt  *string       `json:"mpesa_receipt,omitempty"`
	ResultCode    *int          `json:"result_code,omitempty"`
	ResultDesc    *string       `json:"result_desc,omitempty"`
	ShowRetry     bool          `json:"show_retry"`
	StatusUpdated time.Time     `json:"status_updated"`
}
