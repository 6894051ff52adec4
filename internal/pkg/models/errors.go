package models

import "errors"

// Sentinel errors shared between the repository and use case layers
var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrAlreadySettled    = errors.New("transaction already settled")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrNotApproved       = errors.New("booking is not approved for payment")
	ErrAlreadyPaid       = errors.New("booking is already paid")
)
