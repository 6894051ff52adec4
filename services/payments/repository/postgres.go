package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/pesaflow/services/payments"
)

// PostgresPaymentRepo implements the PaymentRepo interface
type PostgresPaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sqlx.DB) payments.PaymentRepo {
	return &PostgresPaymentRepo{
		db: db,
	}
}
