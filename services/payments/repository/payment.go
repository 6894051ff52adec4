package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

const bookingColumns = `
	id, user_id, reference, price, approval_state, confirmation_state,
	review_required, review_reason,
	checkout_request_id, merchant_request_id, amount, msisdn, payment_status,
	result_code, result_desc, mpesa_receipt, initiated_at, verified_at,
	created_at, updated_at
`

// GetBooking retrieves a booking by id
func (r *PostgresPaymentRepo) GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, query, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// GetBookingByCheckoutRequestID retrieves the booking whose active transaction
// carries the given correlation id
func (r *PostgresPaymentRepo) GetBookingByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE checkout_request_id = $1`, bookingColumns)

	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, query, checkoutRequestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking by checkout request id: %w", err)
	}

	return &booking, nil
}

// MarkProcessing moves a Pending or Failed booking into Processing and records
// the attempt. The conditional UPDATE plus the unique index on
// payment_attempts.checkout_request_id make the transition race-safe: two
// concurrent initiations cannot both claim the booking.
func (r *PostgresPaymentRepo) MarkProcessing(ctx context.Context, bookingID uuid.UUID, checkoutRequestID, merchantRequestID, msisdn string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = 'Processing',
		    checkout_request_id = $2,
		    merchant_request_id = $3,
		    amount = price,
		    msisdn = $4,
		    result_code = NULL,
		    result_desc = NULL,
		    initiated_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		  AND approval_state = 'Approved'
		  AND payment_status IN ('Pending', 'Failed')
	`, bookingID, checkoutRequestID, merchantRequestID, msisdn)
	if err != nil {
		return fmt.Errorf("failed to mark booking processing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrPaymentInProgress
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_attempts (id, booking_id, checkout_request_id, status, created_at)
		VALUES ($1, $2, $3, 'Processing', NOW())
	`, uuid.New(), bookingID, checkoutRequestID)
	if err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CompletePayment settles a transaction. The Processing precondition in the
// WHERE clause is what makes duplicate success callbacks harmless: the second
// one matches no row and gets ErrAlreadySettled.
func (r *PostgresPaymentRepo) CompletePayment(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc, receipt string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = 'Paid',
		    confirmation_state = 'Confirmed',
		    result_code = $2,
		    result_desc = $3,
		    mpesa_receipt = $4,
		    verified_at = NOW(),
		    updated_at = NOW()
		WHERE checkout_request_id = $1
		  AND payment_status = 'Processing'
	`, checkoutRequestID, resultCode, resultDesc, receipt)
	if err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrAlreadySettled
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_attempts
		SET status = 'Paid', result_code = $2, result_desc = $3, outcome_at = NOW()
		WHERE checkout_request_id = $1
	`, checkoutRequestID, resultCode, resultDesc)
	if err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FailPayment moves a transaction to Failed under the same Processing precondition
func (r *PostgresPaymentRepo) FailPayment(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = 'Failed',
		    result_code = $2,
		    result_desc = $3,
		    verified_at = NOW(),
		    updated_at = NOW()
		WHERE checkout_request_id = $1
		  AND payment_status = 'Processing'
	`, checkoutRequestID, resultCode, resultDesc)
	if err != nil {
		return fmt.Errorf("failed to fail payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrAlreadySettled
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_attempts
		SET status = 'Failed', result_code = $2, result_desc = $3, outcome_at = NOW()
		WHERE checkout_request_id = $1
	`, checkoutRequestID, resultCode, resultDesc)
	if err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HasPaidAttempt reports whether any attempt for the booking already settled
func (r *PostgresPaymentRepo) HasPaidAttempt(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM payment_attempts
		WHERE booking_id = $1 AND status = 'Paid'
	`, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to count paid attempts: %w", err)
	}
	return count > 0, nil
}

// GetAttempts returns the ordered attempt history for a booking
func (r *PostgresPaymentRepo) GetAttempts(ctx context.Context, bookingID uuid.UUID) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := r.db.SelectContext(ctx, &attempts, `
		SELECT id, booking_id, checkout_request_id, status, result_code, result_desc, outcome_at, created_at
		FROM payment_attempts
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment attempts: %w", err)
	}
	return attempts, nil
}

// DemotePaidAttempt moves a settled attempt back to Failed. The Paid
// precondition keeps the statement idempotent under concurrent reconciliation
// runs: an attempt demoted by an earlier run matches no row.
func (r *PostgresPaymentRepo) DemotePaidAttempt(ctx context.Context, attemptID uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_attempts
		SET status = 'Failed', result_desc = $2, outcome_at = NOW()
		WHERE id = $1 AND status = 'Paid'
	`, attemptID, reason)
	if err != nil {
		return fmt.Errorf("failed to demote paid attempt: %w", err)
	}
	return nil
}

// ListTransactions returns bookings with payment activity inside the window
func (r *PostgresPaymentRepo) ListTransactions(ctx context.Context, start, end time.Time, filters models.ReconcileFilters) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE initiated_at IS NOT NULL
		  AND initiated_at >= $1
		  AND initiated_at < $2
	`, bookingColumns)
	args := []interface{}{start, end}

	if filters.BookingID != nil {
		args = append(args, *filters.BookingID)
		query += fmt.Sprintf(" AND id = $%d", len(args))
	}
	if len(filters.Statuses) > 0 {
		placeholders := ""
		for i, status := range filters.Statuses {
			if i > 0 {
				placeholders += ", "
			}
			args = append(args, status)
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND payment_status IN (%s)", placeholders)
	}
	query += " ORDER BY initiated_at ASC"

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return bookings, nil
}

// ListStaleProcessing returns bookings stuck in Processing longer than the cutoff
func (r *PostgresPaymentRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE payment_status = 'Processing'
		  AND initiated_at < $1
		ORDER BY initiated_at ASC
	`, bookingColumns)

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, olderThan); err != nil {
		return nil, fmt.Errorf("failed to list stale processing bookings: %w", err)
	}
	return bookings, nil
}

// MarkForReview flags a booking for operator attention
func (r *PostgresPaymentRepo) MarkForReview(ctx context.Context, bookingID uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET review_required = TRUE, review_reason = $2, updated_at = NOW()
		WHERE id = $1
	`, bookingID, reason)
	if err != nil {
		return fmt.Errorf("failed to mark booking for review: %w", err)
	}
	return nil
}

// UpdateAmount corrects the recorded amount after a verified mismatch
func (r *PostgresPaymentRepo) UpdateAmount(ctx context.Context, bookingID uuid.UUID, amount int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET amount = $2, updated_at = NOW()
		WHERE id = $1
	`, bookingID, amount)
	if err != nil {
		return fmt.Errorf("failed to update amount: %w", err)
	}
	return nil
}

// CountReceiptUses reports how many settled bookings share a receipt
func (r *PostgresPaymentRepo) CountReceiptUses(ctx context.Context, receipt string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM bookings
		WHERE mpesa_receipt = $1 AND payment_status = 'Paid'
	`, receipt)
	if err != nil {
		return 0, fmt.Errorf("failed to count receipt uses: %w", err)
	}
	return count, nil
}
