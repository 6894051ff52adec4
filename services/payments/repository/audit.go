package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

// AppendAudit appends a hash-chained record to the booking's audit trail.
// Each record's hash covers the previous record's hash plus its own fields,
// so any later edit breaks the chain.
func (r *PostgresPaymentRepo) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prevHash string
	err = tx.GetContext(ctx, &prevHash, `
		SELECT hash FROM payment_audit
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, record.BookingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read audit chain head: %w", err)
	}

	record.ID = uuid.New()
	record.PrevHash = prevHash
	record.CreatedAt = time.Now()
	record.Hash = chainHash(record)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_audit (
			id, booking_id, action, actor, before_status, after_status,
			detail, attempt, prev_hash, hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		record.ID, record.BookingID, record.Action, record.Actor,
		record.BeforeStatus, record.AfterStatus, record.Detail,
		record.Attempt, record.PrevHash, record.Hash, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAuditTrail returns the audit records for a booking in chain order
func (r *PostgresPaymentRepo) GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, booking_id, action, actor, before_status, after_status,
		       detail, attempt, prev_hash, hash, created_at
		FROM payment_audit
		WHERE booking_id = $1
		ORDER BY created_at ASC, id ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return records, nil
}

// chainHash computes the record hash over the previous hash and this record's fields
func chainHash(record *models.AuditRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%d|%d",
		record.PrevHash,
		record.BookingID,
		record.Action,
		record.Actor,
		record.BeforeStatus,
		record.AfterStatus,
		record.Detail,
		record.Attempt,
		record.CreatedAt.UnixNano(),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyAuditChain walks a booking's audit trail and reports the first break,
// if any. Used by reconciliation to prove trail integrity.
func VerifyAuditChain(records []models.AuditRecord) error {
	prevHash := ""
	for i := range records {
		record := records[i]
		if record.PrevHash != prevHash {
			return fmt.Errorf("audit chain broken at record %s: prev_hash mismatch", record.ID)
		}
		if chainHash(&record) != record.Hash {
			return fmt.Errorf("audit chain broken at record %s: hash mismatch", record.ID)
		}
		prevHash = record.Hash
	}
	return nil
}
