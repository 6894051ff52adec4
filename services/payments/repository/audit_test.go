package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

func TestAppendAudit(t *testing.T) {
	t.Run("first record has empty prev hash", func(t *testing.T) {
		repo, mock, cleanup := setupPaymentRepoTest(t)
		defer cleanup()

		record := &models.AuditRecord{
			BookingID:    uuid.New(),
			Action:       "initiate",
			Actor:        "payment-engine",
			BeforeStatus: "Pending",
			AfterStatus:  "Processing",
			Attempt:      1,
		}

		mock.ExpectBegin()
		mock.ExpectQuery("^SELECT hash FROM payment_audit").
			WithArgs(record.BookingID).
			WillReturnRows(sqlmock.NewRows([]string{"hash"}))
		mock.ExpectExec("^INSERT INTO payment_audit").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.AppendAudit(context.Background(), record)
		assert.NoError(t, err)
		assert.Empty(t, record.PrevHash)
		assert.NotEmpty(t, record.Hash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("chains onto the previous record", func(t *testing.T) {
		repo, mock, cleanup := setupPaymentRepoTest(t)
		defer cleanup()

		record := &models.AuditRecord{
			BookingID:    uuid.New(),
			Action:       "settle",
			Actor:        "callback-pipeline",
			BeforeStatus: "Processing",
			AfterStatus:  "Paid",
			Attempt:      1,
		}

		mock.ExpectBegin()
		mock.ExpectQuery("^SELECT hash FROM payment_audit").
			WithArgs(record.BookingID).
			WillReturnRows(sqlmock.NewRows([]string{"hash"}).AddRow("abc123"))
		mock.ExpectExec("^INSERT INTO payment_audit").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.AppendAudit(context.Background(), record)
		assert.NoError(t, err)
		assert.Equal(t, "abc123", record.PrevHash)
		assert.Equal(t, chainHash(record), record.Hash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVerifyAuditChain(t *testing.T) {
	bookingID := uuid.New()

	buildRecord := func(prevHash, action string) models.AuditRecord {
		record := models.AuditRecord{
			ID:           uuid.New(),
			BookingID:    bookingID,
			Action:       action,
			Actor:        "payment-engine",
			BeforeStatus: "Pending",
			AfterStatus:  "Processing",
			Attempt:      1,
			PrevHash:     prevHash,
			CreatedAt:    time.Now(),
		}
		record.Hash = chainHash(&record)
		return record
	}

	t.Run("intact chain verifies", func(t *testing.T) {
		first := buildRecord("", "initiate")
		second := buildRecord(first.Hash, "settle")

		err := VerifyAuditChain([]models.AuditRecord{first, second})
		assert.NoError(t, err)
	})

	t.Run("tampered detail breaks the chain", func(t *testing.T) {
		first := buildRecord("", "initiate")
		second := buildRecord(first.Hash, "settle")
		second.Detail = "edited after the fact"

		err := VerifyAuditChain([]models.AuditRecord{first, second})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hash mismatch")
	})

	t.Run("removed record breaks the chain", func(t *testing.T) {
		first := buildRecord("", "initiate")
		second := buildRecord(first.Hash, "settle")

		err := VerifyAuditChain([]models.AuditRecord{second})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prev_hash mismatch")
	})

	t.Run("empty chain verifies", func(t *testing.T) {
		assert.NoError(t, VerifyAuditChain(nil))
	})
}
