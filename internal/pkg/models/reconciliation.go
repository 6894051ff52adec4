package models

import (
	"time"

	"github.com/google/uuid"
)

// FindingClass classifies a single transaction during reconciliation
type FindingClass string

const (
	FindingMatched             FindingClass = "matched"
	FindingUnmatched           FindingClass = "unmatched"
	FindingDiscrepancy         FindingClass = "discrepancy"
	FindingPendingVerification FindingClass = "pending_verification"
)

// IssueType is the closed set of issue archetypes the resolver knows how to handle
type IssueType string

const (
	IssueTimeoutRecovery     IssueType = "timeout_recovery"
	IssueStatusVerification  IssueType = "status_verification"
	IssueOrphanedPayment     IssueType = "orphaned_payment"
	IssueDuplicateCallback   IssueType = "duplicate_callback"
	IssueAmountMismatch      IssueType = "amount_mismatch"
	IssueStatusInconsistency IssueType = "status_inconsistency"
	IssueFailedCallbackRetry IssueType = "failed_callback_retry"
	IssueAPISyncIssue        IssueType = "api_sync_issue"
)

// Finding is one classified transaction in a reconciliation report
type Finding struct {
	BookingID         uuid.UUID    `json:"booking_id"`
	CheckoutRequestID string       `json:"checkout_request_id,omitempty"`
	Class             FindingClass `json:"class"`
	Issue             IssueType    `json:"issue,omitempty"`
	Detail            string       `json:"detail,omitempty"`
	LocalAmount       int64        `json:"local_amount,omitempty"`
	ExpectedAmount    int64        `json:"expected_amount,omitempty"`
}

// ReconciliationReport is the result of one reconciliation run
type ReconciliationReport struct {
	RunID               uuid.UUID `json:"run_id"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	Scanned             int       `json:"scanned"`
	Matched             int       `json:"matched"`
	Unmatched           int       `json:"unmatched"`
	Discrepancies       int       `json:"discrepancies"`
	PendingVerification int       `json:"pending_verification"`
	Findings            []Finding `json:"findings"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

// Add records a finding and bumps the matching counter
func (r *ReconciliationReport) Add(f Finding) {
	r.Findings = append(r.Findings, f)
	switch f.Class {
	case FindingMatched:
		r.Matched++
	case FindingUnmatched:
		r.Unmatched++
	case FindingDiscrepancy:
		r.Discrepancies++
	case FindingPendingVerification:
		r.PendingVerification++
	}
}

// ReconcileFilters narrows a reconciliation run
type ReconcileFilters struct {
	BookingID *uuid.UUID
	Statuses  []PaymentStatus
}
