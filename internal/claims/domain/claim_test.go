package claims

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusDraft, StatusReadyToSubmit, true},
		{StatusDraft, StatusUnderReview, true},
		{StatusDraft, StatusSubmitted, false},
		{StatusUnderReview, StatusReadyToSubmit, true},
		{StatusUnderReview, StatusRejected, true},
		{StatusUnderReview, StatusPaid, false},
		{StatusReadyToSubmit, StatusSubmitted, true},
		{StatusReadyToSubmit, StatusPaid, false},
		{StatusSubmitted, StatusPaid, true},
		{StatusSubmitted, StatusDisputed, true},
		{StatusSubmitted, StatusDraft, false},
		{StatusDisputed, StatusPaid, true},
		{StatusPaid, StatusDisputed, false},
		{StatusPaid, StatusDraft, false},
		{StatusRejected, StatusDraft, false},
		{StatusRejected, StatusReadyToSubmit, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTransitionTo_Invalid(t *testing.T) {
	claim := &UPPFClaim{ClaimID: "UPPF-2026-W01-000001-001", Status: StatusPaid}
	err := claim.TransitionTo(StatusDisputed, time.Now())
	var transition *InvalidStateTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if transition.From != StatusPaid || transition.To != StatusDisputed {
		t.Fatalf("unexpected transition detail: %+v", transition)
	}
	if claim.Status != StatusPaid {
		t.Fatalf("claim mutated on failed transition: %s", claim.Status)
	}
}

func TestRecordSubmission_OnlyFromReady(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	claim := &UPPFClaim{ClaimID: "c1", Status: StatusReadyToSubmit}
	if err := claim.RecordSubmission("UPPF-2026-W05-1770000000000", "ops", now); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if claim.Status != StatusSubmitted || claim.SubmissionReference == "" || !claim.SubmittedAt.Equal(now) {
		t.Fatalf("submission fields not stamped: %+v", claim)
	}

	draft := &UPPFClaim{ClaimID: "c2", Status: StatusDraft}
	if err := draft.RecordSubmission("ref", "ops", now); err == nil {
		t.Fatal("expected submission from draft to fail")
	}
}

func TestRecordPayment_ShortPaySucceeds(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	claim := &UPPFClaim{ClaimID: "c1", Status: StatusSubmitted, AmountDue: 1000}
	if err := claim.RecordPayment(800, now); err != nil {
		t.Fatalf("short-pay rejected: %v", err)
	}
	if claim.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", claim.Status)
	}
	if got := claim.Shortfall(); got != 200 {
		t.Fatalf("shortfall = %.2f, want 200", got)
	}
}

func TestRecordPayment_Negative(t *testing.T) {
	claim := &UPPFClaim{ClaimID: "c1", Status: StatusSubmitted, AmountDue: 100}
	if err := claim.RecordPayment(-1, time.Now()); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestRecordPayment_FromDisputed(t *testing.T) {
	claim := &UPPFClaim{ClaimID: "c1", Status: StatusDisputed, AmountDue: 100}
	if err := claim.RecordPayment(100, time.Now()); err != nil {
		t.Fatalf("payment from disputed rejected: %v", err)
	}
	if got := claim.Shortfall(); got != 0 {
		t.Fatalf("shortfall = %.2f, want 0", got)
	}
}

func TestShortfall_ZeroBeforePayment(t *testing.T) {
	claim := &UPPFClaim{Status: StatusSubmitted, AmountDue: 500}
	if got := claim.Shortfall(); got != 0 {
		t.Fatalf("shortfall = %.2f, want 0 for unpaid claim", got)
	}
}

func TestNewClaimID_Format(t *testing.T) {
	now := time.Date(2026, 2, 5, 8, 30, 0, 0, time.UTC)
	id := NewClaimID("2026-W06", now)
	if !strings.HasPrefix(id, "UPPF-2026-W06-") {
		t.Fatalf("unexpected prefix: %s", id)
	}
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("unexpected segments: %s", id)
	}
	if len(parts[3]) != 6 || len(parts[4]) != 3 {
		t.Fatalf("unexpected segment widths: %s", id)
	}
}

func TestNewSubmissionReference(t *testing.T) {
	now := time.Date(2026, 2, 5, 8, 30, 0, 0, time.UTC)
	ref := NewSubmissionReference("2026-W06", now)
	want := "UPPF-2026-W06-" + "1770280200000"
	if ref != want {
		t.Fatalf("reference = %s, want %s", ref, want)
	}
}
