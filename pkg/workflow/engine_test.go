package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/procurehq/reqflow/pkg/domain"
)

func TestStampsFor(t *testing.T) {
	actorID := uuid.New()
	reason := "budget exceeded"

	t.Run("reviewed stamps reviewer", func(t *testing.T) {
		update, stamped := stampsFor(domain.StatusReviewed, actorID, nil)
		if update.ReviewedBy == nil || *update.ReviewedBy != actorID {
			t.Errorf("ReviewedBy = %v, want %v", update.ReviewedBy, actorID)
		}
		if update.ApprovedBy != nil || update.RejectionReason != nil {
			t.Error("reviewed must not stamp approver or reason")
		}
		if stamped["reviewed_by"] != actorID {
			t.Errorf("audit fields missing reviewed_by: %v", stamped)
		}
	})

	t.Run("approved stamps approver", func(t *testing.T) {
		update, stamped := stampsFor(domain.StatusApproved, actorID, nil)
		if update.ApprovedBy == nil || *update.ApprovedBy != actorID {
			t.Errorf("ApprovedBy = %v, want %v", update.ApprovedBy, actorID)
		}
		if update.ReviewedBy != nil {
			t.Error("approved must not overwrite the reviewer stamp")
		}
		if stamped["approved_by"] != actorID {
			t.Errorf("audit fields missing approved_by: %v", stamped)
		}
	})

	t.Run("rejected carries reason, no actor stamp", func(t *testing.T) {
		update, stamped := stampsFor(domain.StatusRejected, actorID, &reason)
		if update.RejectionReason == nil || *update.RejectionReason != reason {
			t.Errorf("RejectionReason = %v, want %q", update.RejectionReason, reason)
		}
		if update.ReviewedBy != nil || update.ApprovedBy != nil {
			t.Error("rejected must not stamp reviewer or approver")
		}
		if stamped["rejection_reason"] != reason {
			t.Errorf("audit fields missing rejection_reason: %v", stamped)
		}
	})

	t.Run("pending stamps nothing", func(t *testing.T) {
		update, stamped := stampsFor(domain.StatusPending, actorID, nil)
		if update.ReviewedBy != nil || update.ApprovedBy != nil || update.RejectionReason != nil {
			t.Error("pending must not stamp any field")
		}
		if stamped["status"] != domain.StatusPending {
			t.Errorf("audit fields missing status: %v", stamped)
		}
	})
}

func TestApplyStamps(t *testing.T) {
	reviewerID := uuid.New()
	approverID := uuid.New()
	now := time.Now()

	req := &domain.Requisition{
		Status:     domain.StatusPending,
		ReviewedBy: &reviewerID,
	}

	update, _ := stampsFor(domain.StatusApproved, approverID, nil)
	applyStamps(req, domain.StatusApproved, update, now)

	if req.Status != domain.StatusApproved {
		t.Errorf("Status = %v, want %v", req.Status, domain.StatusApproved)
	}
	if req.ApprovedBy == nil || *req.ApprovedBy != approverID {
		t.Errorf("ApprovedBy = %v, want %v", req.ApprovedBy, approverID)
	}
	// The earlier reviewer stamp survives approval.
	if req.ReviewedBy == nil || *req.ReviewedBy != reviewerID {
		t.Errorf("ReviewedBy = %v, want %v", req.ReviewedBy, reviewerID)
	}
	if !req.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", req.UpdatedAt, now)
	}
}

func TestTrimReason(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{name: "nil stays nil", input: nil, want: nil},
		{name: "whitespace only becomes nil", input: str("   \t\n"), want: nil},
		{name: "empty becomes nil", input: str(""), want: nil},
		{name: "trimmed", input: str("  over budget  "), want: str("over budget")},
		{name: "unchanged", input: str("over budget"), want: str("over budget")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimReason(tt.input)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("trimReason = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("trimReason = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(domain.ErrConcurrentModification) {
		t.Error("ErrConcurrentModification should be a conflict")
	}
	if !IsConflict(fmt.Errorf("update requisition: %w", domain.ErrConcurrentModification)) {
		t.Error("wrapped ErrConcurrentModification should be a conflict")
	}
	if IsConflict(domain.ErrInvalidTransition) {
		t.Error("ErrInvalidTransition is not a conflict")
	}
	if IsConflict(nil) {
		t.Error("nil is not a conflict")
	}
}
