package requisitions

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/procurehq/reqflow/pkg/domain"
)

func TestToResponse(t *testing.T) {
	reviewerID := uuid.New()
	reason := "over budget"
	desc := "replacement laptops"
	now := time.Now()

	req := &domain.Requisition{
		ID:              uuid.New(),
		OrganizationID:  uuid.New(),
		ProjectID:       uuid.New(),
		Number:          "REQ-00042",
		Title:           "Laptops Q3",
		Description:     &desc,
		AmountCents:     1299900,
		Currency:        "USD",
		Status:          domain.StatusRejected,
		SubmittedBy:     uuid.New(),
		ReviewedBy:      &reviewerID,
		RejectionReason: &reason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	resp := toResponse(req)

	if resp.ID != req.ID.String() {
		t.Errorf("ID = %q, want %q", resp.ID, req.ID.String())
	}
	if resp.Number != "REQ-00042" {
		t.Errorf("Number = %q, want %q", resp.Number, "REQ-00042")
	}
	if resp.Status != "rejected" {
		t.Errorf("Status = %q, want %q", resp.Status, "rejected")
	}
	if resp.ReviewedBy == nil || *resp.ReviewedBy != reviewerID.String() {
		t.Errorf("ReviewedBy = %v, want %v", resp.ReviewedBy, reviewerID.String())
	}
	if resp.ApprovedBy != nil {
		t.Error("ApprovedBy should be nil when unset")
	}
	if resp.RejectionReason == nil || *resp.RejectionReason != reason {
		t.Errorf("RejectionReason = %v, want %q", resp.RejectionReason, reason)
	}
	if resp.AmountCents != 1299900 {
		t.Errorf("AmountCents = %d, want %d", resp.AmountCents, 1299900)
	}
}

func TestToResponse_MinimalDraft(t *testing.T) {
	req := &domain.Requisition{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		ProjectID:      uuid.New(),
		Number:         "REQ-00001",
		Title:          "Office chairs",
		AmountCents:    45000,
		Currency:       "EUR",
		Status:         domain.StatusDraft,
		SubmittedBy:    uuid.New(),
	}

	resp := toResponse(req)

	if resp.Status != "draft" {
		t.Errorf("Status = %q, want %q", resp.Status, "draft")
	}
	if resp.Description != nil || resp.ReviewedBy != nil || resp.ApprovedBy != nil || resp.RejectionReason != nil {
		t.Error("optional fields should all be nil for a fresh draft")
	}
}
