package workflow

import (
	"errors"
	"testing"

	"github.com/procurehq/reqflow/pkg/domain"
)

func TestValidate_LegalEdges(t *testing.T) {
	legal := []struct {
		from domain.RequisitionStatus
		to   domain.RequisitionStatus
	}{
		{domain.StatusDraft, domain.StatusPending},
		{domain.StatusPending, domain.StatusReviewed},
		{domain.StatusReviewed, domain.StatusApproved},
		{domain.StatusDraft, domain.StatusRejected},
		{domain.StatusPending, domain.StatusRejected},
		{domain.StatusReviewed, domain.StatusRejected},
	}

	for _, e := range legal {
		t.Run(string(e.from)+"_to_"+string(e.to), func(t *testing.T) {
			if err := Validate(e.from, e.to); err != nil {
				t.Errorf("Validate(%q, %q): got %v, want nil", e.from, e.to, err)
			}
		})
	}
}

func TestValidate_IllegalEdges(t *testing.T) {
	all := []domain.RequisitionStatus{
		domain.StatusDraft,
		domain.StatusPending,
		domain.StatusReviewed,
		domain.StatusApproved,
		domain.StatusRejected,
	}

	legal := map[[2]domain.RequisitionStatus]bool{
		{domain.StatusDraft, domain.StatusPending}:     true,
		{domain.StatusPending, domain.StatusReviewed}:  true,
		{domain.StatusReviewed, domain.StatusApproved}: true,
		{domain.StatusDraft, domain.StatusRejected}:    true,
		{domain.StatusPending, domain.StatusRejected}:  true,
		{domain.StatusReviewed, domain.StatusRejected}: true,
	}

	// Exhaustive sweep: every pair not in the table must be rejected,
	// including same-state transitions and anything out of a terminal
	// state.
	for _, from := range all {
		for _, to := range all {
			if legal[[2]domain.RequisitionStatus{from, to}] {
				continue
			}
			if err := Validate(from, to); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("Validate(%q, %q): got %v, want ErrInvalidTransition", from, to, err)
			}
		}
	}
}

func TestValidate_UnknownStatus(t *testing.T) {
	if err := Validate(domain.StatusDraft, domain.RequisitionStatus("archived")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("unknown target: got %v, want ErrInvalidTransition", err)
	}
	if err := Validate(domain.RequisitionStatus(""), domain.StatusPending); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("empty current: got %v, want ErrInvalidTransition", err)
	}
}

func TestAllowedNext(t *testing.T) {
	tests := []struct {
		from domain.RequisitionStatus
		want []domain.RequisitionStatus
	}{
		{domain.StatusDraft, []domain.RequisitionStatus{domain.StatusPending, domain.StatusRejected}},
		{domain.StatusPending, []domain.RequisitionStatus{domain.StatusReviewed, domain.StatusRejected}},
		{domain.StatusReviewed, []domain.RequisitionStatus{domain.StatusApproved, domain.StatusRejected}},
		{domain.StatusApproved, nil},
		{domain.StatusRejected, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got := AllowedNext(tt.from)
			if len(got) != len(tt.want) {
				t.Fatalf("AllowedNext(%q): got %v, want %v", tt.from, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("AllowedNext(%q)[%d]: got %q, want %q", tt.from, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRequiresReason(t *testing.T) {
	if !RequiresReason(domain.StatusRejected) {
		t.Error("rejected should require a reason")
	}
	for _, s := range []domain.RequisitionStatus{domain.StatusPending, domain.StatusReviewed, domain.StatusApproved} {
		if RequiresReason(s) {
			t.Errorf("%q should not require a reason", s)
		}
	}
}

func TestEventType(t *testing.T) {
	tests := []struct {
		from domain.RequisitionStatus
		to   domain.RequisitionStatus
		want domain.NotificationType
	}{
		{domain.StatusDraft, domain.StatusPending, domain.NotificationRequisitionSubmitted},
		{domain.StatusPending, domain.StatusReviewed, domain.NotificationRequisitionReviewed},
		{domain.StatusReviewed, domain.StatusApproved, domain.NotificationRequisitionApproved},
		{domain.StatusPending, domain.StatusRejected, domain.NotificationRequisitionRejected},
		{domain.StatusDraft, domain.StatusRejected, domain.NotificationRequisitionRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := EventType(tt.from, tt.to); got != tt.want {
				t.Errorf("EventType(%q, %q): got %q, want %q", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
