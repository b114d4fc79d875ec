package workflow

import (
	"github.com/procurehq/reqflow/pkg/domain"
)

// edge is one legal transition in the table.
type edge struct {
	from domain.RequisitionStatus
	to   domain.RequisitionStatus
}

// transitions is the closed table of legal edges. Approved and rejected
// are terminal; same-state transitions are never legal.
var transitions = map[edge]bool{
	{domain.StatusDraft, domain.StatusPending}:     true,
	{domain.StatusPending, domain.StatusReviewed}:  true,
	{domain.StatusReviewed, domain.StatusApproved}: true,
	{domain.StatusDraft, domain.StatusRejected}:    true,
	{domain.StatusPending, domain.StatusRejected}:  true,
	{domain.StatusReviewed, domain.StatusRejected}: true,
}

// Validate checks that target is reachable from current. Returns
// domain.ErrInvalidTransition otherwise; no state is examined beyond
// the two statuses.
func Validate(current, target domain.RequisitionStatus) error {
	if !current.Valid() || !target.Valid() {
		return domain.ErrInvalidTransition
	}
	if !transitions[edge{current, target}] {
		return domain.ErrInvalidTransition
	}
	return nil
}

// AllowedNext returns the statuses reachable from current, for error
// payloads. Order is fixed: pending, reviewed, approved, rejected.
func AllowedNext(current domain.RequisitionStatus) []domain.RequisitionStatus {
	ordered := []domain.RequisitionStatus{
		domain.StatusPending,
		domain.StatusReviewed,
		domain.StatusApproved,
		domain.StatusRejected,
	}
	var next []domain.RequisitionStatus
	for _, target := range ordered {
		if transitions[edge{current, target}] {
			next = append(next, target)
		}
	}
	return next
}

// RequiresReason returns true if the target status demands a non-empty
// reason from the actor.
func RequiresReason(target domain.RequisitionStatus) bool {
	return target == domain.StatusRejected
}

// EventType maps a committed edge to the notification type fanned out
// for it. The edge must have passed Validate.
func EventType(from, to domain.RequisitionStatus) domain.NotificationType {
	switch to {
	case domain.StatusPending:
		return domain.NotificationRequisitionSubmitted
	case domain.StatusReviewed:
		return domain.NotificationRequisitionReviewed
	case domain.StatusApproved:
		return domain.NotificationRequisitionApproved
	case domain.StatusRejected:
		return domain.NotificationRequisitionRejected
	}
	// Unreachable for validated edges.
	return ""
}
