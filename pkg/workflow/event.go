package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// TransitionEvent describes one committed status change. It is the
// value handed to the fan-out engine, keeping the state machine free of
// notification concerns. SubmittedBy and ReviewedBy are captured at
// commit time so audience computation needs no re-read.
type TransitionEvent struct {
	RequisitionID  uuid.UUID
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	From           domain.RequisitionStatus
	To             domain.RequisitionStatus
	ActorID        uuid.UUID
	SubmittedBy    uuid.UUID
	ReviewedBy     *uuid.UUID
	Reason         *string
	OccurredAt     time.Time
}

// Type returns the notification type for the event's edge.
func (e *TransitionEvent) Type() domain.NotificationType {
	return EventType(e.From, e.To)
}
