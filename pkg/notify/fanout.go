// Package notify is the notification fan-out engine: it consumes
// committed transition events, computes the audience per role rule, and
// creates one in-app notification plus one queued email per recipient.
// Failures are isolated per recipient and never affect the transition.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
	"github.com/procurehq/reqflow/pkg/workflow"
)

// Enqueuer queues an outbound email for one recipient. A nil result
// with nil error means the recipient has email notifications disabled.
type Enqueuer interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, eventType domain.NotificationType, requisitionID uuid.UUID) (*domain.EmailNotification, error)
}

// Fanout computes audiences and dispatches notifications for
// transition events.
type Fanout struct {
	requisitions  *repository.RequisitionsRepository
	users         *repository.UsersRepository
	memberships   *repository.MembershipsRepository
	projects      *repository.ProjectsRepository
	notifications *repository.NotificationsRepository
	emails        Enqueuer
	logger        *slog.Logger
}

// NewFanout creates a new fan-out engine. emails may be nil to disable
// the email path.
func NewFanout(
	requisitions *repository.RequisitionsRepository,
	users *repository.UsersRepository,
	memberships *repository.MembershipsRepository,
	projects *repository.ProjectsRepository,
	notifications *repository.NotificationsRepository,
	emails Enqueuer,
	logger *slog.Logger,
) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		requisitions:  requisitions,
		users:         users,
		memberships:   memberships,
		projects:      projects,
		notifications: notifications,
		emails:        emails,
		logger:        logger,
	}
}

// ComputeAudience returns the deduplicated recipient set for an event,
// excluding the triggering actor. Re-running it for the same event
// yields the same set, which makes per-recipient retry safe.
func (f *Fanout) ComputeAudience(ctx context.Context, event *workflow.TransitionEvent) ([]uuid.UUID, error) {
	var reviewerPool, approverPool, adminPool []uuid.UUID
	var err error

	switch event.Type() {
	case domain.NotificationRequisitionSubmitted:
		reviewerPool, err = f.projects.ListUserIDsByRoles(ctx, event.ProjectID,
			domain.ProjectRoleReviewer, domain.ProjectRoleApprover)
	case domain.NotificationRequisitionReviewed:
		approverPool, err = f.projects.ListUserIDsByRoles(ctx, event.ProjectID, domain.ProjectRoleApprover)
	case domain.NotificationRequisitionRejected:
		if event.From == domain.StatusPending {
			approverPool, err = f.projects.ListUserIDsByRoles(ctx, event.ProjectID, domain.ProjectRoleApprover)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("list project audience: %w", err)
	}

	if needsAdminPool(event) {
		adminPool, err = f.memberships.ListAdminUserIDs(ctx, event.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("list org admins: %w", err)
		}
	}

	return buildAudience(event, reviewerPool, approverPool, adminPool), nil
}

// needsAdminPool reports whether the event's rules include the
// org-admin audience.
func needsAdminPool(event *workflow.TransitionEvent) bool {
	switch event.Type() {
	case domain.NotificationRequisitionSubmitted, domain.NotificationRequisitionReviewed:
		return true
	case domain.NotificationRequisitionRejected:
		return event.From == domain.StatusPending
	}
	return false
}

// buildAudience applies the audience rules as a pure function of the
// event and the gathered role pools. The result is deduplicated, never
// contains the actor, and preserves first-seen order.
func buildAudience(event *workflow.TransitionEvent, reviewerPool, approverPool, adminPool []uuid.UUID) []uuid.UUID {
	var candidates []uuid.UUID

	switch event.Type() {
	case domain.NotificationRequisitionSubmitted:
		// All reviewers/approvers on the project plus org admins,
		// excluding the submitter (who is the actor on this edge).
		candidates = append(candidates, reviewerPool...)
		candidates = append(candidates, adminPool...)

	case domain.NotificationRequisitionReviewed:
		// Submitter always; approvers and admins besides them.
		candidates = append(candidates, event.SubmittedBy)
		candidates = append(candidates, approverPool...)
		candidates = append(candidates, adminPool...)

	case domain.NotificationRequisitionApproved:
		candidates = append(candidates, event.SubmittedBy)
		if event.ReviewedBy != nil {
			candidates = append(candidates, *event.ReviewedBy)
		}

	case domain.NotificationRequisitionRejected:
		candidates = append(candidates, event.SubmittedBy)
		if event.ReviewedBy != nil {
			candidates = append(candidates, *event.ReviewedBy)
		}
		// Rejection at the review stage also tells the approver pool
		// the requisition left their queue. Not applicable when
		// rejecting a draft or an already-reviewed requisition.
		if event.From == domain.StatusPending {
			candidates = append(candidates, approverPool...)
			candidates = append(candidates, adminPool...)
		}
	}

	seen := make(map[uuid.UUID]bool, len(candidates))
	var audience []uuid.UUID
	for _, id := range candidates {
		if id == event.ActorID || seen[id] {
			continue
		}
		seen[id] = true
		audience = append(audience, id)
	}
	return audience
}

// Dispatch computes the audience for a committed event and notifies
// each recipient: one in-app notification and, preference permitting,
// one queued email. Per-recipient failures are logged and skipped; the
// same event can be re-dispatched safely (at-least-once).
func (f *Fanout) Dispatch(ctx context.Context, event *workflow.TransitionEvent) error {
	audience, err := f.ComputeAudience(ctx, event)
	if err != nil {
		return err
	}
	if len(audience) == 0 {
		return nil
	}

	req, err := f.requisitions.GetByID(ctx, event.OrganizationID, event.RequisitionID)
	if err != nil {
		return fmt.Errorf("load requisition: %w", err)
	}
	actor, err := f.users.GetByID(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("load actor: %w", err)
	}

	title, message := renderMessage(event, req.Title, actor.DisplayName())
	link := "/requisitions/" + event.RequisitionID.String()

	for _, recipientID := range audience {
		n := &domain.Notification{
			ID:             uuid.New(),
			OrganizationID: event.OrganizationID,
			UserID:         recipientID,
			Type:           event.Type(),
			Title:          title,
			Message:        message,
			Link:           &link,
			CreatedAt:      time.Now(),
		}
		if err := f.notifications.Create(ctx, n); err != nil {
			f.logger.Warn("notification create failed",
				"requisition_id", event.RequisitionID,
				"recipient_id", recipientID,
				"error", err,
			)
			continue
		}

		if f.emails == nil {
			continue
		}
		if _, err := f.emails.Enqueue(ctx, recipientID, event.Type(), event.RequisitionID); err != nil {
			f.logger.Warn("email enqueue failed",
				"requisition_id", event.RequisitionID,
				"recipient_id", recipientID,
				"error", err,
			)
		}
	}

	return nil
}

// renderMessage builds the in-app notification title and message for an
// event.
func renderMessage(event *workflow.TransitionEvent, reqTitle, actorName string) (title, message string) {
	switch event.Type() {
	case domain.NotificationRequisitionSubmitted:
		return "New requisition submitted",
			fmt.Sprintf("%s submitted requisition %q for review", actorName, reqTitle)
	case domain.NotificationRequisitionReviewed:
		return "Requisition reviewed",
			fmt.Sprintf("%s marked requisition %q as reviewed", actorName, reqTitle)
	case domain.NotificationRequisitionApproved:
		return "Requisition approved",
			fmt.Sprintf("%s approved requisition %q", actorName, reqTitle)
	case domain.NotificationRequisitionRejected:
		reason := ""
		if event.Reason != nil {
			reason = *event.Reason
		}
		return "Requisition rejected",
			fmt.Sprintf("%s rejected requisition %q: %s", actorName, reqTitle, reason)
	}
	return "", ""
}
