package mail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
)

// Queue generates email content for a recipient and persists it as a
// pending outbound work item. The external delivery worker drains the
// queue; this service never sends anything itself.
type Queue struct {
	users         *repository.UsersRepository
	organizations *repository.OrganizationsRepository
	projects      *repository.ProjectsRepository
	requisitions  *repository.RequisitionsRepository
	settings      *repository.OrgSettingsRepository
	emails        *repository.EmailQueueRepository
	logger        *slog.Logger
}

// NewQueue creates a new email queue service.
func NewQueue(
	users *repository.UsersRepository,
	organizations *repository.OrganizationsRepository,
	projects *repository.ProjectsRepository,
	requisitions *repository.RequisitionsRepository,
	settings *repository.OrgSettingsRepository,
	emails *repository.EmailQueueRepository,
	logger *slog.Logger,
) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		users:         users,
		organizations: organizations,
		projects:      projects,
		requisitions:  requisitions,
		settings:      settings,
		emails:        emails,
		logger:        logger,
	}
}

// Enqueue renders content for one recipient and persists a pending
// send. Returns (nil, nil) when the recipient has email notifications
// disabled. The queued row's organization id comes from the requisition
// row itself, never from the caller, so a forged organization id can
// never plant cross-tenant queue entries.
func (q *Queue) Enqueue(ctx context.Context, recipientID uuid.UUID, eventType domain.NotificationType, requisitionID uuid.UUID) (*domain.EmailNotification, error) {
	recipient, err := q.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !recipient.EmailNotifications {
		return nil, nil
	}

	req, err := q.requisitions.GetByIDUnscoped(ctx, requisitionID)
	if err != nil {
		return nil, err
	}

	content, err := q.contentFor(ctx, req, recipient.DisplayName(), eventType)
	if err != nil {
		return nil, err
	}

	email := &domain.EmailNotification{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		UserID:         recipient.ID,
		RecipientEmail: recipient.Email,
		Subject:        content.Subject,
		HTMLBody:       content.HTMLBody,
		TextBody:       content.TextBody,
		Type:           eventType,
		RequisitionID:  req.ID,
		Status:         domain.EmailStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := q.emails.Create(ctx, email); err != nil {
		return nil, err
	}
	return email, nil
}

// contentFor gathers organization, settings, and project context for a
// requisition and renders the email. Missing context falls back to
// defaults rather than failing the enqueue.
func (q *Queue) contentFor(ctx context.Context, req *domain.Requisition, recipientName string, eventType domain.NotificationType) (Content, error) {
	orgName := ""
	org, err := q.organizations.GetByID(ctx, req.OrganizationID)
	switch {
	case err == nil:
		orgName = org.Name
	case errors.Is(err, domain.ErrOrganizationNotFound):
		// Fall back to the default display name.
	default:
		return Content{}, err
	}

	baseURL := ""
	settings, err := q.settings.GetByOrgID(ctx, req.OrganizationID)
	switch {
	case err == nil:
		baseURL = settings.AppBaseURL
	case errors.Is(err, domain.ErrSettingsNotFound):
		// Fall back to the default base URL.
	default:
		return Content{}, err
	}

	projectName := ""
	project, err := q.projects.GetByID(ctx, req.OrganizationID, req.ProjectID)
	switch {
	case err == nil:
		projectName = project.Name
	case errors.Is(err, domain.ErrProjectNotFound):
	default:
		return Content{}, err
	}

	actorName := actorNameFor(eventType, req, func(id uuid.UUID) string {
		user, err := q.users.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		return user.DisplayName()
	})

	reason := ""
	if req.RejectionReason != nil {
		reason = *req.RejectionReason
	}

	return Render(ContentInput{
		OrgName:       orgName,
		BaseURL:       baseURL,
		RecipientName: recipientName,
		ActorName:     actorName,
		EventType:     eventType,
		RequisitionID: req.ID,
		Number:        req.Number,
		Title:         req.Title,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		ProjectName:   projectName,
		Reason:        reason,
	}), nil
}
