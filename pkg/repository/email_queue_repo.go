package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// EmailQueueRepository persists outbound email work items. Rows are
// written once by the queue service and mutated only through the
// status transitions below, driven by the external delivery worker.
type EmailQueueRepository struct {
	db *sql.DB
}

// NewEmailQueueRepository creates a new email queue repository.
func NewEmailQueueRepository(db *sql.DB) *EmailQueueRepository {
	return &EmailQueueRepository{db: db}
}

// Create enqueues a new pending email.
func (r *EmailQueueRepository) Create(ctx context.Context, e *domain.EmailNotification) error {
	query := `
		INSERT INTO email_notifications (id, organization_id, user_id, recipient_email,
		                                 subject, html_body, text_body, type,
		                                 requisition_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OrganizationID, e.UserID, e.RecipientEmail,
		e.Subject, e.HTMLBody, e.TextBody, e.Type,
		e.RequisitionID, e.Status, e.CreatedAt,
	)
	return err
}

// ClaimPending atomically claims up to limit pending emails for the
// delivery worker by stamping claimed_at. Rows stay pending until
// marked sent or failed; a claim older than reclaimAfter is considered
// abandoned and handed out again (at-least-once delivery).
func (r *EmailQueueRepository) ClaimPending(ctx context.Context, limit int, reclaimAfter time.Duration) ([]*domain.EmailNotification, error) {
	query := `
		UPDATE email_notifications
		SET claimed_at = NOW()
		WHERE id IN (
			SELECT id
			FROM email_notifications
			WHERE status = 'pending'
				AND (claimed_at IS NULL OR claimed_at < NOW() - make_interval(secs => $2))
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, organization_id, user_id, recipient_email, subject,
		          html_body, text_body, type, requisition_id, status, error,
		          claimed_at, sent_at, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, limit, reclaimAfter.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []*domain.EmailNotification
	for rows.Next() {
		var e domain.EmailNotification
		err := rows.Scan(
			&e.ID, &e.OrganizationID, &e.UserID, &e.RecipientEmail, &e.Subject,
			&e.HTMLBody, &e.TextBody, &e.Type, &e.RequisitionID, &e.Status,
			&e.Error, &e.ClaimedAt, &e.SentAt, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		emails = append(emails, &e)
	}

	return emails, rows.Err()
}

// MarkSent transitions a pending email to sent.
func (r *EmailQueueRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE email_notifications
		SET status = 'sent', sent_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	return r.execStatusChange(ctx, query, id)
}

// MarkFailed transitions a pending email to failed with an error note.
func (r *EmailQueueRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE email_notifications
		SET status = 'failed', error = $2
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrEmailNotFound
	}
	return nil
}

// CountPending counts pending emails for an organization.
func (r *EmailQueueRepository) CountPending(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM email_notifications
		WHERE organization_id = $1 AND status = 'pending'
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&count)
	return count, err
}

func (r *EmailQueueRepository) execStatusChange(ctx context.Context, query string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrEmailNotFound
	}
	return nil
}
