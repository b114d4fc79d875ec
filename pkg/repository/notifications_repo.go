package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// NotificationsRepository handles in-app notification persistence.
// Rows are created by the fan-out engine; only the read flag is ever
// mutated, and only by the recipient.
type NotificationsRepository struct {
	db *sql.DB
}

// NewNotificationsRepository creates a new notifications repository.
func NewNotificationsRepository(db *sql.DB) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

// Create creates a new notification.
func (r *NotificationsRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, organization_id, user_id, type, title,
		                           message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OrganizationID, n.UserID, n.Type, n.Title,
		n.Message, n.Link, n.Read, n.CreatedAt,
	)
	return err
}

// ListByUser retrieves a user's notifications within an organization,
// newest first.
func (r *NotificationsRepository) ListByUser(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	query := `
		SELECT id, organization_id, user_id, type, title, message, link, read, created_at
		FROM notifications
		WHERE organization_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID, &n.OrganizationID, &n.UserID, &n.Type, &n.Title,
			&n.Message, &n.Link, &n.Read, &n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountUnread counts a user's unread notifications within an organization.
func (r *NotificationsRepository) CountUnread(ctx context.Context, orgID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE organization_id = $1 AND user_id = $2 AND read = FALSE
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(&count)
	return count, err
}

// MarkRead sets the read flag on a notification. The recipient check is
// part of the statement so one user can never mark another's rows.
func (r *NotificationsRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
