package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// RequisitionsRepository handles requisition persistence. Status
// updates use compare-and-swap on the expected prior status so two
// concurrent transitions on the same requisition can never both commit.
type RequisitionsRepository struct {
	db *sql.DB
}

// NewRequisitionsRepository creates a new requisitions repository.
func NewRequisitionsRepository(db *sql.DB) *RequisitionsRepository {
	return &RequisitionsRepository{db: db}
}

const requisitionColumns = `
	id, organization_id, project_id, number, title, description,
	amount_cents, currency, status, submitted_by, reviewed_by,
	approved_by, rejection_reason, created_at, updated_at
`

func scanRequisition(row *sql.Row) (*domain.Requisition, error) {
	var req domain.Requisition
	err := row.Scan(
		&req.ID, &req.OrganizationID, &req.ProjectID, &req.Number,
		&req.Title, &req.Description, &req.AmountCents, &req.Currency,
		&req.Status, &req.SubmittedBy, &req.ReviewedBy, &req.ApprovedBy,
		&req.RejectionReason, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequisitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create creates a new requisition in draft status.
func (r *RequisitionsRepository) Create(ctx context.Context, req *domain.Requisition) error {
	return r.CreateTx(ctx, r.db, req)
}

// CreateTx creates a new requisition within a transaction.
func (r *RequisitionsRepository) CreateTx(ctx context.Context, q Querier, req *domain.Requisition) error {
	query := `
		INSERT INTO requisitions (id, organization_id, project_id, number, title,
		                          description, amount_cents, currency, status,
		                          submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := q.ExecContext(ctx, query,
		req.ID, req.OrganizationID, req.ProjectID, req.Number, req.Title,
		req.Description, req.AmountCents, req.Currency, req.Status,
		req.SubmittedBy, req.CreatedAt, req.UpdatedAt,
	)
	return err
}

// GetByID retrieves a requisition scoped to an organization. Rows
// outside the organization are indistinguishable from missing rows.
func (r *RequisitionsRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE id = $1 AND organization_id = $2
	`
	return scanRequisition(r.db.QueryRowContext(ctx, query, id, orgID))
}

// GetByIDUnscoped retrieves a requisition by ID without tenant scoping.
// Reserved for internal services that derive the organization from the
// row itself (the email queue); request paths must use GetByID.
func (r *RequisitionsRepository) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*domain.Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE id = $1
	`
	return scanRequisition(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdateTx retrieves a requisition by ID with a row lock,
// within a transaction. Tenant scoping is the engine's responsibility
// after the read, keeping the denied case auditable.
func (r *RequisitionsRepository) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE id = $1
		FOR UPDATE
	`
	return scanRequisition(tx.QueryRowContext(ctx, query, id))
}

// StatusUpdate carries the actor-stamp fields set alongside a status
// change. Nil fields are left untouched.
type StatusUpdate struct {
	ReviewedBy      *uuid.UUID
	ApprovedBy      *uuid.UUID
	RejectionReason *string
}

// UpdateStatusTx applies a status change conditioned on the expected
// prior status. Returns domain.ErrConcurrentModification when the row
// no longer carries the expected status.
func (r *RequisitionsRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, expected, target domain.RequisitionStatus, update StatusUpdate) error {
	query := `
		UPDATE requisitions
		SET status = $3,
		    reviewed_by = COALESCE($4, reviewed_by),
		    approved_by = COALESCE($5, approved_by),
		    rejection_reason = COALESCE($6, rejection_reason),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := tx.ExecContext(ctx, query,
		id, expected, target,
		update.ReviewedBy, update.ApprovedBy, update.RejectionReason,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// ListByOrganization retrieves an organization's requisitions, newest
// first.
func (r *RequisitionsRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*domain.Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.Requisition
	for rows.Next() {
		var req domain.Requisition
		err := rows.Scan(
			&req.ID, &req.OrganizationID, &req.ProjectID, &req.Number,
			&req.Title, &req.Description, &req.AmountCents, &req.Currency,
			&req.Status, &req.SubmittedBy, &req.ReviewedBy, &req.ApprovedBy,
			&req.RejectionReason, &req.CreatedAt, &req.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, &req)
	}

	return reqs, rows.Err()
}

// CountCreatedSince counts requisitions created in an organization at
// or after the given time. Used for monthly quota enforcement.
func (r *RequisitionsRepository) CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM requisitions
		WHERE organization_id = $1 AND created_at >= $2
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, orgID, since).Scan(&count)
	return count, err
}
