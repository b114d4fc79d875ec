package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// MembershipsRepository handles membership data persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.CreateTx(ctx, r.db, membership)
}

// CreateTx creates a new membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, organization_id, user_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		membership.ID,
		membership.OrganizationID,
		membership.UserID,
		membership.Role,
		membership.Status,
		membership.CreatedAt,
		membership.UpdatedAt,
	)
	return err
}

// GetByUserAndOrg retrieves a membership for a user in an organization.
func (r *MembershipsRepository) GetByUserAndOrg(ctx context.Context, userID, orgID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, role, status, created_at, updated_at, deleted_at
		FROM memberships
		WHERE user_id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	var membership domain.Membership
	err := r.db.QueryRowContext(ctx, query, userID, orgID).Scan(
		&membership.ID,
		&membership.OrganizationID,
		&membership.UserID,
		&membership.Role,
		&membership.Status,
		&membership.CreatedAt,
		&membership.UpdatedAt,
		&membership.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}

	return &membership, nil
}

// GetByOrgID retrieves all active members of an organization.
func (r *MembershipsRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, role, status, created_at, updated_at, deleted_at
		FROM memberships
		WHERE organization_id = $1 AND status = 'active' AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var membership domain.Membership
		err := rows.Scan(
			&membership.ID,
			&membership.OrganizationID,
			&membership.UserID,
			&membership.Role,
			&membership.Status,
			&membership.CreatedAt,
			&membership.UpdatedAt,
			&membership.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, &membership)
	}

	return memberships, rows.Err()
}

// ListAdminUserIDs returns the user IDs of active owners and admins of
// an organization. Used by audience computation.
func (r *MembershipsRepository) ListAdminUserIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM memberships
		WHERE organization_id = $1
			AND role IN ('owner', 'admin')
			AND status = 'active'
			AND deleted_at IS NULL
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountActiveByOrgID counts active members of an organization.
func (r *MembershipsRepository) CountActiveByOrgID(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM memberships
		WHERE organization_id = $1 AND status = 'active' AND deleted_at IS NULL
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&count)
	return count, err
}

// UpdateStatus updates the status of a membership.
func (r *MembershipsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MembershipStatus) error {
	query := `
		UPDATE memberships
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMembershipNotFound
	}

	return nil
}
