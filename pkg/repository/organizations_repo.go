package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// OrganizationsRepository handles organization persistence.
type OrganizationsRepository struct {
	db *sql.DB
}

// NewOrganizationsRepository creates a new organizations repository.
func NewOrganizationsRepository(db *sql.DB) *OrganizationsRepository {
	return &OrganizationsRepository{db: db}
}

const organizationColumns = `
	id, name, slug, plan_tier, status, max_users, max_projects,
	max_requisitions_month, created_at, updated_at, deleted_at
`

func scanOrganization(row *sql.Row) (*domain.Organization, error) {
	var org domain.Organization
	err := row.Scan(
		&org.ID, &org.Name, &org.Slug, &org.PlanTier, &org.Status,
		&org.MaxUsers, &org.MaxProjects, &org.MaxRequisitionsMonth,
		&org.CreatedAt, &org.UpdatedAt, &org.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Create creates a new organization.
func (r *OrganizationsRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, plan_tier, status, max_users,
		                           max_projects, max_requisitions_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.PlanTier, org.Status,
		org.MaxUsers, org.MaxProjects, org.MaxRequisitionsMonth,
		org.CreatedAt, org.UpdatedAt,
	)
	return err
}

// GetByID retrieves an organization by ID.
func (r *OrganizationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanOrganization(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves an organization by slug.
func (r *OrganizationsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE slug = $1 AND deleted_at IS NULL
	`
	return scanOrganization(r.db.QueryRowContext(ctx, query, slug))
}

// UpdateStatus updates the lifecycle status of an organization.
func (r *OrganizationsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrgStatus) error {
	query := `
		UPDATE organizations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// SoftDelete soft deletes an organization.
func (r *OrganizationsRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE organizations
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
