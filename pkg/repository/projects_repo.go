package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/procurehq/reqflow/pkg/domain"
)

// ProjectsRepository handles project and project assignment persistence.
type ProjectsRepository struct {
	db *sql.DB
}

// NewProjectsRepository creates a new projects repository.
func NewProjectsRepository(db *sql.DB) *ProjectsRepository {
	return &ProjectsRepository{db: db}
}

// Create creates a new project.
func (r *ProjectsRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, organization_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.OrganizationID, project.Name, project.Description,
		project.CreatedAt, project.UpdatedAt,
	)
	return err
}

// GetByID retrieves a project by ID scoped to an organization.
func (r *ProjectsRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, organization_id, name, description, created_at, updated_at, deleted_at
		FROM projects
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	var project domain.Project
	err := r.db.QueryRowContext(ctx, query, id, orgID).Scan(
		&project.ID, &project.OrganizationID, &project.Name, &project.Description,
		&project.CreatedAt, &project.UpdatedAt, &project.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Assign grants a user a role on a project, replacing any prior role.
func (r *ProjectsRepository) Assign(ctx context.Context, assignment *domain.ProjectAssignment) error {
	query := `
		INSERT INTO project_assignments (id, project_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`
	_, err := r.db.ExecContext(ctx, query,
		assignment.ID, assignment.ProjectID, assignment.UserID,
		assignment.Role, assignment.CreatedAt,
	)
	return err
}

// Unassign removes a user's assignment from a project.
func (r *ProjectsRepository) Unassign(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_assignments WHERE project_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, userID)
	return err
}

// GetAssignmentRole returns the user's role on a project, or nil when
// the user holds no assignment there.
func (r *ProjectsRepository) GetAssignmentRole(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectRole, error) {
	return r.GetAssignmentRoleTx(ctx, r.db, projectID, userID)
}

// GetAssignmentRoleTx is GetAssignmentRole within a transaction.
func (r *ProjectsRepository) GetAssignmentRoleTx(ctx context.Context, q Querier, projectID, userID uuid.UUID) (*domain.ProjectRole, error) {
	query := `
		SELECT role
		FROM project_assignments
		WHERE project_id = $1 AND user_id = $2
	`
	var role domain.ProjectRole
	err := q.QueryRowContext(ctx, query, projectID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListUserIDsByRoles returns the user IDs assigned to a project with
// any of the given roles. Used by audience computation.
func (r *ProjectsRepository) ListUserIDsByRoles(ctx context.Context, projectID uuid.UUID, roles ...domain.ProjectRole) ([]uuid.UUID, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `
		SELECT user_id
		FROM project_assignments
		WHERE project_id = $1 AND role = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, projectID, pq.Array(names))
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
