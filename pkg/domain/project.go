package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is a scoping unit within an organization. A project and all
// of its assignments belong to the same organization as any requisition
// that references it.
type Project struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Description    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// ProjectAssignment grants a user a project-level role.
type ProjectAssignment struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      ProjectRole
	CreatedAt time.Time
}
