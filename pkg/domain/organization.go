package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrgStatus represents the lifecycle state of an organization.
type OrgStatus string

const (
	OrgStatusTrial     OrgStatus = "trial"
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// PlanTier represents the subscription tier of an organization.
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanTeam       PlanTier = "team"
	PlanEnterprise PlanTier = "enterprise"
)

// Organization is the tenant boundary. Every workflow entity carries a
// reference to exactly one organization and is never visible outside it.
type Organization struct {
	ID                   uuid.UUID
	Name                 string
	Slug                 string
	PlanTier             PlanTier
	Status               OrgStatus
	MaxUsers             int
	MaxProjects          int
	MaxRequisitionsMonth int
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

// CanMutate returns true if workflow mutations are permitted for the
// organization's current status.
func (o *Organization) CanMutate() bool {
	return o.Status != OrgStatusSuspended && o.DeletedAt == nil
}
