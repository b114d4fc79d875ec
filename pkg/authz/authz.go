// Package authz answers "can user U perform action A on requisition R"
// as pure predicates over closed role enums. The actor's roles are
// resolved by the identity collaborator and the engine; nothing here
// touches storage.
package authz

import (
	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// Actor is the acting identity within its current organization context.
// ProjectRole is the actor's role on the requisition's project, nil when
// the actor holds no assignment there.
type Actor struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	GlobalRole     domain.GlobalRole
	OrgRole        domain.OrgRole
	ProjectRole    *domain.ProjectRole
}

// IsAdminEquivalent returns true for actors carrying full workflow
// capability: organization owners/admins and super admins.
func (a *Actor) IsAdminEquivalent() bool {
	return a.OrgRole.IsAdminEquivalent() || a.GlobalRole == domain.GlobalRoleSuperAdmin
}

// CanReview reports whether the actor may mark a requisition reviewed.
// Requires admin equivalence or a reviewer/approver assignment on the
// requisition's project.
func (a *Actor) CanReview() bool {
	if a.IsAdminEquivalent() {
		return true
	}
	if a.ProjectRole == nil {
		return false
	}
	return *a.ProjectRole == domain.ProjectRoleReviewer || *a.ProjectRole == domain.ProjectRoleApprover
}

// CanApprove reports whether the actor may approve a requisition.
func (a *Actor) CanApprove() bool {
	if a.IsAdminEquivalent() || a.GlobalRole == domain.GlobalRoleApprover {
		return true
	}
	return a.ProjectRole != nil && *a.ProjectRole == domain.ProjectRoleApprover
}

// CanReject reports whether the actor may reject a requisition.
func (a *Actor) CanReject() bool {
	if a.IsAdminEquivalent() {
		return true
	}
	if a.GlobalRole == domain.GlobalRoleReviewer || a.GlobalRole == domain.GlobalRoleApprover {
		return true
	}
	if a.ProjectRole == nil {
		return false
	}
	return *a.ProjectRole == domain.ProjectRoleReviewer || *a.ProjectRole == domain.ProjectRoleApprover
}

// CanTransition authorizes one edge of the transition table. The edge
// itself must already have passed workflow validation; this only
// decides capability. Returns domain.ErrUnauthorized on failure.
func CanTransition(actor *Actor, req *domain.Requisition, target domain.RequisitionStatus) error {
	if actor.OrganizationID != req.OrganizationID {
		return domain.ErrUnauthorized
	}

	switch target {
	case domain.StatusPending:
		// Self-submit only.
		if actor.UserID != req.SubmittedBy {
			return domain.ErrUnauthorized
		}
	case domain.StatusReviewed:
		if !actor.CanReview() {
			return domain.ErrUnauthorized
		}
	case domain.StatusApproved:
		if !actor.CanApprove() {
			return domain.ErrUnauthorized
		}
	case domain.StatusRejected:
		if !actor.CanReject() {
			return domain.ErrUnauthorized
		}
	default:
		return domain.ErrUnauthorized
	}
	return nil
}
