package domain

// GlobalRole is a user's role across all organizations.
type GlobalRole string

const (
	GlobalRoleMember     GlobalRole = "member"
	GlobalRoleReviewer   GlobalRole = "reviewer"
	GlobalRoleApprover   GlobalRole = "approver"
	GlobalRoleSuperAdmin GlobalRole = "super_admin"
)

// OrgRole is a user's role within a single organization.
type OrgRole string

const (
	OrgRoleOwner  OrgRole = "owner"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleMember OrgRole = "member"
)

// ProjectRole is a user's role on a single project. It may differ from
// the user's organization-wide role.
type ProjectRole string

const (
	ProjectRoleViewer   ProjectRole = "viewer"
	ProjectRoleReviewer ProjectRole = "reviewer"
	ProjectRoleApprover ProjectRole = "approver"
)

// IsAdminEquivalent returns true for roles that carry full workflow
// capability within an organization.
func (r OrgRole) IsAdminEquivalent() bool {
	return r == OrgRoleOwner || r == OrgRoleAdmin
}

// Valid reports whether r is a known global role.
func (r GlobalRole) Valid() bool {
	switch r {
	case GlobalRoleMember, GlobalRoleReviewer, GlobalRoleApprover, GlobalRoleSuperAdmin:
		return true
	}
	return false
}

// Valid reports whether r is a known organization role.
func (r OrgRole) Valid() bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleMember:
		return true
	}
	return false
}

// Valid reports whether r is a known project role.
func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleViewer, ProjectRoleReviewer, ProjectRoleApprover:
		return true
	}
	return false
}
