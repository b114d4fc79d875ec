package authz

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

func projectRole(r domain.ProjectRole) *domain.ProjectRole {
	return &r
}

func TestActor_CanReview(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{
			name:  "org admin without assignment",
			actor: Actor{OrgRole: domain.OrgRoleAdmin},
			want:  true,
		},
		{
			name:  "org owner without assignment",
			actor: Actor{OrgRole: domain.OrgRoleOwner},
			want:  true,
		},
		{
			name:  "super admin without assignment",
			actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleSuperAdmin},
			want:  true,
		},
		{
			name:  "project reviewer",
			actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleReviewer)},
			want:  true,
		},
		{
			name:  "project approver",
			actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleApprover)},
			want:  true,
		},
		{
			name:  "project viewer",
			actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleViewer)},
			want:  false,
		},
		{
			name:  "global reviewer without project assignment",
			actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleReviewer},
			want:  false,
		},
		{
			name:  "plain member",
			actor: Actor{OrgRole: domain.OrgRoleMember},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanReview(); got != tt.want {
				t.Errorf("CanReview: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActor_CanApprove(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{name: "org admin", actor: Actor{OrgRole: domain.OrgRoleAdmin}, want: true},
		{name: "global approver", actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleApprover}, want: true},
		{name: "project approver", actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleApprover)}, want: true},
		{name: "project reviewer", actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleReviewer)}, want: false},
		{name: "global reviewer", actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleReviewer}, want: false},
		{name: "plain member", actor: Actor{OrgRole: domain.OrgRoleMember}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanApprove(); got != tt.want {
				t.Errorf("CanApprove: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActor_CanReject(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{name: "org owner", actor: Actor{OrgRole: domain.OrgRoleOwner}, want: true},
		{name: "global reviewer", actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleReviewer}, want: true},
		{name: "global approver", actor: Actor{OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleApprover}, want: true},
		{name: "project reviewer", actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleReviewer)}, want: true},
		{name: "project viewer", actor: Actor{OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleViewer)}, want: false},
		{name: "plain member", actor: Actor{OrgRole: domain.OrgRoleMember}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanReject(); got != tt.want {
				t.Errorf("CanReject: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	orgID := uuid.New()
	submitter := uuid.New()
	other := uuid.New()

	req := &domain.Requisition{
		ID:             uuid.New(),
		OrganizationID: orgID,
		SubmittedBy:    submitter,
		Status:         domain.StatusDraft,
	}

	tests := []struct {
		name    string
		actor   Actor
		target  domain.RequisitionStatus
		wantErr error
	}{
		{
			name:   "submitter submits own draft",
			actor:  Actor{UserID: submitter, OrganizationID: orgID, OrgRole: domain.OrgRoleMember},
			target: domain.StatusPending,
		},
		{
			name:    "admin cannot submit on behalf of submitter",
			actor:   Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleAdmin},
			target:  domain.StatusPending,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:   "project reviewer marks reviewed",
			actor:  Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleReviewer)},
			target: domain.StatusReviewed,
		},
		{
			name:    "unassigned member cannot review",
			actor:   Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleMember},
			target:  domain.StatusReviewed,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:   "global approver approves",
			actor:  Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleApprover},
			target: domain.StatusApproved,
		},
		{
			name:    "reviewer cannot approve",
			actor:   Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleMember, ProjectRole: projectRole(domain.ProjectRoleReviewer)},
			target:  domain.StatusApproved,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:   "reviewer rejects",
			actor:  Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleMember, GlobalRole: domain.GlobalRoleReviewer},
			target: domain.StatusRejected,
		},
		{
			name:    "cross-tenant actor is never authorized",
			actor:   Actor{UserID: other, OrganizationID: uuid.New(), OrgRole: domain.OrgRoleOwner},
			target:  domain.StatusRejected,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "unknown target status",
			actor:   Actor{UserID: other, OrganizationID: orgID, OrgRole: domain.OrgRoleOwner},
			target:  domain.RequisitionStatus("archived"),
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(&tt.actor, req, tt.target)
			if tt.wantErr == nil && err != nil {
				t.Errorf("CanTransition: got %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("CanTransition: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
