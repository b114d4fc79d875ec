package domain

import "errors"

// Workflow errors
var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnauthorized           = errors.New("actor lacks capability for this action")
	ErrMissingReason          = errors.New("rejection requires a non-empty reason")
	ErrConcurrentModification = errors.New("requisition was modified concurrently")
	ErrOrganizationSuspended  = errors.New("organization is suspended")
	ErrRequisitionLimit       = errors.New("monthly requisition limit reached")
)

// Lookup errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrRequisitionNotFound  = errors.New("requisition not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailNotFound        = errors.New("queued email not found")
	ErrSettingsNotFound     = errors.New("organization settings not found")
)
