package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequisitionStatus is the workflow state of a requisition.
type RequisitionStatus string

const (
	StatusDraft    RequisitionStatus = "draft"
	StatusPending  RequisitionStatus = "pending"
	StatusReviewed RequisitionStatus = "reviewed"
	StatusApproved RequisitionStatus = "approved"
	StatusRejected RequisitionStatus = "rejected"
)

// Valid returns true if s is a known requisition status.
func (s RequisitionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusReviewed, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are permitted.
func (s RequisitionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Requisition is the workflow subject: a purchase request moving
// through the approval state machine. AmountCents holds the monetary
// amount in the smallest currency unit.
type Requisition struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	ProjectID       uuid.UUID
	Number          string
	Title           string
	Description     *string
	AmountCents     int64
	Currency        string
	Status          RequisitionStatus
	SubmittedBy     uuid.UUID
	ReviewedBy      *uuid.UUID
	ApprovedBy      *uuid.UUID
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
