package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags a notification with the workflow event that
// produced it.
type NotificationType string

const (
	NotificationRequisitionSubmitted NotificationType = "requisition_submitted"
	NotificationRequisitionReviewed  NotificationType = "requisition_reviewed"
	NotificationRequisitionApproved  NotificationType = "requisition_approved"
	NotificationRequisitionRejected  NotificationType = "requisition_rejected"
)

// Notification is an in-app alert for a single recipient. Only the
// read flag is ever mutated, and only by the recipient.
type Notification struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Type           NotificationType
	Title          string
	Message        string
	Link           *string
	Read           bool
	CreatedAt      time.Time
}

// EmailStatus is the delivery state of a queued email.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// EmailNotification is a queued outbound send. Rows are immutable once
// created except for status transitions performed by the external
// delivery worker.
type EmailNotification struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	RecipientEmail string
	Subject        string
	HTMLBody       string
	TextBody       string
	Type           NotificationType
	RequisitionID  uuid.UUID
	Status         EmailStatus
	Error          *string
	ClaimedAt      *time.Time
	SentAt         *time.Time
	CreatedAt      time.Time
}
