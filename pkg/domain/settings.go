package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrgSettings holds per-organization configuration consumed by the
// item code generator and email content generator. One row per
// organization.
type OrgSettings struct {
	OrganizationID     uuid.UUID
	ItemCodePrefix     string
	ItemCodeNextNumber int64
	ItemCodePadding    int
	AppBaseURL         string
	UpdatedAt          time.Time
}
