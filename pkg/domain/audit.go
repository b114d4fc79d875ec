package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the engine.
const (
	AuditActionCreate           = "create"
	AuditActionStatusChange     = "status_change"
	AuditActionTransitionDenied = "transition_denied"
)

// AuditEntry is an immutable record of a mutating action. Old and new
// values are JSON snapshots of the affected fields. Entries are
// append-only; no update or delete path exists.
type AuditEntry struct {
	ID        uuid.UUID
	TableName string
	RecordID  uuid.UUID
	Action    string
	OldValues []byte
	NewValues []byte
	ActorID   uuid.UUID
	CreatedAt time.Time
}
