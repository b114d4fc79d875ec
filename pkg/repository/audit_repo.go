package repository

import (
	"context"
	"database/sql"

	"github.com/procurehq/reqflow/pkg/domain"
)

// AuditRepository appends immutable audit entries. By policy there is
// no update or delete method: the audit trail is append-only, and a
// failed append aborts the surrounding mutation.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return r.CreateTx(ctx, r.db, entry)
}

// CreateTx appends an audit entry within a transaction, so the entry
// commits atomically with the mutation it records.
func (r *AuditRepository) CreateTx(ctx context.Context, q Querier, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, table_name, record_id, action, old_values,
		                       new_values, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.ExecContext(ctx, query,
		entry.ID, entry.TableName, entry.RecordID, entry.Action,
		entry.OldValues, entry.NewValues, entry.ActorID, entry.CreatedAt,
	)
	return err
}

// ListByRecord retrieves the audit trail for one record, oldest first.
func (r *AuditRepository) ListByRecord(ctx context.Context, tableName string, recordID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, table_name, record_id, action, old_values, new_values, actor_id, created_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2::uuid
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tableName, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		err := rows.Scan(
			&entry.ID, &entry.TableName, &entry.RecordID, &entry.Action,
			&entry.OldValues, &entry.NewValues, &entry.ActorID, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
