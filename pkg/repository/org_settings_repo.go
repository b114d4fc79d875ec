package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// OrgSettingsRepository handles per-organization settings, including
// the item code counter. The counter advances in a single atomic
// statement; there is no read-then-write path.
type OrgSettingsRepository struct {
	db *sql.DB
}

// NewOrgSettingsRepository creates a new settings repository.
func NewOrgSettingsRepository(db *sql.DB) *OrgSettingsRepository {
	return &OrgSettingsRepository{db: db}
}

// Upsert creates or replaces an organization's settings row.
func (r *OrgSettingsRepository) Upsert(ctx context.Context, s *domain.OrgSettings) error {
	query := `
		INSERT INTO organization_settings (organization_id, item_code_prefix,
		                                   item_code_next_number, item_code_padding,
		                                   app_base_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (organization_id) DO UPDATE
		SET item_code_prefix = EXCLUDED.item_code_prefix,
		    item_code_next_number = EXCLUDED.item_code_next_number,
		    item_code_padding = EXCLUDED.item_code_padding,
		    app_base_url = EXCLUDED.app_base_url,
		    updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		s.OrganizationID, s.ItemCodePrefix, s.ItemCodeNextNumber,
		s.ItemCodePadding, s.AppBaseURL,
	)
	return err
}

// GetByOrgID retrieves an organization's settings.
func (r *OrgSettingsRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) (*domain.OrgSettings, error) {
	query := `
		SELECT organization_id, item_code_prefix, item_code_next_number,
		       item_code_padding, app_base_url, updated_at
		FROM organization_settings
		WHERE organization_id = $1
	`
	var s domain.OrgSettings
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(
		&s.OrganizationID, &s.ItemCodePrefix, &s.ItemCodeNextNumber,
		&s.ItemCodePadding, &s.AppBaseURL, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TakeNextItemNumber atomically increments the organization's item code
// counter and returns the prefix, the number taken, and the padding
// width. Concurrent callers each receive a distinct number with no gaps.
func (r *OrgSettingsRepository) TakeNextItemNumber(ctx context.Context, orgID uuid.UUID) (prefix string, number int64, padding int, err error) {
	query := `
		UPDATE organization_settings
		SET item_code_next_number = item_code_next_number + 1,
		    updated_at = NOW()
		WHERE organization_id = $1
		RETURNING item_code_prefix, item_code_next_number - 1, item_code_padding
	`
	err = r.db.QueryRowContext(ctx, query, orgID).Scan(&prefix, &number, &padding)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, 0, domain.ErrSettingsNotFound
	}
	if err != nil {
		return "", 0, 0, err
	}
	return prefix, number, padding, nil
}
