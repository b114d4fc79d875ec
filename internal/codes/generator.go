// Package codes issues per-organization item codes from a persisted
// counter. The increment happens in one atomic statement, so concurrent
// callers always receive distinct, gap-free numbers.
package codes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/repository"
)

// Generator formats item codes from the organization's settings row.
type Generator struct {
	settings *repository.OrgSettingsRepository
}

// NewGenerator creates a new item code generator.
func NewGenerator(settings *repository.OrgSettingsRepository) *Generator {
	return &Generator{settings: settings}
}

// Next takes the organization's next item number and formats it as
// PREFIX-NNN with the configured zero padding. Returns
// domain.ErrSettingsNotFound when the organization has no settings row.
func (g *Generator) Next(ctx context.Context, orgID uuid.UUID) (string, error) {
	prefix, number, padding, err := g.settings.TakeNextItemNumber(ctx, orgID)
	if err != nil {
		return "", err
	}
	return Format(prefix, number, padding), nil
}

// Format renders one item code. Padding is the minimum digit width;
// numbers wider than the padding are never truncated.
func Format(prefix string, number int64, padding int) string {
	return fmt.Sprintf("%s-%0*d", prefix, padding, number)
}
