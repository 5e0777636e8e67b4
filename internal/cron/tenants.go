package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type tenantLister interface {
	ActiveOrganizationIDs(ctx context.Context) ([]uuid.UUID, error)
}

// forEachTenant runs fn once per active organization. A failing tenant is
// logged and the sweep continues; failures are combined in the result.
func forEachTenant(ctx context.Context, tenants tenantLister, logg *logger.Logger, fn func(ctx context.Context, organizationID uuid.UUID) error) error {
	ids, err := tenants.ActiveOrganizationIDs(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}
	var errs error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		tenantCtx := logg.WithOrganizationID(ctx, id.String())
		if err := fn(tenantCtx, id); err != nil {
			logg.Error(tenantCtx, "tenant pass failed", err)
			errs = multierr.Append(errs, fmt.Errorf("organization %s: %w", id, err))
		}
	}
	return errs
}
