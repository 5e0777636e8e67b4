package cron

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

const debtSnapshotPageSize = 500

type customerPager interface {
	ListPage(ctx context.Context, organizationID uuid.UUID, afterID *uuid.UUID, limit int) ([]models.Customer, error)
}

type rowInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type DebtSnapshotJobParams struct {
	Logger    *logger.Logger
	Tenants   tenantLister
	Customers customerPager
	Warehouse rowInserter
	Table     string
	Every     time.Duration
}

// NewDebtSnapshotJob builds the nightly export of customer aggregates to the
// warehouse.
func NewDebtSnapshotJob(params DebtSnapshotJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant lister required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Warehouse == nil {
		return nil, fmt.Errorf("warehouse client required")
	}
	if params.Table == "" {
		return nil, fmt.Errorf("snapshot table required")
	}
	return &debtSnapshotJob{
		logg:      params.Logger,
		tenants:   params.Tenants,
		customers: params.Customers,
		warehouse: params.Warehouse,
		table:     params.Table,
		every:     params.Every,
		now:       time.Now,
	}, nil
}

type debtSnapshotJob struct {
	logg      *logger.Logger
	tenants   tenantLister
	customers customerPager
	warehouse rowInserter
	table     string
	every     time.Duration
	now       func() time.Time
}

func (j *debtSnapshotJob) Name() string { return "debt-snapshot" }

func (j *debtSnapshotJob) Every() time.Duration { return j.every }

func (j *debtSnapshotJob) Run(ctx context.Context) error {
	takenAt := j.now().UTC()
	exported := 0
	err := forEachTenant(ctx, j.tenants, j.logg, func(ctx context.Context, organizationID uuid.UUID) error {
		var after *uuid.UUID
		for {
			page, err := j.customers.ListPage(ctx, organizationID, after, debtSnapshotPageSize)
			if err != nil {
				return fmt.Errorf("list customers: %w", err)
			}
			if len(page) == 0 {
				return nil
			}
			rows := make([]any, 0, len(page))
			for _, customer := range page {
				rows = append(rows, debtSnapshotRow{customer: customer, takenAt: takenAt})
			}
			if err := j.warehouse.InsertRows(ctx, j.table, rows); err != nil {
				return fmt.Errorf("insert snapshot rows: %w", err)
			}
			exported += len(rows)
			if len(page) < debtSnapshotPageSize {
				return nil
			}
			last := page[len(page)-1].ID
			after = &last
		}
	})
	j.logg.Info(j.logg.WithField(ctx, "customers_exported", exported), "debt snapshot complete")
	return err
}

// debtSnapshotRow is one customer aggregate as stored in the warehouse.
// Money is exported as fixed two-decimal strings.
type debtSnapshotRow struct {
	customer models.Customer
	takenAt  time.Time
}

func (r debtSnapshotRow) Save() (map[string]bigquery.Value, string, error) {
	row := map[string]bigquery.Value{
		"snapshot_date":   bigquery.Value(r.takenAt.Format("2006-01-02")),
		"taken_at":        r.takenAt,
		"organization_id": r.customer.OrganizationID.String(),
		"customer_id":     r.customer.ID.String(),
		"total_spent":     r.customer.TotalSpent.StringFixed(2),
		"total_orders":    r.customer.TotalOrders,
		"debt":            r.customer.Debt.StringFixed(2),
		"last_order_at":   nil,
	}
	if r.customer.LastOrderAt != nil {
		row["last_order_at"] = *r.customer.LastOrderAt
	}
	// One row per customer per day; a rerun of the same day deduplicates.
	insertID := fmt.Sprintf("%s:%s", r.customer.ID, r.takenAt.Format("2006-01-02"))
	return row, insertID, nil
}
