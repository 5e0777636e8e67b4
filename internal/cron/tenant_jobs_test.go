package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type fakeTenants struct {
	ids []uuid.UUID
	err error
}

func (f fakeTenants) ActiveOrganizationIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeScanner struct {
	scanFn func(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error)
	inputs []reconciliation.ScanInput
}

func (f *fakeScanner) Scan(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error) {
	f.inputs = append(f.inputs, input)
	return f.scanFn(ctx, input)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestReservationScanJobIsolatesFailingTenant(t *testing.T) {
	good, bad, later := uuid.New(), uuid.New(), uuid.New()
	scanner := &fakeScanner{scanFn: func(_ context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error) {
		if input.OrganizationID == bad {
			return nil, errors.New("db timeout")
		}
		return &reconciliation.ScanResult{Detected: 1}, nil
	}}
	job, err := NewReservationScanJob(ReservationScanJobParams{
		Logger:  testLogger(),
		Tenants: fakeTenants{ids: []uuid.UUID{good, bad, later}},
		Scanner: scanner,
		Config:  config.ReconciliationConfig{Interval: 15 * time.Minute, MinAgeMinutes: 30, MinQuantity: 1, Limit: 100},
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	require.Contains(t, err.Error(), bad.String())

	require.Len(t, scanner.inputs, 3)
	require.Equal(t, later, scanner.inputs[2].OrganizationID)
	require.Equal(t, 30, scanner.inputs[0].MinAgeMinutes)
	require.Equal(t, 100, scanner.inputs[0].Limit)
	require.Equal(t, 15*time.Minute, job.(Periodic).Every())
}

func TestTenantListingFailureAbortsJob(t *testing.T) {
	job, err := NewReservationScanJob(ReservationScanJobParams{
		Logger:  testLogger(),
		Tenants: fakeTenants{err: errors.New("down")},
		Scanner: &fakeScanner{},
	})
	require.NoError(t, err)
	require.ErrorContains(t, job.Run(context.Background()), "list organizations")
}

type fakeAuditor struct {
	drift map[uuid.UUID][]inventory.DriftRecord
	calls int
}

func (f *fakeAuditor) AuditDrift(_ context.Context, organizationID uuid.UUID, limit int) ([]inventory.DriftRecord, error) {
	f.calls++
	return f.drift[organizationID], nil
}

func TestInventoryDriftJobAuditsEveryTenant(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	auditor := &fakeAuditor{drift: map[uuid.UUID][]inventory.DriftRecord{
		a: {{ProductID: uuid.New(), BranchID: uuid.New(), Quantity: 4, Replayed: 5}},
	}}
	job, err := NewInventoryDriftJob(InventoryDriftJobParams{
		Logger:  testLogger(),
		Tenants: fakeTenants{ids: []uuid.UUID{a, b}},
		Auditor: auditor,
		Every:   6 * time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 2, auditor.calls)
}

type fakePager struct {
	customers []models.Customer
	afters    []*uuid.UUID
}

func (f *fakePager) ListPage(_ context.Context, _ uuid.UUID, afterID *uuid.UUID, limit int) ([]models.Customer, error) {
	f.afters = append(f.afters, afterID)
	start := 0
	if afterID != nil {
		for i, c := range f.customers {
			if c.ID == *afterID {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(f.customers))
	return f.customers[start:end], nil
}

type fakeWarehouse struct {
	table string
	rows  []any
	err   error
}

func (f *fakeWarehouse) InsertRows(_ context.Context, table string, rows []any) error {
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.err
}

func TestDebtSnapshotJobPagesThroughCustomers(t *testing.T) {
	org := uuid.New()
	customers := make([]models.Customer, debtSnapshotPageSize+2)
	for i := range customers {
		customers[i] = models.Customer{ID: uuid.New(), OrganizationID: org, TotalSpent: decimal.NewFromInt(220), TotalOrders: 1, Debt: decimal.NewFromInt(170)}
	}
	pager := &fakePager{customers: customers}
	warehouse := &fakeWarehouse{}
	jobIface, err := NewDebtSnapshotJob(DebtSnapshotJobParams{
		Logger:    testLogger(),
		Tenants:   fakeTenants{ids: []uuid.UUID{org}},
		Customers: pager,
		Warehouse: warehouse,
		Table:     "customer_debt_snapshots",
		Every:     24 * time.Hour,
	})
	require.NoError(t, err)
	job := jobIface.(*debtSnapshotJob)
	job.now = func() time.Time { return time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, warehouse.rows, len(customers))
	require.Equal(t, "customer_debt_snapshots", warehouse.table)
	require.Len(t, pager.afters, 2)
	require.Nil(t, pager.afters[0])
	require.Equal(t, customers[debtSnapshotPageSize-1].ID, *pager.afters[1])

	values, insertID, err := warehouse.rows[0].(debtSnapshotRow).Save()
	require.NoError(t, err)
	require.Equal(t, "170.00", values["debt"])
	require.Equal(t, "220.00", values["total_spent"])
	require.Equal(t, "2026-03-01", values["snapshot_date"])
	require.Equal(t, customers[0].ID.String()+":2026-03-01", insertID)
}

func TestDebtSnapshotJobReportsWarehouseFailure(t *testing.T) {
	org := uuid.New()
	job, err := NewDebtSnapshotJob(DebtSnapshotJobParams{
		Logger:    testLogger(),
		Tenants:   fakeTenants{ids: []uuid.UUID{org}},
		Customers: &fakePager{customers: []models.Customer{{ID: uuid.New(), OrganizationID: org}}},
		Warehouse: &fakeWarehouse{err: errors.New("quota")},
		Table:     "customer_debt_snapshots",
	})
	require.NoError(t, err)
	require.ErrorContains(t, job.Run(context.Background()), "insert snapshot rows")
}
