package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/ledger"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*gorm.DB, Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:customers_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), ledgerSvc, func() time.Time { return fixedNow })
	require.NoError(t, err)
	return db, svc
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := models.Customer{OrganizationID: uuid.New(), Name: "Ana", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func snapshotFor(c models.Customer, subtotal, paid string, isPaid bool) Snapshot {
	sub := decimal.RequireFromString(subtotal)
	return Snapshot{
		OrganizationID: c.OrganizationID,
		CustomerID:     c.ID,
		OrderID:        uuid.New(),
		Subtotal:       sub,
		Tax:            sub.Mul(decimal.RequireFromString("0.10")).Round(2),
		Shipping:       decimal.Zero,
		Discount:       decimal.Zero,
		PaidAmount:     decimal.RequireFromString(paid),
		IsPaid:         isPaid,
	}
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, db.Where("id = ?", id).Take(&c).Error)
	return c
}

func TestSnapshotTotals(t *testing.T) {
	s := Snapshot{
		Subtotal:   decimal.RequireFromString("200"),
		Tax:        decimal.RequireFromString("20"),
		Shipping:   decimal.RequireFromString("10"),
		Discount:   decimal.RequireFromString("5"),
		PaidAmount: decimal.RequireFromString("300"),
	}
	assert.True(t, s.Total().Equal(decimal.RequireFromString("225")))
	assert.True(t, s.Outstanding().IsZero())
}

func TestApplyOrderCreated(t *testing.T) {
	db, svc := newTestService(t)
	customer := seedCustomer(t, db)

	entry, err := svc.ApplyOrderCreated(context.Background(), db, snapshotFor(customer, "200", "50", false))
	require.NoError(t, err)
	require.Equal(t, enums.LedgerEntryOrderCreated, entry.Kind)

	got := reload(t, db, customer.ID)
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("220")), got.TotalSpent.String())
	assert.Equal(t, 1, got.TotalOrders)
	assert.True(t, got.Debt.Equal(decimal.RequireFromString("170")), got.Debt.String())
	require.NotNil(t, got.LastOrderAt)
	assert.True(t, got.LastOrderAt.Equal(fixedNow))
}

func TestApplyOrderCreatedPaidAddsNoDebt(t *testing.T) {
	db, svc := newTestService(t)
	customer := seedCustomer(t, db)

	_, err := svc.ApplyOrderCreated(context.Background(), db, snapshotFor(customer, "100", "110", true))
	require.NoError(t, err)

	got := reload(t, db, customer.ID)
	assert.True(t, got.Debt.IsZero())
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("110")))
}

func TestApplyOrderEditedNoOpWritesNothing(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	snap := snapshotFor(customer, "200", "0", false)
	_, err := svc.ApplyOrderCreated(ctx, db, snap)
	require.NoError(t, err)

	entry, err := svc.ApplyOrderEdited(ctx, db, snap, snap)
	require.NoError(t, err)
	require.Nil(t, entry)

	var count int64
	require.NoError(t, db.Model(&models.CustomerLedgerEntry{}).Where("customer_id = ?", customer.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got := reload(t, db, customer.ID)
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("220")))
	assert.True(t, got.Debt.Equal(decimal.RequireFromString("220")))
}

func TestApplyOrderEditedAppliesDifference(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	prev := snapshotFor(customer, "200", "0", false)
	_, err := svc.ApplyOrderCreated(ctx, db, prev)
	require.NoError(t, err)

	next := prev
	next.Subtotal = decimal.RequireFromString("100")
	next.Tax = decimal.RequireFromString("10")

	entry, err := svc.ApplyOrderEdited(ctx, db, prev, next)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0, entry.OrdersDelta)

	got := reload(t, db, customer.ID)
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("110")), got.TotalSpent.String())
	assert.Equal(t, 1, got.TotalOrders)
	assert.True(t, got.Debt.Equal(decimal.RequireFromString("110")), got.Debt.String())
}

func TestApplyOrderEditedToPaidSettlesDebt(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	prev := snapshotFor(customer, "200", "0", false)
	_, err := svc.ApplyOrderCreated(ctx, db, prev)
	require.NoError(t, err)

	paid := prev
	paid.PaidAmount = decimal.RequireFromString("220")
	paid.IsPaid = true
	entry, err := svc.ApplyOrderEdited(ctx, db, prev, paid)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.DebtDelta.Equal(decimal.RequireFromString("-220")), entry.DebtDelta.String())

	got := reload(t, db, customer.ID)
	assert.True(t, got.Debt.IsZero(), got.Debt.String())
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("220")))

	_, err = svc.ApplyOrderDeleted(ctx, db, paid)
	require.NoError(t, err)
	got = reload(t, db, customer.ID)
	assert.True(t, got.Debt.IsZero(), got.Debt.String())
	assert.True(t, got.TotalSpent.IsZero())
	assert.Equal(t, 0, got.TotalOrders)
}

func TestApplyOrderEditedToUnpaidReopensDebt(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	prev := snapshotFor(customer, "100", "110", true)
	_, err := svc.ApplyOrderCreated(ctx, db, prev)
	require.NoError(t, err)

	next := prev
	next.PaidAmount = decimal.RequireFromString("10")
	next.IsPaid = false
	_, err = svc.ApplyOrderEdited(ctx, db, prev, next)
	require.NoError(t, err)

	got := reload(t, db, customer.ID)
	assert.True(t, got.Debt.Equal(decimal.RequireFromString("100")), got.Debt.String())
}

func TestApplyOrderDeletedClampsAtZero(t *testing.T) {
	db, svc := newTestService(t)
	customer := seedCustomer(t, db)

	_, err := svc.ApplyOrderDeleted(context.Background(), db, snapshotFor(customer, "500", "0", false))
	require.NoError(t, err)

	got := reload(t, db, customer.ID)
	assert.True(t, got.TotalSpent.IsZero())
	assert.Equal(t, 0, got.TotalOrders)
	assert.True(t, got.Debt.IsZero())
}

func TestApplyToMissingCustomer(t *testing.T) {
	db, svc := newTestService(t)
	missing := models.Customer{ID: uuid.New(), OrganizationID: uuid.New()}

	_, err := svc.ApplyOrderCreated(context.Background(), db, snapshotFor(missing, "10", "0", false))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestHistoryListsNewestFirst(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	snap := snapshotFor(customer, "50", "0", false)
	_, err := svc.ApplyOrderCreated(ctx, db, snap)
	require.NoError(t, err)
	_, err = svc.ApplyOrderDeleted(ctx, db, snap)
	require.NoError(t, err)

	entries, err := svc.History(ctx, customer.OrganizationID, customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = svc.History(ctx, uuid.New(), customer.ID, 10)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
