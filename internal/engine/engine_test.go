package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type fixture struct {
	eng      *Engine
	client   *db.Client
	actor    orders.Actor
	customer models.Customer
	branch   models.Branch
	product  models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "engine-test", Output: io.Discard})

	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:engine_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Orders: config.OrdersConfig{CodeWidth: 6},
		Pricing: config.PricingConfig{
			FlatShippingFee:       "10.00",
			FreeShippingThreshold: "500.00",
			FreeShippingChannels:  []string{"pos", "pickup"},
		},
		Automation: config.AutomationConfig{Mode: config.AutomationInline},
	}
	eng, err := New(Params{Config: cfg, Logger: logg, DB: client, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	conn := client.DB()
	org := models.Organization{Name: "Mueblería Sur"}
	require.NoError(t, conn.Create(&org).Error)
	customer := models.Customer{OrganizationID: org.ID, Name: "Ana", IsActive: true}
	require.NoError(t, conn.Create(&customer).Error)
	branch := models.Branch{OrganizationID: org.ID, Name: "Centro", IsActive: true}
	require.NoError(t, conn.Create(&branch).Error)
	product := models.Product{OrganizationID: org.ID, SKU: "CHAIR", Name: "Chair", BasePrice: decimal.NewFromInt(100), IsActive: true}
	require.NoError(t, conn.Create(&product).Error)

	userID := uuid.New()
	return &fixture{
		eng:      eng,
		client:   client,
		actor:    orders.Actor{OrganizationID: org.ID, UserID: &userID, TraceID: "trace-e2e"},
		customer: customer,
		branch:   branch,
		product:  product,
	}
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	qty, err := f.eng.Inventory.Quantity(context.Background(), f.actor.OrganizationID, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	return qty
}

func (f *fixture) move(t *testing.T, orderID uuid.UUID, next enums.OrderStatus) {
	t.Helper()
	_, err := f.eng.Orders.UpdateStatus(context.Background(), orders.UpdateStatusInput{
		Actor:      f.actor,
		OrderID:    orderID,
		NextStatus: next,
	})
	require.NoError(t, err)
}

func TestInlineLifecycleReservesAndReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.Inventory.Adjust(ctx, inventory.AdjustInput{
		OrganizationID: f.actor.OrganizationID,
		ProductID:      f.product.ID,
		BranchID:       f.branch.ID,
		Quantity:       5,
		Reason:         enums.AdjustmentReasonManual,
	})
	require.NoError(t, err)

	order, err := f.eng.Orders.Create(ctx, orders.CreateOrderInput{
		Actor:         f.actor,
		CustomerID:    f.customer.ID,
		BranchID:      f.branch.ID,
		Channel:       enums.SalesChannelPOS,
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []orders.ItemInput{{ProductID: f.product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	f.move(t, order.ID, enums.OrderStatusConfirmed)
	f.move(t, order.ID, enums.OrderStatusProcessing)
	require.Equal(t, 2, f.stock(t))

	var reservations []models.OrderInventoryReservation
	require.NoError(t, f.client.DB().Where("order_id = ?", order.ID).Find(&reservations).Error)
	require.Len(t, reservations, 1)
	require.Equal(t, enums.ReservationStatusReserved, reservations[0].Status)
	require.Equal(t, 3, reservations[0].Quantity)

	var before models.Customer
	require.NoError(t, f.client.DB().First(&before, "id = ?", f.customer.ID).Error)

	f.move(t, order.ID, enums.OrderStatusCancelled)
	require.Equal(t, 5, f.stock(t))

	require.NoError(t, f.client.DB().Where("order_id = ?", order.ID).Find(&reservations).Error)
	require.Equal(t, enums.ReservationStatusReturned, reservations[0].Status)

	var after models.Customer
	require.NoError(t, f.client.DB().First(&after, "id = ?", f.customer.ID).Error)
	require.True(t, before.TotalSpent.Equal(after.TotalSpent))
	require.True(t, before.Debt.Equal(after.Debt))
	require.Equal(t, before.TotalOrders, after.TotalOrders)

	replay, err := f.eng.Inventory.Replay(ctx, f.actor.OrganizationID, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	require.True(t, replay.Consistent)
}

func TestScanFlagsReservationOfStaleOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.Inventory.Adjust(ctx, inventory.AdjustInput{
		OrganizationID: f.actor.OrganizationID,
		ProductID:      f.product.ID,
		BranchID:       f.branch.ID,
		Quantity:       5,
		Reason:         enums.AdjustmentReasonManual,
	})
	require.NoError(t, err)

	order, err := f.eng.Orders.Create(ctx, orders.CreateOrderInput{
		Actor:         f.actor,
		CustomerID:    f.customer.ID,
		BranchID:      f.branch.ID,
		Channel:       enums.SalesChannelPOS,
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []orders.ItemInput{{ProductID: f.product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	f.move(t, order.ID, enums.OrderStatusConfirmed)
	f.move(t, order.ID, enums.OrderStatusProcessing)

	createdAt := time.Now().UTC().Add(-45 * time.Minute)
	require.NoError(t, f.client.DB().Model(&models.Order{}).Where("id = ?", order.ID).Update("created_at", createdAt).Error)

	result, err := f.eng.Reconciliation.Scan(ctx, reconciliation.ScanInput{
		OrganizationID: f.actor.OrganizationID,
		MinAgeMinutes:  30,
		MinQuantity:    1,
		Limit:          100,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Detected)
	require.Len(t, result.Alerts, 1)
	require.Equal(t, enums.AlertStatusOpen, result.Alerts[0].Status)
	require.Equal(t, 2, result.Alerts[0].Quantity)
}
