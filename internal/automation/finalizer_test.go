package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
)

func TestOutboxFinalizerQueuesOneRequestPerOrder(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:finalizer_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	order := models.Order{
		OrganizationID: uuid.New(),
		Code:           "ORD000001",
		CustomerID:     uuid.New(),
		BranchID:       uuid.New(),
		Channel:        enums.SalesChannelPOS,
		PaymentMethod:  enums.PaymentMethodCash,
		Status:         enums.OrderStatusCompleted,
		Total:          decimal.NewFromInt(220),
		PaidAmount:     decimal.NewFromInt(220),
		IsPaid:         true,
	}
	require.NoError(t, conn.Create(&order).Error)

	finalizer, err := NewOutboxFinalizer(db.Wrap(conn), orders.NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)

	evt := statusEvent(enums.OrderStatusDelivered, enums.OrderStatusCompleted)
	evt.OrderID = order.ID
	evt.OrganizationID = order.OrganizationID

	require.NoError(t, finalizer.Finalize(context.Background(), evt))
	require.NoError(t, finalizer.Finalize(context.Background(), evt))

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventOrderFinalizationRequested).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, order.ID, events[0].AggregateID)

	missing := statusEvent(enums.OrderStatusDelivered, enums.OrderStatusCompleted)
	missing.OrganizationID = order.OrganizationID
	err = finalizer.Finalize(context.Background(), missing)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
