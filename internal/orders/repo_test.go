package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

func TestCompareAndSetStatusOnlyOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order, err := h.svc.Create(ctx, h.createInput(1))
	require.NoError(t, err)

	repo := NewRepository(h.db)
	at := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	won, err := repo.CompareAndSetStatus(ctx, h.actor.OrganizationID, order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed, at)
	require.NoError(t, err)
	require.True(t, won)

	lost, err := repo.CompareAndSetStatus(ctx, h.actor.OrganizationID, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, at)
	require.NoError(t, err)
	require.False(t, lost)

	var stored models.Order
	require.NoError(t, h.db.Where("id = ?", order.ID).Take(&stored).Error)
	require.Equal(t, enums.OrderStatusConfirmed, stored.Status)
}

// The loser of two status changes read from the same state gets CONFLICT,
// not a second transition.
func TestUpdateStatusLosingWriterGetsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order, err := h.svc.Create(ctx, h.createInput(1))
	require.NoError(t, err)

	params := h.params
	params.Listener = nil
	params.Repo = &racingRepository{
		Repository: NewRepository(h.db),
		before: func(repo Repository) {
			ok, err := repo.CompareAndSetStatus(ctx, h.actor.OrganizationID, order.ID,
				enums.OrderStatusPending, enums.OrderStatusCancelled, params.Now())
			require.NoError(t, err)
			require.True(t, ok)
		},
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{Actor: h.actor, OrderID: order.ID, NextStatus: enums.OrderStatusConfirmed})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	history, err := h.svc.History(ctx, h.actor.OrganizationID, order.ID)
	require.NoError(t, err)
	require.Empty(t, history)

	var events int64
	require.NoError(t, h.db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&events).Error)
	require.Zero(t, events)
}

func TestAppendTransitionNumbersPerOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.svc.Create(ctx, h.createInput(1))
	require.NoError(t, err)
	second, err := h.svc.Create(ctx, h.createInput(1))
	require.NoError(t, err)

	h.advance(t, first.ID, enums.OrderStatusConfirmed, enums.OrderStatusProcessing)
	h.advance(t, second.ID, enums.OrderStatusCancelled)

	var rows []models.OrderStatusTransition
	require.NoError(t, h.db.Where("order_id = ?", second.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].Sequence)

	dup := models.OrderStatusTransition{
		OrganizationID: h.actor.OrganizationID,
		OrderID:        second.ID,
		Sequence:       1,
		FromStatus:     enums.OrderStatusPending,
		ToStatus:       enums.OrderStatusCancelled,
	}
	require.Error(t, h.db.Create(&dup).Error)
}

// racingRepository moves the order between the service's read and its
// compare-and-set, the way a concurrent writer would.
type racingRepository struct {
	Repository
	before func(repo Repository)
}

func (r *racingRepository) WithTx(tx *gorm.DB) Repository {
	return &racingRepository{Repository: r.Repository.WithTx(tx), before: r.before}
}

func (r *racingRepository) CompareAndSetStatus(ctx context.Context, organizationID, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error) {
	if r.before != nil {
		before := r.before
		r.before = nil
		before(r.Repository)
	}
	return r.Repository.CompareAndSetStatus(ctx, organizationID, orderID, from, to, at)
}
