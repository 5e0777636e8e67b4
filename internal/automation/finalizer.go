package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderReader interface {
	Find(ctx context.Context, organizationID, orderID uuid.UUID) (*models.Order, error)
}

type onceEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OutboxFinalizer requests settlement by queueing a single
// order_finalization_requested event per order.
type OutboxFinalizer struct {
	tx     txRunner
	orders orderReader
	outbox onceEmitter
}

func NewOutboxFinalizer(tx txRunner, orders orderReader, emitter onceEmitter) (*OutboxFinalizer, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &OutboxFinalizer{tx: tx, orders: orders, outbox: emitter}, nil
}

func (f *OutboxFinalizer) Finalize(ctx context.Context, event payloads.OrderStatusChangedEvent) error {
	order, err := f.orders.Find(ctx, event.OrganizationID, event.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	return f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return f.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFinalizationRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			TraceID:       event.TraceID,
			Version:       1,
			Data: payloads.OrderFinalizationRequestedEvent{
				OrderID:        order.ID,
				OrganizationID: order.OrganizationID,
				Total:          order.Total,
				TraceID:        event.TraceID,
			},
		})
	})
}
