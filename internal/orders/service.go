// Package orders owns the order aggregate: pricing, PENDING edits, soft
// deletes and the status machine. Status changes never touch stock or the
// customer ledger directly; side effects react to order_status_changed.
package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/customers"
	"github.com/angelmondragon/backoffice-backend/internal/directory"
	"github.com/angelmondragon/backoffice-backend/internal/pricing"
	"github.com/angelmondragon/backoffice-backend/internal/sequences"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error)
	Delete(ctx context.Context, input DeleteOrderInput) error
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusResult, error)
	Get(ctx context.Context, organizationID, orderID uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, organizationID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	History(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.OrderStatusTransition, error)
}

// ServiceParams groups the collaborators of the order service. Listener is
// optional; without it side effects are driven from the outbox only.
type ServiceParams struct {
	Repo      Repository
	Directory directory.Repository
	Pricing   pricing.Calculator
	Sequences sequences.Allocator
	Customers customerLedger
	Tx        txRunner
	Outbox    outbox.Emitter
	Listener  StatusListener
	Now       func() time.Time
}

type service struct {
	repo      Repository
	directory directory.Repository
	pricing   pricing.Calculator
	sequences sequences.Allocator
	customers customerLedger
	tx        txRunner
	outbox    outbox.Emitter
	listener  StatusListener
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Sequences == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer ledger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		directory: params.Directory,
		pricing:   params.Pricing,
		sequences: params.Sequences,
		customers: params.Customers,
		tx:        params.Tx,
		outbox:    params.Outbox,
		listener:  params.Listener,
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	orgID := input.Actor.OrganizationID
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, fieldError("customer_id", "customer is required")
	}
	if input.BranchID == uuid.Nil {
		return nil, fieldError("branch_id", "branch is required")
	}
	if !input.Channel.IsValid() {
		return nil, fieldError("channel", "invalid sales channel")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, fieldError("payment_method", "invalid payment method")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		dir := s.directory.WithTx(tx)
		if _, err := dir.Customer(ctx, orgID, input.CustomerID); err != nil {
			return err
		}
		if _, err := dir.Branch(ctx, orgID, input.BranchID); err != nil {
			return err
		}
		items, subtotal, err := priceItems(ctx, dir, orgID, input.BranchID, input.Items)
		if err != nil {
			return err
		}

		shipping, freeShip, err := s.shippingFor(ctx, orgID, input.Channel, subtotal, input.Shipping)
		if err != nil {
			return err
		}
		totals, err := computeTotals(subtotal, shipping, valueOr(input.Discount, decimal.Zero), freeShip, input.PaidAmount, input.IsPaid)
		if err != nil {
			return err
		}

		code, err := s.sequences.Next(ctx, tx, orgID, sequences.ScopeOrder)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order code")
		}

		order := &models.Order{
			OrganizationID:  orgID,
			Code:            code,
			CustomerID:      input.CustomerID,
			BranchID:        input.BranchID,
			Channel:         input.Channel,
			PaymentMethod:   input.PaymentMethod,
			Status:          enums.OrderStatusPending,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
			CreatedBy:       input.Actor.UserID,
			Items:           items,
			CreatedAt:       s.now(),
		}
		totals.apply(order)

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if _, err := s.customers.ApplyOrderCreated(ctx, tx, customers.SnapshotOf(order)); err != nil {
			return err
		}

		event := s.orderEvent(input.Actor, order.ID, enums.EventOrderCreated, payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			OrganizationID: orgID,
			Code:           order.Code,
			CustomerID:     order.CustomerID,
			BranchID:       order.BranchID,
			Channel:        order.Channel,
			Total:          order.Total,
			PaidAmount:     order.PaidAmount,
			IsPaid:         order.IsPaid,
			ItemCount:      len(order.Items),
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error) {
	orgID := input.Actor.OrganizationID
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, fieldError("order_id", "order id required")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, fieldError("payment_method", "invalid payment method")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orgID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be edited").
				WithDetails(map[string]any{"status": order.Status})
		}
		prev := customers.SnapshotOf(order)

		subtotal := order.Subtotal
		shipping, freeShip := order.Shipping, order.FreeShipApplied
		var newItems []models.OrderItem
		if input.Items != nil {
			newItems, subtotal, err = priceItems(ctx, s.directory.WithTx(tx), orgID, order.BranchID, *input.Items)
			if err != nil {
				return err
			}
			shipping, freeShip, err = s.shippingFor(ctx, orgID, order.Channel, subtotal, input.Shipping)
			if err != nil {
				return err
			}
		} else if input.Shipping != nil {
			shipping, freeShip = *input.Shipping, false
		}

		isPaid := valueOr(input.IsPaid, order.IsPaid)
		paid := input.PaidAmount
		if paid == nil && !isPaid {
			paid = &order.PaidAmount
		}
		totals, err := computeTotals(subtotal, shipping, valueOr(input.Discount, order.Discount), freeShip, paid, isPaid)
		if err != nil {
			return err
		}

		next := *order
		totals.apply(&next)
		if input.PaymentMethod != nil {
			next.PaymentMethod = *input.PaymentMethod
		}
		if input.Notes != nil {
			next.Notes = input.Notes
		}
		if input.ShippingAddress != nil {
			next.ShippingAddress = input.ShippingAddress
		}
		next.UpdatedAt = s.now()

		ok, err := repo.UpdateIfStatus(ctx, orgID, order.ID, enums.OrderStatusPending, map[string]any{
			"subtotal":          next.Subtotal,
			"tax":               next.Tax,
			"shipping":          next.Shipping,
			"discount":          next.Discount,
			"total":             next.Total,
			"paid_amount":       next.PaidAmount,
			"is_paid":           next.IsPaid,
			"free_ship_applied": next.FreeShipApplied,
			"payment_method":    next.PaymentMethod,
			"notes":             next.Notes,
			"shipping_address":  next.ShippingAddress,
			"updated_at":        next.UpdatedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}
		if input.Items != nil {
			if err := repo.ReplaceItems(ctx, order.ID, newItems); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
			}
			next.Items = newItems
		}

		if _, err := s.customers.ApplyOrderEdited(ctx, tx, prev, customers.SnapshotOf(&next)); err != nil {
			return err
		}

		event := s.orderEvent(input.Actor, order.ID, enums.EventOrderUpdated, payloads.OrderUpdatedEvent{
			OrderID:        order.ID,
			OrganizationID: orgID,
			PreviousTotal:  order.Total,
			Total:          next.Total,
			ItemsReplaced:  input.Items != nil,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order updated event")
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, input DeleteOrderInput) error {
	orgID := input.Actor.OrganizationID
	if orgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.OrderID == uuid.Nil {
		return fieldError("order_id", "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orgID, input.OrderID)
		if err != nil {
			return err
		}
		if !slices.Contains(deletableStatuses, order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be deleted in its current status").
				WithDetails(map[string]any{"status": order.Status, "deletable_statuses": deletableStatuses})
		}
		ok, err := repo.SoftDeleteIfStatus(ctx, orgID, order.ID, order.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}

		// A cancelled order keeps its ledger contribution.
		reverted := false
		if order.Status == enums.OrderStatusPending {
			if _, err := s.customers.ApplyOrderDeleted(ctx, tx, customers.SnapshotOf(order)); err != nil {
				return err
			}
			reverted = true
		}

		event := s.orderEvent(input.Actor, order.ID, enums.EventOrderDeleted, payloads.OrderDeletedEvent{
			OrderID:        order.ID,
			OrganizationID: orgID,
			Status:         order.Status,
			LedgerReverted: reverted,
			DeletedAt:      s.now(),
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order deleted event")
		}
		return nil
	})
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusResult, error) {
	orgID := input.Actor.OrganizationID
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, fieldError("order_id", "order id required")
	}
	if !input.NextStatus.IsValid() {
		return nil, fieldError("status", "invalid order status")
	}

	var changed payloads.OrderStatusChangedEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orgID, input.OrderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot transition from %s to %s", order.Status, input.NextStatus)).
				WithDetails(map[string]any{
					"current_status":      order.Status,
					"requested_status":    input.NextStatus,
					"allowed_transitions": AllowedNext(order.Status),
				})
		}

		at := s.now()
		ok, err := repo.CompareAndSetStatus(ctx, orgID, order.ID, order.Status, input.NextStatus, at)
		if err != nil {
			return db.StoreError(err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently").
				WithDetails(map[string]any{"expected_status": order.Status})
		}
		if err := repo.AppendTransition(ctx, &models.OrderStatusTransition{
			OrganizationID: orgID,
			OrderID:        order.ID,
			FromStatus:     order.Status,
			ToStatus:       input.NextStatus,
			ActorID:        input.Actor.UserID,
			TraceID:        input.Actor.TraceID,
			CreatedAt:      at,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status transition")
		}

		changed = payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrganizationID: orgID,
			PreviousStatus: order.Status,
			NextStatus:     input.NextStatus,
			ActorID:        input.Actor.UserID,
			TraceID:        input.Actor.TraceID,
			ChangedAt:      at,
		}
		event := s.orderEvent(input.Actor, order.ID, enums.EventOrderStatusChanged, changed)
		event.OccurredAt = at
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status changed event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.listener != nil {
		s.listener.OnStatusChanged(ctx, changed)
	}

	return &StatusResult{
		OrderID:        changed.OrderID,
		PreviousStatus: changed.PreviousStatus,
		Status:         changed.NextStatus,
		ChangedAt:      changed.ChangedAt,
	}, nil
}

func (s *service) Get(ctx context.Context, organizationID, orderID uuid.UUID) (*OrderDetail, error) {
	if organizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	order, err := s.load(ctx, s.repo, organizationID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, AllowedNext: AllowedNext(order.Status)}, nil
}

func (s *service) List(ctx context.Context, organizationID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if organizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, fieldError("status", "invalid order status")
	}

	query := listParams{Limit: params.Limit, Filters: filters}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor, filters.scope())
		if errors.Is(err, pagination.ErrFilterMismatch) {
			return nil, fieldError("cursor", "cursor does not match the current filters")
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, organizationID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, summaryOf(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) History(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.OrderStatusTransition, error) {
	if _, err := s.load(ctx, s.repo, organizationID, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTransitions(ctx, organizationID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list status transitions")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, repo Repository, organizationID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.Find(ctx, organizationID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// shippingFor returns the override when given, otherwise asks the pricing
// collaborator.
func (s *service) shippingFor(ctx context.Context, organizationID uuid.UUID, channel enums.SalesChannel, subtotal decimal.Decimal, override *decimal.Decimal) (decimal.Decimal, bool, error) {
	if override != nil {
		return *override, false, nil
	}
	quote, err := s.pricing.ComputeShipping(ctx, organizationID, channel, subtotal)
	if err != nil {
		return decimal.Zero, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute shipping")
	}
	return quote.Fee, quote.FreeShipApplied, nil
}

func (s *service) orderEvent(actor Actor, orderID uuid.UUID, eventType enums.OutboxEventType, data any) outbox.DomainEvent {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		TraceID:       actor.TraceID,
		Version:       1,
		OccurredAt:    s.now(),
		Data:          data,
	}
	if actor.UserID != nil {
		event.Actor = &outbox.ActorRef{
			UserID:         *actor.UserID,
			OrganizationID: actor.OrganizationID,
			BranchID:       actor.BranchID,
			Role:           actor.Role,
		}
	}
	return event
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
