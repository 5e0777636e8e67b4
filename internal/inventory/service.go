// Package inventory is the single choke point for stock mutations. Every
// change goes through a guarded counter update and is recorded as an
// immutable StockAdjustment, so the counter can always be replayed from
// adjustment items.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/directory"
	"github.com/angelmondragon/backoffice-backend/internal/sequences"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/money"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the inventory ledger.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	Transfer(ctx context.Context, input TransferInput) (*models.Transfer, error)
	ReserveForOrder(ctx context.Context, input ReserveInput) (*ReserveResult, error)
	ReleaseForOrder(ctx context.Context, input ReleaseInput) (*ReleaseResult, error)
	Quantity(ctx context.Context, organizationID, productID, branchID uuid.UUID) (int, error)
	Replay(ctx context.Context, organizationID, productID, branchID uuid.UUID) (*ReplayResult, error)
	AuditDrift(ctx context.Context, organizationID uuid.UUID, limit int) ([]DriftRecord, error)
}

// ServiceParams groups the collaborators of the inventory service.
type ServiceParams struct {
	Repo      Repository
	Directory directory.Repository
	Tx        txRunner
	Sequences sequences.Allocator
	Outbox    outbox.Emitter
	Metrics   *metrics.InventoryMetrics
	Now       func() time.Time
}

type service struct {
	repo      Repository
	directory directory.Repository
	tx        txRunner
	sequences sequences.Allocator
	outbox    outbox.Emitter
	metrics   *metrics.InventoryMetrics
	now       func() time.Time
}

// adjustRequest is one stock movement applied inside an open transaction.
type adjustRequest struct {
	key     RecordKey
	delta   int
	reason  enums.AdjustmentReason
	actorID *uuid.UUID
	orderID *uuid.UUID
	notes   *string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Sequences == nil {
		return nil, fmt.Errorf("sequence allocator required")
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
		tx:        params.Tx,
		sequences: params.Sequences,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.ProductID == uuid.Nil || input.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and branch are required")
	}
	if input.Quantity == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	if input.Reason == "" {
		input.Reason = enums.AdjustmentReasonManual
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment reason")
	}

	var result *AdjustResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		dir := s.directory.WithTx(tx)
		if _, err := dir.Product(ctx, input.OrganizationID, input.ProductID); err != nil {
			return err
		}
		if _, err := dir.Branch(ctx, input.OrganizationID, input.BranchID); err != nil {
			return err
		}
		res, err := s.adjustTx(ctx, tx, adjustRequest{
			key:     RecordKey{OrganizationID: input.OrganizationID, ProductID: input.ProductID, BranchID: input.BranchID},
			delta:   input.Quantity,
			reason:  input.Reason,
			actorID: input.ActorID,
			notes:   input.Notes,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// adjustTx is the only path that writes inventory_records.quantity.
func (s *service) adjustTx(ctx context.Context, tx *gorm.DB, req adjustRequest) (*AdjustResult, error) {
	repo := s.repo.WithTx(tx)
	at := s.now()

	if err := repo.EnsureRecord(ctx, req.key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure inventory record")
	}
	applied, err := repo.ApplyDelta(ctx, req.key, req.delta, at)
	if err != nil {
		return nil, db.StoreError(err, "apply stock delta")
	}
	if !applied {
		current, qErr := repo.Quantity(ctx, req.key)
		if qErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, qErr, "read inventory record")
		}
		s.metrics.IncInsufficientStock(string(req.reason))
		return nil, insufficientStock(req.key, current, -req.delta)
	}
	newQty, err := repo.Quantity(ctx, req.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory record")
	}
	oldQty := newQty - req.delta

	code, err := s.sequences.Next(ctx, tx, req.key.OrganizationID, sequences.ScopeAdjustment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate adjustment code")
	}
	adjustment := models.StockAdjustment{
		OrganizationID: req.key.OrganizationID,
		Code:           code,
		BranchID:       req.key.BranchID,
		Type:           enums.AdjustmentTypeFor(req.delta),
		Reason:         req.reason,
		ActorID:        req.actorID,
		OrderID:        req.orderID,
		Notes:          req.notes,
		CreatedAt:      at,
		Items: []models.StockAdjustmentItem{{
			OrganizationID: req.key.OrganizationID,
			ProductID:      req.key.ProductID,
			BranchID:       req.key.BranchID,
			OldQuantity:    oldQty,
			NewQuantity:    newQty,
			Difference:     req.delta,
			CreatedAt:      at,
		}},
	}
	if err := repo.CreateAdjustment(ctx, &adjustment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock adjustment")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateStockAdjustment,
		AggregateID:   adjustment.ID,
		Version:       1,
		OccurredAt:    at,
		Data: payloads.StockAdjustedEvent{
			AdjustmentID:   adjustment.ID,
			OrganizationID: adjustment.OrganizationID,
			Code:           adjustment.Code,
			BranchID:       adjustment.BranchID,
			Type:           adjustment.Type,
			Reason:         adjustment.Reason,
			OrderID:        adjustment.OrderID,
			Items: []payloads.StockAdjustedItem{{
				ProductID:   req.key.ProductID,
				OldQuantity: oldQty,
				NewQuantity: newQty,
				Difference:  req.delta,
			}},
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit stock adjusted event")
	}

	return &AdjustResult{Adjustment: adjustment, OldQuantity: oldQty, NewQuantity: newQty}, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*models.Transfer, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.ProductID == uuid.Nil || input.FromBranchID == uuid.Nil || input.ToBranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product, source and destination branch are required")
	}
	if input.FromBranchID == input.ToBranchID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination branch must differ")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitValue != nil && input.UnitValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit value must be non-negative")
	}

	var transfer *models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		dir := s.directory.WithTx(tx)
		product, err := dir.Product(ctx, input.OrganizationID, input.ProductID)
		if err != nil {
			return err
		}
		if _, err := dir.Branch(ctx, input.OrganizationID, input.FromBranchID); err != nil {
			return err
		}
		if _, err := dir.Branch(ctx, input.OrganizationID, input.ToBranchID); err != nil {
			return err
		}

		out, err := s.adjustTx(ctx, tx, adjustRequest{
			key:     RecordKey{OrganizationID: input.OrganizationID, ProductID: input.ProductID, BranchID: input.FromBranchID},
			delta:   -input.Quantity,
			reason:  enums.AdjustmentReasonTransferOut,
			actorID: input.ActorID,
		})
		if err != nil {
			return err
		}
		in, err := s.adjustTx(ctx, tx, adjustRequest{
			key:     RecordKey{OrganizationID: input.OrganizationID, ProductID: input.ProductID, BranchID: input.ToBranchID},
			delta:   input.Quantity,
			reason:  enums.AdjustmentReasonTransferIn,
			actorID: input.ActorID,
		})
		if err != nil {
			return err
		}

		unitValue := product.UnitCost
		if input.UnitValue != nil {
			unitValue = *input.UnitValue
		}
		unitValue = money.Round(unitValue)

		code, err := s.sequences.Next(ctx, tx, input.OrganizationID, sequences.ScopeTransfer)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate transfer code")
		}
		row := &models.Transfer{
			OrganizationID:  input.OrganizationID,
			Code:            code,
			ProductID:       input.ProductID,
			FromBranchID:    input.FromBranchID,
			ToBranchID:      input.ToBranchID,
			Quantity:        input.Quantity,
			UnitValue:       unitValue,
			TotalValue:      money.Round(unitValue.Mul(decimal.NewFromInt(int64(input.Quantity)))),
			Status:          enums.TransferStatusCompleted,
			OutAdjustmentID: out.Adjustment.ID,
			InAdjustmentID:  in.Adjustment.ID,
			ActorID:         input.ActorID,
		}
		if err := s.repo.WithTx(tx).CreateTransfer(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transfer")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventStockTransferred,
			AggregateType: enums.AggregateTransfer,
			AggregateID:   row.ID,
			Version:       1,
			Data: payloads.StockTransferredEvent{
				TransferID:     row.ID,
				OrganizationID: row.OrganizationID,
				Code:           row.Code,
				ProductID:      row.ProductID,
				FromBranchID:   row.FromBranchID,
				ToBranchID:     row.ToBranchID,
				Quantity:       row.Quantity,
				TotalValue:     row.TotalValue,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit stock transferred event")
		}
		transfer = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *service) ReserveForOrder(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	if input.OrganizationID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization and order are required")
	}

	result := &ReserveResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.CountReservations(ctx, input.OrganizationID, input.OrderID, enums.ReservationStatusReserved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reservations")
		}
		if existing > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already has reserved stock").
				WithDetails(map[string]any{"order_id": input.OrderID.String(), "reserved_rows": existing})
		}

		order, err := repo.FindOrder(ctx, input.OrganizationID, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items to reserve")
		}

		for _, item := range order.Items {
			adj, err := s.adjustTx(ctx, tx, adjustRequest{
				key:     RecordKey{OrganizationID: order.OrganizationID, ProductID: item.ProductID, BranchID: item.BranchID},
				delta:   -item.Quantity,
				reason:  enums.AdjustmentReasonOrderReservation,
				actorID: input.ActorID,
				orderID: &order.ID,
			})
			if err != nil {
				return err
			}
			variantQty := 0
			if item.VariantID != nil {
				variantQty = item.Quantity
			}
			reservation := models.OrderInventoryReservation{
				OrganizationID:  order.OrganizationID,
				OrderID:         order.ID,
				OrderItemID:     item.ID,
				ProductID:       item.ProductID,
				VariantID:       item.VariantID,
				BranchID:        item.BranchID,
				Quantity:        item.Quantity,
				VariantQuantity: variantQty,
				Status:          enums.ReservationStatusReserved,
				AdjustmentID:    adj.Adjustment.ID,
			}
			if err := repo.CreateReservation(ctx, &reservation); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reservation")
			}
			result.Reservations = append(result.Reservations, reservation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ReleaseForOrder(ctx context.Context, input ReleaseInput) (*ReleaseResult, error) {
	if input.OrganizationID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization and order are required")
	}
	if !input.Outcome.IsReleaseOutcome() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release outcome must be RELEASED or RETURNED")
	}

	result := &ReleaseResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListReservations(ctx, input.OrganizationID, input.OrderID, enums.ReservationStatusReserved, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
		}
		for _, row := range rows {
			orderID := row.OrderID
			adj, err := s.adjustTx(ctx, tx, adjustRequest{
				key:     RecordKey{OrganizationID: row.OrganizationID, ProductID: row.ProductID, BranchID: row.BranchID},
				delta:   row.Quantity,
				reason:  enums.AdjustmentReasonOrderRelease,
				actorID: input.ActorID,
				orderID: &orderID,
			})
			if err != nil {
				return err
			}
			ok, err := repo.MarkReservation(ctx, row.ID, input.Outcome, adj.Adjustment.ID, s.now())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "reservation released concurrently")
			}
			result.Released++
			result.Quantity += row.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Quantity(ctx context.Context, organizationID, productID, branchID uuid.UUID) (int, error) {
	qty, err := s.repo.Quantity(ctx, RecordKey{OrganizationID: organizationID, ProductID: productID, BranchID: branchID})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory record")
	}
	return qty, nil
}

func (s *service) Replay(ctx context.Context, organizationID, productID, branchID uuid.UUID) (*ReplayResult, error) {
	key := RecordKey{OrganizationID: organizationID, ProductID: productID, BranchID: branchID}
	counter, err := s.repo.Quantity(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory record")
	}
	sum, items, err := s.repo.SumDifferences(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replay adjustments")
	}
	return &ReplayResult{
		OrganizationID: organizationID,
		ProductID:      productID,
		BranchID:       branchID,
		Counter:        counter,
		Replayed:       sum,
		ItemCount:      items,
		Consistent:     int64(counter) == sum,
	}, nil
}

func (s *service) AuditDrift(ctx context.Context, organizationID uuid.UUID, limit int) ([]DriftRecord, error) {
	rows, err := s.repo.ListDrift(ctx, organizationID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "audit inventory drift")
	}
	s.metrics.AddDrift(len(rows))
	return rows, nil
}

func insufficientStock(key RecordKey, current, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id":         key.ProductID.String(),
			"branch_id":          key.BranchID.String(),
			"current_quantity":   current,
			"requested_quantity": requested,
		})
}
