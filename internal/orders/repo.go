package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Find(ctx context.Context, organizationID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ? AND organization_id = ?", orderID, organizationID).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return db.Create(&items).Error
}

// UpdateIfStatus applies updates only while the order still has the expected
// status. False means the order moved or does not exist.
func (r *repository) UpdateIfStatus(ctx context.Context, organizationID, orderID uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND organization_id = ? AND status = ?", orderID, organizationID, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CompareAndSetStatus(ctx context.Context, organizationID, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error) {
	return r.UpdateIfStatus(ctx, organizationID, orderID, from, map[string]any{
		"status":     to,
		"updated_at": at,
	})
}

// AppendTransition numbers the transition after the order's last one. Callers
// hold the status CAS in the same transaction, so appends for one order never
// race; the unique (order_id, sequence) index backs that up.
func (r *repository) AppendTransition(ctx context.Context, transition *models.OrderStatusTransition) error {
	var last int
	err := r.db.WithContext(ctx).
		Model(&models.OrderStatusTransition{}).
		Where("order_id = ?", transition.OrderID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	if err != nil {
		return err
	}
	transition.Sequence = last + 1
	return r.db.WithContext(ctx).Create(transition).Error
}

func (r *repository) ListTransitions(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.OrderStatusTransition, error) {
	var rows []models.OrderStatusTransition
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND order_id = ?", organizationID, orderID).
		Order("sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SoftDeleteIfStatus(ctx context.Context, organizationID, orderID uuid.UUID, expected enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ? AND status = ?", orderID, organizationID, expected).
		Delete(&models.Order{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, organizationID uuid.UUID, params listParams) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("organization_id = ?", organizationID)

	f := params.Filters
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	if f.BranchID != nil {
		query = query.Where("branch_id = ?", *f.BranchID)
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", *f.DateTo)
	}
	if params.Cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(normalized)).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(orders, normalized, f.scope(), func(o models.Order) (time.Time, uuid.UUID) {
		return o.CreatedAt, o.ID
	})
	return page, next, nil
}
