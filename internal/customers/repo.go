package customers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
)

// Repository persists customer aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, organizationID, customerID uuid.UUID, delta Delta, lastOrderAt *time.Time, at time.Time) (bool, error)
	Get(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error)
	ListPage(ctx context.Context, organizationID uuid.UUID, afterID *uuid.UUID, limit int) ([]models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ApplyDelta adds the delta in one statement, flooring every aggregate at zero.
func (r *repository) ApplyDelta(ctx context.Context, organizationID, customerID uuid.UUID, delta Delta, lastOrderAt *time.Time, at time.Time) (bool, error) {
	updates := map[string]any{
		"total_spent":  clamped("total_spent", delta.Spent.String()),
		"total_orders": clamped("total_orders", delta.Orders),
		"debt":         clamped("debt", delta.Debt.String()),
		"updated_at":   at,
	}
	if lastOrderAt != nil {
		updates["last_order_at"] = *lastOrderAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND organization_id = ?", customerID, organizationID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func clamped(column string, delta any) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
}

func (r *repository) Get(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", customerID, organizationID).
		Take(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListPage walks customers in id order; afterID is the last id of the previous page.
func (r *repository) ListPage(ctx context.Context, organizationID uuid.UUID, afterID *uuid.UUID, limit int) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("id ASC")
	if afterID != nil {
		q = q.Where("id > ?", *afterID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Customer
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
