package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
)

// Repository manages persistence for customer ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.CustomerLedgerEntry) error
	ListByOrderID(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.CustomerLedgerEntry, error)
	ListByCustomerID(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.CustomerLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrderID(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.CustomerLedgerEntry, error) {
	var entries []models.CustomerLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND order_id = ?", organizationID, orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByCustomerID(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("organization_id = ? AND customer_id = ?", organizationID, customerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.CustomerLedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
