package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Repository owns the SQL behind the inventory ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureRecord(ctx context.Context, key RecordKey) error
	ApplyDelta(ctx context.Context, key RecordKey, delta int, at time.Time) (bool, error)
	Quantity(ctx context.Context, key RecordKey) (int, error)
	CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error
	SumDifferences(ctx context.Context, key RecordKey) (sum int64, items int64, err error)
	ListDrift(ctx context.Context, organizationID uuid.UUID, limit int) ([]DriftRecord, error)

	FindOrder(ctx context.Context, organizationID, orderID uuid.UUID) (*models.Order, error)
	CountReservations(ctx context.Context, organizationID, orderID uuid.UUID, status enums.ReservationStatus) (int64, error)
	ListReservations(ctx context.Context, organizationID, orderID uuid.UUID, status enums.ReservationStatus, forUpdate bool) ([]models.OrderInventoryReservation, error)
	CreateReservation(ctx context.Context, reservation *models.OrderInventoryReservation) error
	MarkReservation(ctx context.Context, id uuid.UUID, outcome enums.ReservationStatus, releaseAdjustmentID uuid.UUID, at time.Time) (bool, error)

	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
}

// RecordKey addresses one inventory counter.
type RecordKey struct {
	OrganizationID uuid.UUID
	ProductID      uuid.UUID
	BranchID       uuid.UUID
}

// DriftRecord is a counter that no longer matches its adjustment history.
type DriftRecord struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	BranchID  uuid.UUID `gorm:"column:branch_id"`
	Quantity  int       `gorm:"column:quantity"`
	Replayed  int64     `gorm:"column:replayed"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) EnsureRecord(ctx context.Context, key RecordKey) error {
	record := models.InventoryRecord{
		OrganizationID: key.OrganizationID,
		ProductID:      key.ProductID,
		BranchID:       key.BranchID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}

// ApplyDelta moves the counter only when the result stays non-negative. A
// false result means the guard rejected the change.
func (r *repository) ApplyDelta(ctx context.Context, key RecordKey, delta int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE inventory_records
		    SET quantity = quantity + ?, updated_at = ?
		  WHERE organization_id = ? AND product_id = ? AND branch_id = ?
		    AND quantity + ? >= 0`,
		delta, at, key.OrganizationID, key.ProductID, key.BranchID, delta,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Quantity(ctx context.Context, key RecordKey) (int, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND product_id = ? AND branch_id = ?", key.OrganizationID, key.ProductID, key.BranchID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) SumDifferences(ctx context.Context, key RecordKey) (int64, int64, error) {
	var row struct {
		Total int64
		Items int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.StockAdjustmentItem{}).
		Select("COALESCE(SUM(difference), 0) AS total, COUNT(*) AS items").
		Where("organization_id = ? AND product_id = ? AND branch_id = ?", key.OrganizationID, key.ProductID, key.BranchID).
		Scan(&row).Error
	return row.Total, row.Items, err
}

func (r *repository) ListDrift(ctx context.Context, organizationID uuid.UUID, limit int) ([]DriftRecord, error) {
	var rows []DriftRecord
	q := r.db.WithContext(ctx).
		Table("inventory_records AS r").
		Select(`r.product_id, r.branch_id, r.quantity,
			COALESCE((SELECT SUM(i.difference) FROM stock_adjustment_items i
			  WHERE i.organization_id = r.organization_id
			    AND i.product_id = r.product_id
			    AND i.branch_id = r.branch_id), 0) AS replayed`).
		Where("r.organization_id = ?", organizationID).
		Where(`r.quantity <> COALESCE((SELECT SUM(i.difference) FROM stock_adjustment_items i
			  WHERE i.organization_id = r.organization_id
			    AND i.product_id = r.product_id
			    AND i.branch_id = r.branch_id), 0)`).
		Order("r.product_id, r.branch_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&rows).Error
	return rows, err
}

func (r *repository) FindOrder(ctx context.Context, organizationID, orderID uuid.UUID) (*models.Order, error) {
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

func (r *repository) CountReservations(ctx context.Context, organizationID, orderID uuid.UUID, status enums.ReservationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderInventoryReservation{}).
		Where("organization_id = ? AND order_id = ? AND status = ?", organizationID, orderID, status).
		Count(&count).Error
	return count, err
}

func (r *repository) ListReservations(ctx context.Context, organizationID, orderID uuid.UUID, status enums.ReservationStatus, forUpdate bool) ([]models.OrderInventoryReservation, error) {
	q := r.db.WithContext(ctx).
		Where("organization_id = ? AND order_id = ? AND status = ?", organizationID, orderID, status).
		Order("created_at ASC, id ASC")
	if forUpdate && r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.OrderInventoryReservation
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) CreateReservation(ctx context.Context, reservation *models.OrderInventoryReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// MarkReservation flips a RESERVED row to its release outcome. False means
// another writer released it first.
func (r *repository) MarkReservation(ctx context.Context, id uuid.UUID, outcome enums.ReservationStatus, releaseAdjustmentID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderInventoryReservation{}).
		Where("id = ? AND status = ?", id, enums.ReservationStatusReserved).
		Updates(map[string]any{
			"status":                outcome,
			"release_adjustment_id": releaseAdjustmentID,
			"released_at":           at,
			"updated_at":            at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}
