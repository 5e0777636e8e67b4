package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Repository reads held reservations and stores reservation alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListStaleReservations(ctx context.Context, q staleQuery) ([]StaleReservation, error)
	FindAlertByReservation(ctx context.Context, reservationID uuid.UUID) (*models.ReservationAlert, error)
	FindAlert(ctx context.Context, organizationID, alertID uuid.UUID) (*models.ReservationAlert, error)
	CreateAlert(ctx context.Context, alert *models.ReservationAlert) error
	UpdateAlert(ctx context.Context, alertID uuid.UUID, updates map[string]any) error
	ResolveIfOpen(ctx context.Context, organizationID, alertID uuid.UUID, updates map[string]any) (bool, error)
	ListAlerts(ctx context.Context, organizationID uuid.UUID, status *enums.AlertStatus, limit int) ([]models.ReservationAlert, error)
}

type staleQuery struct {
	OrganizationID uuid.UUID
	CreatedBefore  time.Time
	MinQuantity    int
	Limit          int
}

// StaleReservation is a RESERVED row whose order has not reached a terminal
// status within the threshold.
type StaleReservation struct {
	ReservationID  uuid.UUID         `gorm:"column:reservation_id"`
	OrderID        uuid.UUID         `gorm:"column:order_id"`
	OrderCode      string            `gorm:"column:order_code"`
	OrderStatus    enums.OrderStatus `gorm:"column:order_status"`
	Quantity       int               `gorm:"column:quantity"`
	OrderCreatedAt time.Time         `gorm:"column:order_created_at"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListStaleReservations(ctx context.Context, q staleQuery) ([]StaleReservation, error) {
	var rows []StaleReservation
	err := r.db.WithContext(ctx).
		Table("order_inventory_reservations AS r").
		Select(`r.id AS reservation_id, r.order_id, o.code AS order_code, o.status AS order_status,
			r.quantity, o.created_at AS order_created_at`).
		Joins("JOIN orders AS o ON o.id = r.order_id AND o.organization_id = r.organization_id").
		Where("r.organization_id = ?", q.OrganizationID).
		Where("r.status = ?", enums.ReservationStatusReserved).
		Where("r.quantity >= ?", q.MinQuantity).
		Where("o.deleted_at IS NULL").
		Where("o.status NOT IN ?", enums.TerminalOrderStatuses()).
		Where("o.created_at < ?", q.CreatedBefore).
		Order("o.created_at ASC, r.id ASC").
		Limit(q.Limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) FindAlertByReservation(ctx context.Context, reservationID uuid.UUID) (*models.ReservationAlert, error) {
	var alert models.ReservationAlert
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Take(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) FindAlert(ctx context.Context, organizationID, alertID uuid.UUID) (*models.ReservationAlert, error) {
	var alert models.ReservationAlert
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", alertID, organizationID).
		Take(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) CreateAlert(ctx context.Context, alert *models.ReservationAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) UpdateAlert(ctx context.Context, alertID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ReservationAlert{}).
		Where("id = ?", alertID).
		Updates(updates).Error
}

// ResolveIfOpen closes an OPEN alert. False means it was not open.
func (r *repository) ResolveIfOpen(ctx context.Context, organizationID, alertID uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReservationAlert{}).
		Where("id = ? AND organization_id = ? AND status = ?", alertID, organizationID, enums.AlertStatusOpen).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListAlerts(ctx context.Context, organizationID uuid.UUID, status *enums.AlertStatus, limit int) ([]models.ReservationAlert, error) {
	q := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("detected_at DESC, id DESC").
		Limit(limit)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.ReservationAlert
	err := q.Find(&rows).Error
	return rows, err
}
