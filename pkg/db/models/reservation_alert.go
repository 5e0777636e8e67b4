package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// ReservationAlert flags a reservation still held by an order that has not
// moved for longer than the configured threshold. One row per reservation.
type ReservationAlert struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;index:idx_reservation_alerts_org_status,priority:1" json:"organization_id"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ReservationID  uuid.UUID         `gorm:"column:reservation_id;type:uuid;not null;uniqueIndex:uq_reservation_alerts_reservation" json:"reservation_id"`
	Status         enums.AlertStatus `gorm:"column:status;type:varchar(16);not null;index:idx_reservation_alerts_org_status,priority:2" json:"status"`
	Quantity       int               `gorm:"column:quantity;not null" json:"quantity"`
	AgeMinutes     int               `gorm:"column:age_minutes;not null" json:"age_minutes"`
	DetectedAt     time.Time         `gorm:"column:detected_at;not null" json:"detected_at"`
	LastSeenAt     time.Time         `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
	ResolvedAt     *time.Time        `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID        `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
	ResolutionNote *string           `gorm:"column:resolution_note" json:"resolution_note,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *ReservationAlert) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
