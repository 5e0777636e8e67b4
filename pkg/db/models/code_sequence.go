package models

import (
	"time"

	"github.com/google/uuid"
)

// CodeSequence is the per-tenant counter behind human-readable codes.
type CodeSequence struct {
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;primaryKey"`
	Scope          string    `gorm:"column:scope;type:varchar(16);primaryKey"`
	LastValue      int64     `gorm:"column:last_value;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
