package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Customer holds the running aggregates maintained by the customer ledger.
type Customer struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Email          *string         `gorm:"column:email" json:"email,omitempty"`
	Phone          *string         `gorm:"column:phone" json:"phone,omitempty"`
	Segment        string          `gorm:"column:segment;type:varchar(32);not null;default:'REGULAR'" json:"segment"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	TotalSpent     decimal.Decimal `gorm:"column:total_spent;type:numeric(14,2);not null;default:0" json:"total_spent"`
	TotalOrders    int             `gorm:"column:total_orders;not null;default:0" json:"total_orders"`
	Debt           decimal.Decimal `gorm:"column:debt;type:numeric(14,2);not null;default:0" json:"debt"`
	LastOrderAt    *time.Time      `gorm:"column:last_order_at" json:"last_order_at,omitempty"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CustomerLedgerEntry is an append-only record of one aggregate change.
type CustomerLedgerEntry struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID             `gorm:"column:organization_id;type:uuid;not null;index:idx_ledger_entries_customer,priority:1" json:"organization_id"`
	CustomerID     uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index:idx_ledger_entries_customer,priority:2" json:"customer_id"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Kind           enums.LedgerEntryKind `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	SpentDelta     decimal.Decimal       `gorm:"column:spent_delta;type:numeric(14,2);not null" json:"spent_delta"`
	OrdersDelta    int                   `gorm:"column:orders_delta;not null" json:"orders_delta"`
	DebtDelta      decimal.Decimal       `gorm:"column:debt_delta;type:numeric(14,2);not null" json:"debt_delta"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (e *CustomerLedgerEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
