package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry; stock is tracked per product and branch.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	SKU            string          `gorm:"column:sku;not null" json:"sku"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	BasePrice      decimal.Decimal `gorm:"column:base_price;type:numeric(14,2);not null" json:"base_price"`
	UnitCost       decimal.Decimal `gorm:"column:unit_cost;type:numeric(14,2);not null;default:0" json:"unit_cost"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant adds Price on top of the parent's BasePrice.
type ProductVariant struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null" json:"price"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
