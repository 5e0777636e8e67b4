package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// InventoryRecord is the quantity counter for one product at one branch.
// The counter is a cache of the sum of its adjustment item differences.
type InventoryRecord struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_inventory_records_scope,priority:1" json:"organization_id"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_inventory_records_scope,priority:2" json:"product_id"`
	BranchID       uuid.UUID `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:uq_inventory_records_scope,priority:3" json:"branch_id"`
	Quantity       int       `gorm:"column:quantity;not null;default:0;check:chk_inventory_records_quantity,quantity >= 0" json:"quantity"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (r *InventoryRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// StockAdjustment is an immutable batch of stock movements at one branch.
type StockAdjustment struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID              `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_stock_adjustments_org_code,priority:1" json:"organization_id"`
	Code           string                 `gorm:"column:code;type:varchar(32);not null;uniqueIndex:uq_stock_adjustments_org_code,priority:2" json:"code"`
	BranchID       uuid.UUID              `gorm:"column:branch_id;type:uuid;not null" json:"branch_id"`
	Type           enums.AdjustmentType   `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Reason         enums.AdjustmentReason `gorm:"column:reason;type:varchar(32);not null" json:"reason"`
	ActorID        *uuid.UUID             `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	OrderID        *uuid.UUID             `gorm:"column:order_id;type:uuid;index" json:"order_id,omitempty"`
	Notes          *string                `gorm:"column:notes" json:"notes,omitempty"`
	Items          []StockAdjustmentItem  `gorm:"foreignKey:AdjustmentID" json:"items,omitempty"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (a *StockAdjustment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// StockAdjustmentItem records one counter change. Organization and branch are
// copied from the parent so replay can sum by record scope.
type StockAdjustmentItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AdjustmentID   uuid.UUID `gorm:"column:adjustment_id;type:uuid;not null;index" json:"adjustment_id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index:idx_adjustment_items_scope,priority:1" json:"organization_id"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_adjustment_items_scope,priority:2" json:"product_id"`
	BranchID       uuid.UUID `gorm:"column:branch_id;type:uuid;not null;index:idx_adjustment_items_scope,priority:3" json:"branch_id"`
	OldQuantity    int       `gorm:"column:old_quantity;not null" json:"old_quantity"`
	NewQuantity    int       `gorm:"column:new_quantity;not null" json:"new_quantity"`
	Difference     int       `gorm:"column:difference;not null" json:"difference"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (i *StockAdjustmentItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderInventoryReservation links an order item to the adjustment that took
// its stock.
type OrderInventoryReservation struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID      uuid.UUID               `gorm:"column:organization_id;type:uuid;not null;index:idx_reservations_org_status,priority:1" json:"organization_id"`
	OrderID             uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	OrderItemID         uuid.UUID               `gorm:"column:order_item_id;type:uuid;not null;index" json:"order_item_id"`
	ProductID           uuid.UUID               `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	VariantID           *uuid.UUID              `gorm:"column:variant_id;type:uuid" json:"variant_id,omitempty"`
	BranchID            uuid.UUID               `gorm:"column:branch_id;type:uuid;not null" json:"branch_id"`
	Quantity            int                     `gorm:"column:quantity;not null" json:"quantity"`
	VariantQuantity     int                     `gorm:"column:variant_quantity;not null;default:0" json:"variant_quantity"`
	Status              enums.ReservationStatus `gorm:"column:status;type:varchar(16);not null;index:idx_reservations_org_status,priority:2" json:"status"`
	AdjustmentID        uuid.UUID               `gorm:"column:adjustment_id;type:uuid;not null" json:"adjustment_id"`
	ReleaseAdjustmentID *uuid.UUID              `gorm:"column:release_adjustment_id;type:uuid" json:"release_adjustment_id,omitempty"`
	ReleasedAt          *time.Time              `gorm:"column:released_at" json:"released_at,omitempty"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (r *OrderInventoryReservation) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Transfer pairs a TRANSFER_OUT adjustment at the source with a TRANSFER_IN
// adjustment at the destination.
type Transfer struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID  uuid.UUID            `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_transfers_org_code,priority:1" json:"organization_id"`
	Code            string               `gorm:"column:code;type:varchar(32);not null;uniqueIndex:uq_transfers_org_code,priority:2" json:"code"`
	ProductID       uuid.UUID            `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	FromBranchID    uuid.UUID            `gorm:"column:from_branch_id;type:uuid;not null" json:"from_branch_id"`
	ToBranchID      uuid.UUID            `gorm:"column:to_branch_id;type:uuid;not null" json:"to_branch_id"`
	Quantity        int                  `gorm:"column:quantity;not null" json:"quantity"`
	UnitValue       decimal.Decimal      `gorm:"column:unit_value;type:numeric(14,2);not null" json:"unit_value"`
	TotalValue      decimal.Decimal      `gorm:"column:total_value;type:numeric(14,2);not null" json:"total_value"`
	Status          enums.TransferStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	OutAdjustmentID uuid.UUID            `gorm:"column:out_adjustment_id;type:uuid;not null" json:"out_adjustment_id"`
	InAdjustmentID  uuid.UUID            `gorm:"column:in_adjustment_id;type:uuid;not null" json:"in_adjustment_id"`
	ActorID         *uuid.UUID           `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *Transfer) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
