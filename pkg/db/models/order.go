package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Order is the back-office sales order aggregate root.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID  uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_orders_org_code,priority:1;index:idx_orders_org_status,priority:1" json:"organization_id"`
	Code            string              `gorm:"column:code;type:varchar(32);not null;uniqueIndex:uq_orders_org_code,priority:2" json:"code"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	BranchID        uuid.UUID           `gorm:"column:branch_id;type:uuid;not null" json:"branch_id"`
	Channel         enums.SalesChannel  `gorm:"column:channel;type:varchar(32);not null" json:"channel"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:varchar(32);not null" json:"payment_method"`
	Status          enums.OrderStatus   `gorm:"column:status;type:varchar(32);not null;index:idx_orders_org_status,priority:2" json:"status"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null" json:"subtotal"`
	Tax             decimal.Decimal     `gorm:"column:tax;type:numeric(14,2);not null" json:"tax"`
	Shipping        decimal.Decimal     `gorm:"column:shipping;type:numeric(14,2);not null" json:"shipping"`
	Discount        decimal.Decimal     `gorm:"column:discount;type:numeric(14,2);not null" json:"discount"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(14,2);not null" json:"total"`
	IsPaid          bool                `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	PaidAmount      decimal.Decimal     `gorm:"column:paid_amount;type:numeric(14,2);not null" json:"paid_amount"`
	FreeShipApplied bool                `gorm:"column:free_ship_applied;not null;default:false" json:"free_ship_applied"`
	ShippingAddress *string             `gorm:"column:shipping_address" json:"shipping_address,omitempty"`
	Notes           *string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy       *uuid.UUID          `gorm:"column:created_by;type:uuid" json:"created_by,omitempty"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt      `gorm:"column:deleted_at;index" json:"-"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots the unit price at the time the order was priced.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null" json:"organization_id"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	VariantID      *uuid.UUID      `gorm:"column:variant_id;type:uuid" json:"variant_id,omitempty"`
	BranchID       uuid.UUID       `gorm:"column:branch_id;type:uuid;not null" json:"branch_id"`
	Quantity       int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null" json:"unit_price"`
	LineSubtotal   decimal.Decimal `gorm:"column:line_subtotal;type:numeric(14,2);not null" json:"line_subtotal"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderStatusTransition is the append-only history of accepted status changes.
type OrderStatusTransition struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null" json:"organization_id"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:ux_order_status_transitions_sequence,priority:1" json:"order_id"`
	Sequence       int               `gorm:"column:sequence;not null;uniqueIndex:ux_order_status_transitions_sequence,priority:2" json:"sequence"`
	FromStatus     enums.OrderStatus `gorm:"column:from_status;type:varchar(32);not null" json:"from_status"`
	ToStatus       enums.OrderStatus `gorm:"column:to_status;type:varchar(32);not null" json:"to_status"`
	ActorID        *uuid.UUID        `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	TraceID        string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (t *OrderStatusTransition) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
