package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// Actor identifies who requested an order mutation.
type Actor struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	BranchID       *uuid.UUID
	Role           string
	TraceID        string
}

// ItemInput is one requested order line. BranchID defaults to the order's branch.
type ItemInput struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// CreateOrderInput carries everything needed to price and persist a new order.
type CreateOrderInput struct {
	Actor           Actor
	CustomerID      uuid.UUID
	BranchID        uuid.UUID
	Channel         enums.SalesChannel
	PaymentMethod   enums.PaymentMethod
	Items           []ItemInput
	Shipping        *decimal.Decimal
	Discount        *decimal.Decimal
	PaidAmount      *decimal.Decimal
	IsPaid          bool
	ShippingAddress *string
	Notes           *string
}

// UpdateOrderInput is a partial edit of a PENDING order. A non-nil Items
// replaces every existing line.
type UpdateOrderInput struct {
	Actor           Actor
	OrderID         uuid.UUID
	Items           *[]ItemInput
	PaymentMethod   *enums.PaymentMethod
	Shipping        *decimal.Decimal
	Discount        *decimal.Decimal
	PaidAmount      *decimal.Decimal
	IsPaid          *bool
	ShippingAddress *string
	Notes           *string
}

// UpdateStatusInput requests one step through the status machine.
type UpdateStatusInput struct {
	Actor      Actor
	OrderID    uuid.UUID
	NextStatus enums.OrderStatus
}

// DeleteOrderInput soft-deletes an order.
type DeleteOrderInput struct {
	Actor   Actor
	OrderID uuid.UUID
}

// ListFilters narrows the order list.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
	BranchID   *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// scope ties list cursors to the filters they were issued under.
func (f ListFilters) scope() string {
	part := func(set bool, v func() string) string {
		if !set {
			return ""
		}
		return v()
	}
	return pagination.Scope(
		part(f.Status != nil, func() string { return string(*f.Status) }),
		part(f.CustomerID != nil, func() string { return f.CustomerID.String() }),
		part(f.BranchID != nil, func() string { return f.BranchID.String() }),
		part(f.DateFrom != nil, func() string { return f.DateFrom.UTC().Format(time.RFC3339Nano) }),
		part(f.DateTo != nil, func() string { return f.DateTo.UTC().Format(time.RFC3339Nano) }),
	)
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderSummary is the list projection of an order.
type OrderSummary struct {
	ID         uuid.UUID          `json:"id"`
	Code       string             `json:"code"`
	CustomerID uuid.UUID          `json:"customer_id"`
	BranchID   uuid.UUID          `json:"branch_id"`
	Channel    enums.SalesChannel `json:"channel"`
	Status     enums.OrderStatus  `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	IsPaid     bool               `json:"is_paid"`
	CreatedAt  time.Time          `json:"created_at"`
}

// OrderDetail is an order with its items and allowed next statuses.
type OrderDetail struct {
	Order       models.Order        `json:"order"`
	AllowedNext []enums.OrderStatus `json:"allowed_next"`
}

// StatusResult reports an accepted transition.
type StatusResult struct {
	OrderID        uuid.UUID         `json:"order_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ChangedAt      time.Time         `json:"changed_at"`
}

func summaryOf(order models.Order) OrderSummary {
	return OrderSummary{
		ID:         order.ID,
		Code:       order.Code,
		CustomerID: order.CustomerID,
		BranchID:   order.BranchID,
		Channel:    order.Channel,
		Status:     order.Status,
		Total:      order.Total,
		IsPaid:     order.IsPaid,
		CreatedAt:  order.CreatedAt,
	}
}
