package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a new order is committed.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID          `json:"order_id"`
	OrganizationID uuid.UUID          `json:"organization_id"`
	Code           string             `json:"code"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	BranchID       uuid.UUID          `json:"branch_id"`
	Channel        enums.SalesChannel `json:"channel"`
	Total          decimal.Decimal    `json:"total"`
	PaidAmount     decimal.Decimal    `json:"paid_amount"`
	IsPaid         bool               `json:"is_paid"`
	ItemCount      int                `json:"item_count"`
}

// OrderUpdatedEvent records the financial snapshot before and after a PENDING edit.
type OrderUpdatedEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	PreviousTotal  decimal.Decimal `json:"previous_total"`
	Total          decimal.Decimal `json:"total"`
	ItemsReplaced  bool            `json:"items_replaced"`
}

// OrderDeletedEvent is emitted when an order is soft-deleted.
type OrderDeletedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Status         enums.OrderStatus `json:"status"`
	LedgerReverted bool              `json:"ledger_reverted"`
	DeletedAt      time.Time         `json:"deleted_at"`
}

// OrderStatusChangedEvent drives the automation dispatcher.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	NextStatus     enums.OrderStatus `json:"next_status"`
	ActorID        *uuid.UUID        `json:"actor_id,omitempty"`
	TraceID        string            `json:"trace_id,omitempty"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// OrderFinalizationRequestedEvent hands a completed order to settlement.
type OrderFinalizationRequestedEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Total          decimal.Decimal `json:"total"`
	TraceID        string          `json:"trace_id,omitempty"`
}

// StockAdjustedEvent mirrors one StockAdjustment batch.
type StockAdjustedEvent struct {
	AdjustmentID   uuid.UUID              `json:"adjustment_id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	Code           string                 `json:"code"`
	BranchID       uuid.UUID              `json:"branch_id"`
	Type           enums.AdjustmentType   `json:"type"`
	Reason         enums.AdjustmentReason `json:"reason"`
	OrderID        *uuid.UUID             `json:"order_id,omitempty"`
	Items          []StockAdjustedItem    `json:"items"`
}

type StockAdjustedItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Difference  int       `json:"difference"`
}

// StockTransferredEvent is emitted once both legs of a transfer committed.
type StockTransferredEvent struct {
	TransferID     uuid.UUID       `json:"transfer_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Code           string          `json:"code"`
	ProductID      uuid.UUID       `json:"product_id"`
	FromBranchID   uuid.UUID       `json:"from_branch_id"`
	ToBranchID     uuid.UUID       `json:"to_branch_id"`
	Quantity       int             `json:"quantity"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// ReservationAlertOpenedEvent notifies operators of a possibly leaked reservation.
type ReservationAlertOpenedEvent struct {
	AlertID        uuid.UUID `json:"alert_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	OrderID        uuid.UUID `json:"order_id"`
	ReservationID  uuid.UUID `json:"reservation_id"`
	Quantity       int       `json:"quantity"`
	AgeMinutes     int       `json:"age_minutes"`
	Reopened       bool      `json:"reopened"`
}
