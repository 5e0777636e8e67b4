package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// AdjustInput moves stock for one product at one branch. Quantity is signed.
type AdjustInput struct {
	OrganizationID uuid.UUID
	ProductID      uuid.UUID
	BranchID       uuid.UUID
	Quantity       int
	Reason         enums.AdjustmentReason
	ActorID        *uuid.UUID
	Notes          *string
}

// AdjustResult is the committed adjustment and the counter it produced.
type AdjustResult struct {
	Adjustment  models.StockAdjustment
	OldQuantity int
	NewQuantity int
}

// TransferInput moves stock between two branches of the same organization.
type TransferInput struct {
	OrganizationID uuid.UUID
	ProductID      uuid.UUID
	FromBranchID   uuid.UUID
	ToBranchID     uuid.UUID
	Quantity       int
	// UnitValue overrides the product's unit cost when set.
	UnitValue *decimal.Decimal
	ActorID   *uuid.UUID
}

// ReserveInput takes stock for every item of an order.
type ReserveInput struct {
	OrganizationID uuid.UUID
	OrderID        uuid.UUID
	ActorID        *uuid.UUID
}

// ReserveResult lists the reservations created.
type ReserveResult struct {
	Reservations []models.OrderInventoryReservation
}

// ReleaseInput returns an order's reserved stock.
type ReleaseInput struct {
	OrganizationID uuid.UUID
	OrderID        uuid.UUID
	Outcome        enums.ReservationStatus
	ActorID        *uuid.UUID
}

// ReleaseResult reports how much stock went back; zero rows means there was
// nothing to restore.
type ReleaseResult struct {
	Released int
	Quantity int
}

// ReplayResult compares a counter with the sum of its adjustment items.
type ReplayResult struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	ProductID      uuid.UUID `json:"product_id"`
	BranchID       uuid.UUID `json:"branch_id"`
	Counter        int       `json:"counter"`
	Replayed       int64     `json:"replayed"`
	ItemCount      int64     `json:"item_count"`
	Consistent     bool      `json:"consistent"`
}
