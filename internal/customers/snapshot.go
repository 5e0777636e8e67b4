package customers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/money"
)

// Snapshot is the financial view of an order the ledger needs. It carries no
// status: the ledger does not know about the order state machine.
type Snapshot struct {
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
	OrderID        uuid.UUID
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	Discount       decimal.Decimal
	PaidAmount     decimal.Decimal
	IsPaid         bool
}

// SnapshotOf copies the ledger-relevant fields of an order.
func SnapshotOf(order *models.Order) Snapshot {
	return Snapshot{
		OrganizationID: order.OrganizationID,
		CustomerID:     order.CustomerID,
		OrderID:        order.ID,
		Subtotal:       order.Subtotal,
		Tax:            order.Tax,
		Shipping:       order.Shipping,
		Discount:       order.Discount,
		PaidAmount:     order.PaidAmount,
		IsPaid:         order.IsPaid,
	}
}

func (s Snapshot) Total() decimal.Decimal {
	return money.Round(s.Subtotal.Add(s.Tax).Add(s.Shipping).Sub(s.Discount))
}

func (s Snapshot) Outstanding() decimal.Decimal {
	return money.NonNegative(s.Total().Sub(s.PaidAmount))
}

// Debt is what the order contributes to the customer's debt.
func (s Snapshot) Debt() decimal.Decimal {
	if s.IsPaid {
		return decimal.Zero
	}
	return s.Outstanding()
}

// Delta is a signed change to a customer's aggregates.
type Delta struct {
	Spent  decimal.Decimal
	Orders int
	Debt   decimal.Decimal
}

func (d Delta) IsZero() bool {
	return d.Spent.IsZero() && d.Orders == 0 && d.Debt.IsZero()
}

func createdDelta(s Snapshot) Delta {
	return Delta{Spent: s.Total(), Orders: 1, Debt: s.Debt()}
}

// editedDelta moves spent by the total difference and debt by the change in
// what the order owes. Paid orders owe nothing, so flipping the paid flag
// settles or reopens the earlier outstanding amount.
func editedDelta(prev, next Snapshot) Delta {
	return Delta{
		Spent: next.Total().Sub(prev.Total()),
		Debt:  next.Debt().Sub(prev.Debt()),
	}
}

func deletedDelta(s Snapshot) Delta {
	return Delta{Spent: s.Total().Neg(), Orders: -1, Debt: s.Debt().Neg()}
}
