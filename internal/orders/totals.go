package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/internal/directory"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/money"
)

// Totals is the priced financial header of an order.
type Totals struct {
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	PaidAmount      decimal.Decimal
	IsPaid          bool
	FreeShipApplied bool
}

// priceItems resolves every line against the directory and snapshots its
// unit price. Items without a branch inherit defaultBranch.
func priceItems(ctx context.Context, dir directory.Repository, organizationID, defaultBranch uuid.UUID, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required").
			WithDetails(map[string]any{"field": "items"})
	}

	checkedBranches := map[uuid.UUID]struct{}{}
	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := decimal.Zero

	for i, in := range inputs {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"field": "items", "index": i})
		}
		branchID := defaultBranch
		if in.BranchID != nil && *in.BranchID != uuid.Nil {
			branchID = *in.BranchID
		}
		if _, ok := checkedBranches[branchID]; !ok {
			if _, err := dir.Branch(ctx, organizationID, branchID); err != nil {
				return nil, decimal.Zero, err
			}
			checkedBranches[branchID] = struct{}{}
		}

		product, err := dir.Product(ctx, organizationID, in.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		unitPrice := product.BasePrice
		if in.VariantID != nil {
			variant, err := dir.Variant(ctx, organizationID, product.ID, *in.VariantID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if !variant.Price.IsPositive() {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive").
					WithDetails(map[string]any{"field": "variant_id", "id": variant.ID.String()})
			}
			unitPrice = unitPrice.Add(variant.Price)
		}
		unitPrice = money.Round(unitPrice)
		line := money.Round(unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))))
		subtotal = subtotal.Add(line)

		items = append(items, models.OrderItem{
			OrganizationID: organizationID,
			ProductID:      product.ID,
			VariantID:      in.VariantID,
			BranchID:       branchID,
			Quantity:       in.Quantity,
			UnitPrice:      unitPrice,
			LineSubtotal:   line,
		})
	}
	return items, money.Round(subtotal), nil
}

// computeTotals derives tax and total and enforces the payment rules. When
// paid is nil a paid order is settled in full and an unpaid one owes all of it.
func computeTotals(subtotal, shipping, discount decimal.Decimal, freeShip bool, paid *decimal.Decimal, isPaid bool) (Totals, error) {
	if shipping.IsNegative() {
		return Totals{}, fieldError("shipping", "shipping must be non-negative")
	}
	if discount.IsNegative() {
		return Totals{}, fieldError("discount", "discount must be non-negative")
	}

	t := Totals{
		Subtotal:        money.Round(subtotal),
		Tax:             money.Tax(subtotal),
		Shipping:        money.Round(shipping),
		Discount:        money.Round(discount),
		IsPaid:          isPaid,
		FreeShipApplied: freeShip,
	}
	gross := t.Subtotal.Add(t.Tax).Add(t.Shipping)
	if t.Discount.GreaterThan(gross) {
		return Totals{}, fieldError("discount", "discount exceeds order amount")
	}
	t.Total = money.Round(gross.Sub(t.Discount))

	switch {
	case paid != nil:
		t.PaidAmount = money.Round(*paid)
	case isPaid:
		t.PaidAmount = t.Total
	default:
		t.PaidAmount = decimal.Zero
	}
	if t.PaidAmount.IsNegative() {
		return Totals{}, fieldError("paid_amount", "paid amount must be non-negative")
	}
	if t.PaidAmount.GreaterThan(t.Total) {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "paid amount exceeds total").
			WithDetails(map[string]any{"field": "paid_amount", "paid_amount": t.PaidAmount.StringFixed(2), "total": t.Total.StringFixed(2)})
	}
	if isPaid && !t.PaidAmount.Equal(t.Total) {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "paid order must be paid in full").
			WithDetails(map[string]any{"field": "paid_amount", "paid_amount": t.PaidAmount.StringFixed(2), "total": t.Total.StringFixed(2)})
	}
	return t, nil
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}

func (t Totals) apply(order *models.Order) {
	order.Subtotal = t.Subtotal
	order.Tax = t.Tax
	order.Shipping = t.Shipping
	order.Discount = t.Discount
	order.Total = t.Total
	order.PaidAmount = t.PaidAmount
	order.IsPaid = t.IsPaid
	order.FreeShipApplied = t.FreeShipApplied
}
