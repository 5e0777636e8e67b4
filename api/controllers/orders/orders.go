package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/api/controllers/callercontext"
	"github.com/angelmondragon/backoffice-backend/api/responses"
	"github.com/angelmondragon/backoffice-backend/api/validators"
	internalorders "github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

var orderPage = validators.Limit{Default: pagination.DefaultLimit, Max: pagination.MaxLimit}

type itemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
}

type createOrderRequest struct {
	CustomerID      uuid.UUID        `json:"customer_id" validate:"required"`
	BranchID        uuid.UUID        `json:"branch_id" validate:"required"`
	Channel         string           `json:"channel" validate:"required"`
	PaymentMethod   string           `json:"payment_method" validate:"required"`
	Items           []itemRequest    `json:"items" validate:"required,min=1,dive"`
	Shipping        *decimal.Decimal `json:"shipping,omitempty"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	PaidAmount      *decimal.Decimal `json:"paid_amount,omitempty"`
	IsPaid          bool             `json:"is_paid"`
	ShippingAddress *string          `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type updateOrderRequest struct {
	Items           *[]itemRequest   `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	PaymentMethod   *string          `json:"payment_method,omitempty"`
	Shipping        *decimal.Decimal `json:"shipping,omitempty"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	PaidAmount      *decimal.Decimal `json:"paid_amount,omitempty"`
	IsPaid          *bool            `json:"is_paid,omitempty"`
	ShippingAddress *string          `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create prices and persists a new PENDING order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := callercontext.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channel, err := enums.ParseSalesChannel(payload.Channel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel"))
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method"))
			return
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			Actor:           actor,
			CustomerID:      payload.CustomerID,
			BranchID:        payload.BranchID,
			Channel:         channel,
			PaymentMethod:   method,
			Items:           toItemInputs(payload.Items),
			Shipping:        payload.Shipping,
			Discount:        payload.Discount,
			PaidAmount:      payload.PaidAmount,
			IsPaid:          payload.IsPaid,
			ShippingAddress: validators.OptionalText(payload.ShippingAddress),
			Notes:           validators.OptionalText(payload.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns one cursor page of the organization's orders.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := orderPage.Parse(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		list, err := svc.List(r.Context(), identity.OrganizationID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order with its items and the statuses it may move to.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), identity.OrganizationID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// History lists the order's status transitions, oldest first.
func History(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transitions, err := svc.History(r.Context(), identity.OrganizationID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transitions)
	}
}

// Update edits a PENDING order.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := callercontext.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.UpdateOrderInput{
			Actor:           actor,
			OrderID:         orderID,
			Shipping:        payload.Shipping,
			Discount:        payload.Discount,
			PaidAmount:      payload.PaidAmount,
			IsPaid:          payload.IsPaid,
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
		}
		if payload.Items != nil {
			items := toItemInputs(*payload.Items)
			input.Items = &items
		}
		if payload.PaymentMethod != nil {
			method, err := enums.ParsePaymentMethod(*payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method"))
				return
			}
			input.PaymentMethod = &method
		}

		order, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Delete soft-deletes a PENDING order and reverses its customer aggregates.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := callercontext.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), internalorders.DeleteOrderInput{Actor: actor, OrderID: orderID}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// UpdateStatus moves an order one step through the status machine.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := callercontext.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			Actor:      actor,
			OrderID:    orderID,
			NextStatus: next,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func toItemInputs(items []itemRequest) []internalorders.ItemInput {
	out := make([]internalorders.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, internalorders.ItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			BranchID:  item.BranchID,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func buildFilters(r *http.Request) (internalorders.ListFilters, error) {
	var (
		filters internalorders.ListFilters
		err     error
	)
	if filters.Status, err = validators.QueryEnum(r, "status", enums.ParseOrderStatus); err != nil {
		return filters, err
	}
	if filters.CustomerID, err = validators.QueryUUID(r, "customer_id"); err != nil {
		return filters, err
	}
	if filters.BranchID, err = validators.QueryUUID(r, "branch_id"); err != nil {
		return filters, err
	}
	if filters.DateFrom, err = validators.QueryTime(r, "date_from", false); err != nil {
		return filters, err
	}
	if filters.DateTo, err = validators.QueryTime(r, "date_to", true); err != nil {
		return filters, err
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateTo.Before(*filters.DateFrom) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "date_to must not precede date_from")
	}
	return filters, nil
}
