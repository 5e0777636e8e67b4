package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/api/controllers/callercontext"
	"github.com/angelmondragon/backoffice-backend/api/responses"
	"github.com/angelmondragon/backoffice-backend/api/validators"
	internalinventory "github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type adjustRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	BranchID  uuid.UUID `json:"branch_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type transferRequest struct {
	ProductID    uuid.UUID        `json:"product_id" validate:"required"`
	FromBranchID uuid.UUID        `json:"from_branch_id" validate:"required"`
	ToBranchID   uuid.UUID        `json:"to_branch_id" validate:"required"`
	Quantity     int              `json:"quantity" validate:"gt=0"`
	UnitValue    *decimal.Decimal `json:"unit_value,omitempty"`
}

type adjustResponse struct {
	AdjustmentID uuid.UUID `json:"adjustment_id"`
	Code         string    `json:"code"`
	OldQuantity  int       `json:"old_quantity"`
	NewQuantity  int       `json:"new_quantity"`
}

type quantityResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Quantity  int       `json:"quantity"`
}

// Adjust applies a manual signed stock change at one branch.
func Adjust(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Adjust(r.Context(), internalinventory.AdjustInput{
			OrganizationID: identity.OrganizationID,
			ProductID:      payload.ProductID,
			BranchID:       payload.BranchID,
			Quantity:       payload.Quantity,
			Reason:         enums.AdjustmentReasonManual,
			ActorID:        callercontext.ActorID(identity),
			Notes:          validators.OptionalText(payload.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adjustResponse{
			AdjustmentID: result.Adjustment.ID,
			Code:         result.Adjustment.Code,
			OldQuantity:  result.OldQuantity,
			NewQuantity:  result.NewQuantity,
		})
	}
}

// Transfer moves stock between two branches of the caller's organization.
func Transfer(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.FromBranchID == payload.ToBranchID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"to_branch_id": "must differ from from_branch_id"}))
			return
		}

		transfer, err := svc.Transfer(r.Context(), internalinventory.TransferInput{
			OrganizationID: identity.OrganizationID,
			ProductID:      payload.ProductID,
			FromBranchID:   payload.FromBranchID,
			ToBranchID:     payload.ToBranchID,
			Quantity:       payload.Quantity,
			UnitValue:      payload.UnitValue,
			ActorID:        callercontext.ActorID(identity),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transfer)
	}
}

// Quantity reads the current counter for a product at a branch.
func Quantity(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		organizationID, productID, branchID, err := scope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty, err := svc.Quantity(r.Context(), organizationID, productID, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quantityResponse{ProductID: productID, BranchID: branchID, Quantity: qty})
	}
}

// Audit replays a counter from its adjustment items.
func Audit(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		organizationID, productID, branchID, err := scope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Replay(r.Context(), organizationID, productID, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func scope(r *http.Request) (organizationID, productID, branchID uuid.UUID, err error) {
	identity, err := callercontext.Resolve(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	if productID, err = validators.URLUUID(r, "productId"); err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	if branchID, err = validators.URLUUID(r, "branchId"); err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	return identity.OrganizationID, productID, branchID, nil
}
