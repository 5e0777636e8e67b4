package alerts

import (
	"net/http"

	"github.com/angelmondragon/backoffice-backend/api/controllers/callercontext"
	"github.com/angelmondragon/backoffice-backend/api/responses"
	"github.com/angelmondragon/backoffice-backend/api/validators"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

var alertPage = validators.Limit{Default: 50, Max: 200}

type scanRequest struct {
	MinAgeMinutes *int `json:"min_age_minutes,omitempty" validate:"omitempty,gte=0"`
	MinQuantity   *int `json:"min_quantity,omitempty" validate:"omitempty,gte=1"`
	Limit         *int `json:"limit,omitempty" validate:"omitempty,gte=1,max=5000"`
}

type resolveRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// List returns the organization's alerts, optionally filtered by status.
func List(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := alertPage.Parse(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.QueryEnum(r, "status", enums.ParseAlertStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := reconciliation.ListAlertsInput{OrganizationID: identity.OrganizationID, Limit: limit, Status: status}

		rows, err := svc.ListAlerts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// Scan runs an on-demand reconciliation pass for the caller's organization.
// Omitted thresholds fall back to the configured cron defaults.
func Scan(svc reconciliation.Service, defaults config.ReconciliationConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scanRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := reconciliation.ScanInput{
			OrganizationID: identity.OrganizationID,
			MinAgeMinutes:  defaults.MinAgeMinutes,
			MinQuantity:    defaults.MinQuantity,
			Limit:          defaults.Limit,
		}
		if payload.MinAgeMinutes != nil {
			input.MinAgeMinutes = *payload.MinAgeMinutes
		}
		if payload.MinQuantity != nil {
			input.MinQuantity = *payload.MinQuantity
		}
		if payload.Limit != nil {
			input.Limit = *payload.Limit
		}

		result, err := svc.Scan(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Resolve closes an OPEN alert.
func Resolve(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		identity, err := callercontext.Resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := validators.URLUUID(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		alert, err := svc.Resolve(r.Context(), reconciliation.ResolveInput{
			OrganizationID: identity.OrganizationID,
			AlertID:        alertID,
			ActorID:        callercontext.ActorID(identity),
			Note:           validators.OptionalText(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}
