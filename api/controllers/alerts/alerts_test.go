package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

type stubReconciliation struct {
	scan    func(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error)
	list    func(ctx context.Context, input reconciliation.ListAlertsInput) ([]models.ReservationAlert, error)
	resolve func(ctx context.Context, input reconciliation.ResolveInput) (*models.ReservationAlert, error)
}

func (s stubReconciliation) Scan(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error) {
	return s.scan(ctx, input)
}

func (s stubReconciliation) ListAlerts(ctx context.Context, input reconciliation.ListAlertsInput) ([]models.ReservationAlert, error) {
	return s.list(ctx, input)
}

func (s stubReconciliation) Resolve(ctx context.Context, input reconciliation.ResolveInput) (*models.ReservationAlert, error) {
	return s.resolve(ctx, input)
}

func request(method, target, body string, identity middleware.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithIdentity(ctx, identity))
}

func owner() middleware.Identity {
	return middleware.Identity{UserID: uuid.New(), OrganizationID: uuid.New(), Role: enums.RoleOwner}
}

var scanDefaults = config.ReconciliationConfig{MinAgeMinutes: 30, MinQuantity: 1, Limit: 500}

func TestScanUsesConfiguredDefaults(t *testing.T) {
	identity := owner()
	var captured reconciliation.ScanInput
	svc := stubReconciliation{scan: func(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error) {
		captured = input
		return &reconciliation.ScanResult{OrganizationID: input.OrganizationID, Examined: 2, Detected: 1, Refreshed: 1}, nil
	}}

	resp := httptest.NewRecorder()
	Scan(svc, scanDefaults, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/reservation-alerts/scan", "", identity, nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, identity.OrganizationID, captured.OrganizationID)
	require.Equal(t, 30, captured.MinAgeMinutes)
	require.Equal(t, 500, captured.Limit)
	require.Contains(t, resp.Body.String(), `"detected":1`)
}

func TestScanOverridesThresholds(t *testing.T) {
	var captured reconciliation.ScanInput
	svc := stubReconciliation{scan: func(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error) {
		captured = input
		return &reconciliation.ScanResult{}, nil
	}}

	resp := httptest.NewRecorder()
	Scan(svc, scanDefaults, nil).ServeHTTP(resp, request(http.MethodPost, "/", `{"min_age_minutes":0,"min_quantity":3}`, owner(), nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 0, captured.MinAgeMinutes)
	require.Equal(t, 3, captured.MinQuantity)
}

func TestScanRejectsNegativeAge(t *testing.T) {
	resp := httptest.NewRecorder()
	Scan(stubReconciliation{}, scanDefaults, nil).ServeHTTP(resp, request(http.MethodPost, "/", `{"min_age_minutes":-1}`, owner(), nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListFiltersByStatus(t *testing.T) {
	var captured reconciliation.ListAlertsInput
	svc := stubReconciliation{list: func(ctx context.Context, input reconciliation.ListAlertsInput) ([]models.ReservationAlert, error) {
		captured = input
		return []models.ReservationAlert{}, nil
	}}

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/api/v1/reservation-alerts?status=open", "", owner(), nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, captured.Status)
	require.Equal(t, enums.AlertStatusOpen, *captured.Status)
}

func TestResolveAlreadyResolved(t *testing.T) {
	svc := stubReconciliation{resolve: func(ctx context.Context, input reconciliation.ResolveInput) (*models.ReservationAlert, error) {
		require.Equal(t, "restocked", *input.Note)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "alert already resolved")
	}}

	alertID := uuid.NewString()
	resp := httptest.NewRecorder()
	Resolve(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/", `{"note":"restocked"}`, owner(), map[string]string{"alertId": alertID}))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
