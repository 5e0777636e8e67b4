package reconciliation

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

const (
	defaultScanLimit  = 500
	maxScanLimit      = 5000
	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

// ScanInput bounds one reconciliation pass over a tenant.
type ScanInput struct {
	OrganizationID uuid.UUID
	MinAgeMinutes  int
	MinQuantity    int
	Limit          int
}

// ScanResult summarises a pass. Detected counts alerts opened or reopened by
// this pass; Refreshed counts alerts that were already open.
type ScanResult struct {
	OrganizationID uuid.UUID                 `json:"organization_id"`
	Examined       int                       `json:"examined"`
	Detected       int                       `json:"detected"`
	Refreshed      int                       `json:"refreshed"`
	Alerts         []models.ReservationAlert `json:"alerts"`
}

type ListAlertsInput struct {
	OrganizationID uuid.UUID
	Status         *enums.AlertStatus
	Limit          int
}

type ResolveInput struct {
	OrganizationID uuid.UUID
	AlertID        uuid.UUID
	ActorID        *uuid.UUID
	Note           *string
}
