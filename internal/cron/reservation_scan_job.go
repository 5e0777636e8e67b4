package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type reservationScanner interface {
	Scan(ctx context.Context, input reconciliation.ScanInput) (*reconciliation.ScanResult, error)
}

type ReservationScanJobParams struct {
	Logger  *logger.Logger
	Tenants tenantLister
	Scanner reservationScanner
	Config  config.ReconciliationConfig
}

// NewReservationScanJob builds the job that flags reservations held by
// orders that stopped moving.
func NewReservationScanJob(params ReservationScanJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant lister required")
	}
	if params.Scanner == nil {
		return nil, fmt.Errorf("reservation scanner required")
	}
	return &reservationScanJob{
		logg:    params.Logger,
		tenants: params.Tenants,
		scanner: params.Scanner,
		cfg:     params.Config,
	}, nil
}

type reservationScanJob struct {
	logg    *logger.Logger
	tenants tenantLister
	scanner reservationScanner
	cfg     config.ReconciliationConfig
}

func (j *reservationScanJob) Name() string { return "reservation-scan" }

func (j *reservationScanJob) Every() time.Duration { return j.cfg.Interval }

func (j *reservationScanJob) Run(ctx context.Context) error {
	detected := 0
	err := forEachTenant(ctx, j.tenants, j.logg, func(ctx context.Context, organizationID uuid.UUID) error {
		result, err := j.scanner.Scan(ctx, reconciliation.ScanInput{
			OrganizationID: organizationID,
			MinAgeMinutes:  j.cfg.MinAgeMinutes,
			MinQuantity:    j.cfg.MinQuantity,
			Limit:          j.cfg.Limit,
		})
		if err != nil {
			return err
		}
		detected += result.Detected
		if result.Detected > 0 {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"detected":  result.Detected,
				"refreshed": result.Refreshed,
			})
			j.logg.Warn(logCtx, "stale reservations detected")
		}
		return nil
	})
	j.logg.Info(j.logg.WithField(ctx, "detected", detected), "reservation scan complete")
	return err
}
