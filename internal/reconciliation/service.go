// Package reconciliation audits held stock against order state. It never
// mutates inventory: a reservation that outlives its order's progress becomes
// an OPEN alert for an operator to act on.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Scan(ctx context.Context, input ScanInput) (*ScanResult, error)
	ListAlerts(ctx context.Context, input ListAlertsInput) ([]models.ReservationAlert, error)
	Resolve(ctx context.Context, input ResolveInput) (*models.ReservationAlert, error)
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics *metrics.InventoryMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.InventoryMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reconciliation repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) Scan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.MinAgeMinutes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min age must be zero or positive")
	}
	if input.MinQuantity < 1 {
		input.MinQuantity = 1
	}
	switch {
	case input.Limit <= 0:
		input.Limit = defaultScanLimit
	case input.Limit > maxScanLimit:
		input.Limit = maxScanLimit
	}

	now := s.now().UTC()
	stale, err := s.repo.ListStaleReservations(ctx, staleQuery{
		OrganizationID: input.OrganizationID,
		CreatedBefore:  now.Add(-time.Duration(input.MinAgeMinutes) * time.Minute),
		MinQuantity:    input.MinQuantity,
		Limit:          input.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list held reservations")
	}

	result := &ScanResult{OrganizationID: input.OrganizationID, Examined: len(stale)}
	for _, row := range stale {
		alert, opened, err := s.upsertAlert(ctx, input.OrganizationID, row, now)
		if err != nil {
			return nil, err
		}
		if opened {
			result.Detected++
		} else {
			result.Refreshed++
		}
		result.Alerts = append(result.Alerts, *alert)
	}
	s.metrics.AddAlertsOpened(result.Detected)
	return result, nil
}

// upsertAlert keeps one alert per reservation. A resolved alert whose
// reservation is still held is reopened and counts as a new detection.
func (s *service) upsertAlert(ctx context.Context, organizationID uuid.UUID, row StaleReservation, now time.Time) (*models.ReservationAlert, bool, error) {
	age := int(now.Sub(row.OrderCreatedAt) / time.Minute)
	if age < 0 {
		age = 0
	}

	var (
		alert    *models.ReservationAlert
		opened   bool
		reopened bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindAlertByReservation(ctx, row.ReservationID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			alert = &models.ReservationAlert{
				OrganizationID: organizationID,
				OrderID:        row.OrderID,
				ReservationID:  row.ReservationID,
				Status:         enums.AlertStatusOpen,
				Quantity:       row.Quantity,
				AgeMinutes:     age,
				DetectedAt:     now,
				LastSeenAt:     now,
			}
			if err := repo.CreateAlert(ctx, alert); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation alert")
			}
			opened = true
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation alert")
		default:
			alert = existing
			updates := map[string]any{
				"quantity":     row.Quantity,
				"age_minutes":  age,
				"last_seen_at": now,
				"updated_at":   now,
			}
			if existing.Status != enums.AlertStatusOpen {
				updates["status"] = enums.AlertStatusOpen
				updates["detected_at"] = now
				updates["resolved_at"] = nil
				updates["resolved_by"] = nil
				updates["resolution_note"] = nil
				alert.Status = enums.AlertStatusOpen
				alert.DetectedAt = now
				alert.ResolvedAt = nil
				alert.ResolvedBy = nil
				alert.ResolutionNote = nil
				opened = true
				reopened = true
			}
			if err := repo.UpdateAlert(ctx, existing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation alert")
			}
			alert.Quantity = row.Quantity
			alert.AgeMinutes = age
			alert.LastSeenAt = now
		}

		if !opened {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationAlertOpened,
			AggregateType: enums.AggregateReservationAlert,
			AggregateID:   alert.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.ReservationAlertOpenedEvent{
				AlertID:        alert.ID,
				OrganizationID: organizationID,
				OrderID:        row.OrderID,
				ReservationID:  row.ReservationID,
				Quantity:       row.Quantity,
				AgeMinutes:     age,
				Reopened:       reopened,
			},
		})
	})
	if err != nil {
		return nil, false, err
	}
	return alert, opened, nil
}

func (s *service) ListAlerts(ctx context.Context, input ListAlertsInput) ([]models.ReservationAlert, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid alert status")
	}
	switch {
	case input.Limit <= 0:
		input.Limit = defaultAlertLimit
	case input.Limit > maxAlertLimit:
		input.Limit = maxAlertLimit
	}
	rows, err := s.repo.ListAlerts(ctx, input.OrganizationID, input.Status, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservation alerts")
	}
	return rows, nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*models.ReservationAlert, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	if input.AlertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alert id is required")
	}
	var note *string
	if input.Note != nil {
		if trimmed := strings.TrimSpace(*input.Note); trimmed != "" {
			note = &trimmed
		}
	}

	var resolved *models.ReservationAlert
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		alert, err := repo.FindAlert(ctx, input.OrganizationID, input.AlertID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation alert not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation alert")
		}
		if alert.Status != enums.AlertStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "alert is not open").
				WithDetails(map[string]any{"status": alert.Status})
		}

		now := s.now().UTC()
		ok, err := repo.ResolveIfOpen(ctx, input.OrganizationID, input.AlertID, map[string]any{
			"status":          enums.AlertStatusResolved,
			"resolved_at":     now,
			"resolved_by":     input.ActorID,
			"resolution_note": note,
			"updated_at":      now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve reservation alert")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "alert was resolved concurrently")
		}
		alert.Status = enums.AlertStatusResolved
		alert.ResolvedAt = &now
		alert.ResolvedBy = input.ActorID
		alert.ResolutionNote = note
		resolved = alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
