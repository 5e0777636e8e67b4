// Package customers maintains the running per-customer aggregates (total
// spent, order count, debt, last order) as orders are created, edited and
// deleted.
package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/ledger"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Service applies order deltas to customer aggregates. The Apply methods run
// inside the caller's transaction.
type Service interface {
	ApplyOrderCreated(ctx context.Context, tx *gorm.DB, snapshot Snapshot) (*models.CustomerLedgerEntry, error)
	ApplyOrderEdited(ctx context.Context, tx *gorm.DB, prev, next Snapshot) (*models.CustomerLedgerEntry, error)
	ApplyOrderDeleted(ctx context.Context, tx *gorm.DB, snapshot Snapshot) (*models.CustomerLedgerEntry, error)
	Get(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error)
	History(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error)
}

type service struct {
	repo   Repository
	ledger ledger.Service
	now    func() time.Time
}

func NewService(repo Repository, ledgerSvc ledger.Service, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, ledger: ledgerSvc, now: now}, nil
}

func (s *service) ApplyOrderCreated(ctx context.Context, tx *gorm.DB, snapshot Snapshot) (*models.CustomerLedgerEntry, error) {
	at := s.now()
	return s.apply(ctx, tx, snapshot, enums.LedgerEntryOrderCreated, createdDelta(snapshot), &at)
}

// ApplyOrderEdited applies only the difference between the two snapshots. An
// edit that leaves the financials unchanged writes nothing.
func (s *service) ApplyOrderEdited(ctx context.Context, tx *gorm.DB, prev, next Snapshot) (*models.CustomerLedgerEntry, error) {
	if prev.CustomerID != next.CustomerID || prev.OrderID != next.OrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "edit must keep the same order and customer")
	}
	delta := editedDelta(prev, next)
	if delta.IsZero() {
		return nil, nil
	}
	return s.apply(ctx, tx, next, enums.LedgerEntryOrderEdited, delta, nil)
}

func (s *service) ApplyOrderDeleted(ctx context.Context, tx *gorm.DB, snapshot Snapshot) (*models.CustomerLedgerEntry, error) {
	return s.apply(ctx, tx, snapshot, enums.LedgerEntryOrderDeleted, deletedDelta(snapshot), nil)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, snapshot Snapshot, kind enums.LedgerEntryKind, delta Delta, lastOrderAt *time.Time) (*models.CustomerLedgerEntry, error) {
	if snapshot.OrganizationID == uuid.Nil || snapshot.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization and customer are required")
	}
	ok, err := s.repo.WithTx(tx).ApplyDelta(ctx, snapshot.OrganizationID, snapshot.CustomerID, delta, lastOrderAt, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer aggregates")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	entry, err := s.ledger.RecordEntry(ctx, tx, ledger.RecordEntryInput{
		OrganizationID: snapshot.OrganizationID,
		CustomerID:     snapshot.CustomerID,
		OrderID:        snapshot.OrderID,
		Kind:           kind,
		SpentDelta:     delta.Spent,
		OrdersDelta:    delta.Orders,
		DebtDelta:      delta.Debt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
	}
	return entry, nil
}

func (s *service) Get(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.Get(ctx, organizationID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) History(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error) {
	if _, err := s.Get(ctx, organizationID, customerID); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListForCustomer(ctx, organizationID, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entries")
	}
	return entries, nil
}
