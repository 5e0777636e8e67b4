// Package ledger keeps the append-only history of customer aggregate changes.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Service defines operations that record ledger entries.
type Service interface {
	RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.CustomerLedgerEntry, error)
	HasEntry(ctx context.Context, organizationID, orderID uuid.UUID, kind enums.LedgerEntryKind) (bool, error)
	ListForCustomer(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the deltas one order event applied to a customer.
type RecordEntryInput struct {
	OrganizationID uuid.UUID             `json:"organization_id"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	OrderID        uuid.UUID             `json:"order_id"`
	Kind           enums.LedgerEntryKind `json:"kind"`
	SpentDelta     decimal.Decimal       `json:"spent_delta"`
	OrdersDelta    int                   `json:"orders_delta"`
	DebtDelta      decimal.Decimal       `json:"debt_delta"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordEntry appends an entry using tx when given, so the entry commits with
// the aggregate update it describes.
func (s *service) RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.CustomerLedgerEntry, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("organization id is required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry kind %q", input.Kind)
	}

	entry := &models.CustomerLedgerEntry{
		OrganizationID: input.OrganizationID,
		CustomerID:     input.CustomerID,
		OrderID:        input.OrderID,
		Kind:           input.Kind,
		SpentDelta:     input.SpentDelta,
		OrdersDelta:    input.OrdersDelta,
		DebtDelta:      input.DebtDelta,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) HasEntry(ctx context.Context, organizationID, orderID uuid.UUID, kind enums.LedgerEntryKind) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	if !kind.IsValid() {
		return false, fmt.Errorf("invalid ledger entry kind %q", kind)
	}

	entries, err := s.repo.ListByOrderID(ctx, organizationID, orderID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListForCustomer(ctx context.Context, organizationID, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	return s.repo.ListByCustomerID(ctx, organizationID, customerID, limit)
}
