package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/customers"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, organizationID, orderID uuid.UUID) (*models.Order, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	UpdateIfStatus(ctx context.Context, organizationID, orderID uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error)
	CompareAndSetStatus(ctx context.Context, organizationID, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error)
	AppendTransition(ctx context.Context, transition *models.OrderStatusTransition) error
	ListTransitions(ctx context.Context, organizationID, orderID uuid.UUID) ([]models.OrderStatusTransition, error)
	SoftDeleteIfStatus(ctx context.Context, organizationID, orderID uuid.UUID, expected enums.OrderStatus) (bool, error)
	List(ctx context.Context, organizationID uuid.UUID, params listParams) ([]models.Order, *pagination.Cursor, error)
}

type listParams struct {
	Limit   int
	Cursor  *pagination.Cursor
	Filters ListFilters
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// customerLedger applies order financials to customer aggregates inside the
// order's transaction.
type customerLedger interface {
	ApplyOrderCreated(ctx context.Context, tx *gorm.DB, snapshot customers.Snapshot) (*models.CustomerLedgerEntry, error)
	ApplyOrderEdited(ctx context.Context, tx *gorm.DB, prev, next customers.Snapshot) (*models.CustomerLedgerEntry, error)
	ApplyOrderDeleted(ctx context.Context, tx *gorm.DB, snapshot customers.Snapshot) (*models.CustomerLedgerEntry, error)
}

// StatusListener is notified after a status change has committed. It must
// not fail the caller; implementations contain their own errors.
type StatusListener interface {
	OnStatusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent)
}
