// Package engine assembles the order, inventory and reconciliation services
// over one database handle so every binary wires them the same way.
package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/backoffice-backend/internal/automation"
	"github.com/angelmondragon/backoffice-backend/internal/customers"
	"github.com/angelmondragon/backoffice-backend/internal/directory"
	"github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/internal/ledger"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/pricing"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/internal/sequences"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
)

type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Registerer prometheus.Registerer
}

// Engine holds the wired domain services. Dispatcher is always built; it
// listens to order status changes only when automation runs inline.
type Engine struct {
	Orders         orders.Service
	Inventory      inventory.Service
	Customers      customers.Service
	CustomerRepo   customers.Repository
	Reconciliation reconciliation.Service
	Dispatcher     *automation.Dispatcher
	Outbox         *outbox.Service
	OutboxRepo     *outbox.Repository
	Tenants        *directory.Tenants

	InventoryMetrics *metrics.InventoryMetrics
}

func New(params Params) (*Engine, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	cfg := params.Config
	conn := params.DB.DB()

	inventoryMetrics := metrics.NewInventoryMetrics(params.Registerer)
	automationMetrics := metrics.NewAutomationMetrics(params.Registerer)

	outboxRepo := outbox.NewRepository(conn)
	outboxSvc := outbox.NewService(outboxRepo, params.Logger)
	dir := directory.NewRepository(conn)
	seq := sequences.NewAllocator(cfg.Orders.CodeWidth)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	customerRepo := customers.NewRepository(conn)
	customerSvc, err := customers.NewService(customerRepo, ledgerSvc, nil)
	if err != nil {
		return nil, fmt.Errorf("customer service: %w", err)
	}

	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:      inventory.NewRepository(conn),
		Directory: dir,
		Tx:        params.DB,
		Sequences: seq,
		Outbox:    outboxSvc,
		Metrics:   inventoryMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	ordersRepo := orders.NewRepository(conn)
	finalizer, err := automation.NewOutboxFinalizer(params.DB, ordersRepo, outboxSvc)
	if err != nil {
		return nil, fmt.Errorf("finalizer: %w", err)
	}
	dispatcher, err := automation.NewDispatcher(inventorySvc, finalizer, params.Logger, automationMetrics)
	if err != nil {
		return nil, fmt.Errorf("automation dispatcher: %w", err)
	}

	calculator, err := pricing.NewFlatRate(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}

	var listener orders.StatusListener
	if cfg.Automation.Mode == config.AutomationInline {
		listener = dispatcher
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Directory: dir,
		Pricing:   calculator,
		Sequences: seq,
		Customers: customerSvc,
		Tx:        params.DB,
		Outbox:    outboxSvc,
		Listener:  listener,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	reconSvc, err := reconciliation.NewService(reconciliation.ServiceParams{
		Repo:    reconciliation.NewRepository(conn),
		Tx:      params.DB,
		Outbox:  outboxSvc,
		Metrics: inventoryMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation service: %w", err)
	}

	return &Engine{
		Orders:           ordersSvc,
		Inventory:        inventorySvc,
		Customers:        customerSvc,
		CustomerRepo:     customerRepo,
		Reconciliation:   reconSvc,
		Dispatcher:       dispatcher,
		Outbox:           outboxSvc,
		OutboxRepo:       outboxRepo,
		Tenants:          directory.NewTenants(conn),
		InventoryMetrics: inventoryMetrics,
	}, nil
}
