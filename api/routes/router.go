package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/backoffice-backend/api/controllers"
	alertcontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/alerts"
	customercontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/customers"
	inventorycontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/inventory"
	ordercontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/orders"
	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/internal/customers"
	"github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/reconciliation"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/redis"
)

// Services are the domain services the HTTP surface exposes.
type Services struct {
	Orders         orders.Service
	Inventory      inventory.Service
	Customers      customers.Service
	Reconciliation reconciliation.Service
}

type idempotencyStore interface {
	redis.IdempotencyStore
	redis.Pinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient idempotencyStore,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	idempotent := middleware.Idempotency(redisClient, logg)
	supervisors := middleware.RequireRoles(logg, enums.RoleOwner, enums.RoleManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(idempotent).Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Orders, logg))
				r.Patch("/", ordercontrollers.Update(svc.Orders, logg))
				r.Delete("/", ordercontrollers.Delete(svc.Orders, logg))
				r.Get("/history", ordercontrollers.History(svc.Orders, logg))
				r.With(idempotent).Post("/status", ordercontrollers.UpdateStatus(svc.Orders, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(supervisors, idempotent).Post("/adjustments", inventorycontrollers.Adjust(svc.Inventory, logg))
			r.With(supervisors, idempotent).Post("/transfers", inventorycontrollers.Transfer(svc.Inventory, logg))
			r.Get("/products/{productId}/branches/{branchId}", inventorycontrollers.Quantity(svc.Inventory, logg))
			r.Get("/products/{productId}/branches/{branchId}/audit", inventorycontrollers.Audit(svc.Inventory, logg))
		})

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Get("/", customercontrollers.Detail(svc.Customers, logg))
			r.Get("/ledger", customercontrollers.Ledger(svc.Customers, logg))
		})

		r.Route("/reservation-alerts", func(r chi.Router) {
			r.Get("/", alertcontrollers.List(svc.Reconciliation, logg))
			r.With(supervisors).Post("/scan", alertcontrollers.Scan(svc.Reconciliation, cfg.Reconciliation, logg))
			r.With(supervisors, idempotent).Post("/{alertId}/resolve", alertcontrollers.Resolve(svc.Reconciliation, logg))
		})
	})

	return r
}
