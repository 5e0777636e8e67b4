package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics tracks stock rejections and counter drift.
type InventoryMetrics struct {
	insufficient *prometheus.CounterVec
	drift        prometheus.Counter
	alerts       prometheus.Counter
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	insufficient := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_inventory_insufficient_stock_total",
		Help: "Stock adjustments rejected because the counter would go negative.",
	}, []string{"reason"})
	drift := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_inventory_drift_detected_total",
		Help: "Inventory records whose counter differs from the adjustment replay.",
	})
	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_reservation_alerts_opened_total",
		Help: "Reservation alerts newly opened by the reconciliation scanner.",
	})
	reg.MustRegister(insufficient, drift, alerts)
	return &InventoryMetrics{insufficient: insufficient, drift: drift, alerts: alerts}
}

func (m *InventoryMetrics) IncInsufficientStock(reason string) {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *InventoryMetrics) AddDrift(n int) {
	if m == nil || m.drift == nil || n <= 0 {
		return
	}
	m.drift.Add(float64(n))
}

func (m *InventoryMetrics) AddAlertsOpened(n int) {
	if m == nil || m.alerts == nil || n <= 0 {
		return
	}
	m.alerts.Add(float64(n))
}
