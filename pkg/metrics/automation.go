package metrics

import "github.com/prometheus/client_golang/prometheus"

// Automation branch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// AutomationMetrics counts side-effect branch outcomes of the order
// automation dispatcher.
type AutomationMetrics struct {
	branches *prometheus.CounterVec
}

func NewAutomationMetrics(reg prometheus.Registerer) *AutomationMetrics {
	if reg == nil {
		return &AutomationMetrics{}
	}
	branches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_automation_branch_total",
		Help: "Order automation branch executions by outcome.",
	}, []string{"branch", "outcome"})
	reg.MustRegister(branches)
	return &AutomationMetrics{branches: branches}
}

// IncBranch records one outcome for the named branch.
func (a *AutomationMetrics) IncBranch(branch, outcome string) {
	if a == nil || a.branches == nil {
		return
	}
	a.branches.WithLabelValues(normalizeLabel(branch), normalizeLabel(outcome)).Inc()
}
