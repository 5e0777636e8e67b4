// Package automation runs the side effects of order status changes: stock
// reservation on PROCESSING, stock return on cancellation from PROCESSING and
// finalization on COMPLETED. Each branch is isolated; a failing branch is
// logged and counted but never undoes the committed transition.
package automation

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/multierr"

	"github.com/angelmondragon/backoffice-backend/internal/inventory"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
)

// Branch names, also used as metric labels.
const (
	BranchReserveStock = "reserve_stock"
	BranchReleaseStock = "release_stock"
	BranchFinalize     = "finalize"
)

type stockLedger interface {
	ReserveForOrder(ctx context.Context, input inventory.ReserveInput) (*inventory.ReserveResult, error)
	ReleaseForOrder(ctx context.Context, input inventory.ReleaseInput) (*inventory.ReleaseResult, error)
}

// Finalizer hands a completed order to settlement.
type Finalizer interface {
	Finalize(ctx context.Context, event payloads.OrderStatusChangedEvent) error
}

type branch struct {
	name    string
	matches func(event payloads.OrderStatusChangedEvent) bool
	run     func(ctx context.Context, event payloads.OrderStatusChangedEvent) error
}

// BranchResult is the outcome of one branch for one event.
type BranchResult struct {
	Branch  string
	Outcome string
	Err     error
}

// Report collects branch outcomes. Err combines every branch failure.
type Report struct {
	Results []BranchResult
	Err     error
}

// Dispatcher routes order_status_changed events to their side effects.
type Dispatcher struct {
	branches []branch
	logg     *logger.Logger
	metrics  *metrics.AutomationMetrics
}

// NewDispatcher wires the dispatcher branches.
func NewDispatcher(stock stockLedger, finalizer Finalizer, logg *logger.Logger, m *metrics.AutomationMetrics) (*Dispatcher, error) {
	if stock == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if finalizer == nil {
		return nil, fmt.Errorf("finalizer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	d := &Dispatcher{logg: logg, metrics: m}
	d.branches = []branch{
		{
			name: BranchReserveStock,
			matches: func(e payloads.OrderStatusChangedEvent) bool {
				return e.NextStatus == enums.OrderStatusProcessing
			},
			run: func(ctx context.Context, e payloads.OrderStatusChangedEvent) error {
				_, err := stock.ReserveForOrder(ctx, inventory.ReserveInput{
					OrganizationID: e.OrganizationID,
					OrderID:        e.OrderID,
					ActorID:        e.ActorID,
				})
				return err
			},
		},
		{
			name: BranchReleaseStock,
			matches: func(e payloads.OrderStatusChangedEvent) bool {
				return e.NextStatus == enums.OrderStatusCancelled && e.PreviousStatus == enums.OrderStatusProcessing
			},
			run: func(ctx context.Context, e payloads.OrderStatusChangedEvent) error {
				_, err := stock.ReleaseForOrder(ctx, inventory.ReleaseInput{
					OrganizationID: e.OrganizationID,
					OrderID:        e.OrderID,
					Outcome:        enums.ReservationStatusReturned,
					ActorID:        e.ActorID,
				})
				return err
			},
		},
		{
			name: BranchFinalize,
			matches: func(e payloads.OrderStatusChangedEvent) bool {
				return e.NextStatus == enums.OrderStatusCompleted
			},
			run: finalizer.Finalize,
		},
	}
	return d, nil
}

// OnStatusChanged runs the matching branches after the transition committed.
// The request context's cancellation is dropped so a disconnecting client
// does not abort a reservation midway.
func (d *Dispatcher) OnStatusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent) {
	d.Dispatch(context.WithoutCancel(ctx), event)
}

// Dispatch runs every matching branch and reports each outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, event payloads.OrderStatusChangedEvent) Report {
	ctx = d.logg.WithFields(ctx, map[string]any{
		"order_id":        event.OrderID.String(),
		"organization_id": event.OrganizationID.String(),
		"previous_status": event.PreviousStatus,
		"next_status":     event.NextStatus,
		"trace_id":        event.TraceID,
	})

	var report Report
	for _, b := range d.branches {
		if !b.matches(event) {
			continue
		}
		result := d.runBranch(ctx, b, event)
		report.Results = append(report.Results, result)
		if result.Err != nil {
			report.Err = multierr.Append(report.Err, fmt.Errorf("%s: %w", b.name, result.Err))
		}
	}
	return report
}

func (d *Dispatcher) runBranch(ctx context.Context, b branch, event payloads.OrderStatusChangedEvent) (result BranchResult) {
	result.Branch = b.name
	branchCtx := d.logg.WithField(ctx, "branch", b.name)

	defer func() {
		if r := recover(); r != nil {
			result.Outcome = metrics.OutcomePanic
			result.Err = fmt.Errorf("panic: %v", r)
			d.logg.Error(d.logg.WithField(branchCtx, "panic_stack", string(debug.Stack())), "automation.branch_panic", result.Err)
		}
		d.metrics.IncBranch(b.name, result.Outcome)
	}()

	if err := b.run(branchCtx, event); err != nil {
		result.Outcome = metrics.OutcomeFailure
		result.Err = err
		d.logg.Error(branchCtx, "automation.branch_failed", err)
		return result
	}
	result.Outcome = metrics.OutcomeSuccess
	d.logg.Info(branchCtx, "automation.branch_succeeded")
	return result
}
