package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder            OutboxAggregateType = "order"
	AggregateStockAdjustment  OutboxAggregateType = "stock_adjustment"
	AggregateTransfer         OutboxAggregateType = "transfer"
	AggregateReservationAlert OutboxAggregateType = "reservation_alert"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateStockAdjustment,
	AggregateTransfer,
	AggregateReservationAlert,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated               OutboxEventType = "order_created"
	EventOrderUpdated               OutboxEventType = "order_updated"
	EventOrderDeleted               OutboxEventType = "order_deleted"
	EventOrderStatusChanged         OutboxEventType = "order_status_changed"
	EventOrderFinalizationRequested OutboxEventType = "order_finalization_requested"
	EventStockAdjusted              OutboxEventType = "stock_adjusted"
	EventStockTransferred           OutboxEventType = "stock_transferred"
	EventReservationAlertOpened     OutboxEventType = "reservation_alert_opened"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderUpdated,
	EventOrderDeleted,
	EventOrderStatusChanged,
	EventOrderFinalizationRequested,
	EventStockAdjusted,
	EventStockTransferred,
	EventReservationAlertOpened,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason explains why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
