package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
	// OrderingKey picks the Pub/Sub ordering stream from the decoded payload.
	// Nil keys by aggregate id.
	OrderingKey func(event models.OutboxEvent, payload interface{}) string
	// Critical events drive stock side effects downstream; losing one needs
	// an operator.
	Critical bool
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
	// OrderingKey is the Pub/Sub ordering stream. Events sharing it are
	// delivered, and held back on failure, in outbox order.
	OrderingKey string
}

func branchKey(id uuid.UUID) string {
	return "branch:" + id.String()
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.InventoryTopic == "" {
		return nil, fmt.Errorf("inventory topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	ordersTopic := cfg.OrdersTopic
	inventoryTopic := cfg.InventoryTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventOrderUpdated,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderUpdatedEvent{} },
		},
		{
			EventType:      enums.EventOrderDeleted,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderDeletedEvent{} },
		},
		{
			EventType:      enums.EventOrderStatusChanged,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderStatusChangedEvent{} },
			Critical:       true,
		},
		{
			EventType:      enums.EventOrderFinalizationRequested,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderFinalizationRequestedEvent{} },
			Critical:       true,
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		// Stock movements of one branch stay in order so a consumer can
		// rebuild its counters.
		{
			EventType:      enums.EventStockAdjusted,
			AggregateType:  enums.AggregateStockAdjustment,
			Topic:          inventoryTopic,
			PayloadFactory: func() interface{} { return &payloads.StockAdjustedEvent{} },
			OrderingKey: func(_ models.OutboxEvent, payload interface{}) string {
				return branchKey(payload.(*payloads.StockAdjustedEvent).BranchID)
			},
		},
		{
			EventType:      enums.EventStockTransferred,
			AggregateType:  enums.AggregateTransfer,
			Topic:          inventoryTopic,
			PayloadFactory: func() interface{} { return &payloads.StockTransferredEvent{} },
			OrderingKey: func(_ models.OutboxEvent, payload interface{}) string {
				return branchKey(payload.(*payloads.StockTransferredEvent).FromBranchID)
			},
		},
		{
			EventType:      enums.EventReservationAlertOpened,
			AggregateType:  enums.AggregateReservationAlert,
			Topic:          inventoryTopic,
			PayloadFactory: func() interface{} { return &payloads.ReservationAlertOpenedEvent{} },
			OrderingKey: func(_ models.OutboxEvent, payload interface{}) string {
				return "order:" + payload.(*payloads.ReservationAlertOpenedEvent).OrderID.String()
			},
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	key := event.AggregateID.String()
	if desc.OrderingKey != nil {
		key = desc.OrderingKey(event, payload)
	}
	return &ResolvedEvent{
		Descriptor:  desc,
		Envelope:    envelope,
		Payload:     payload,
		OrderingKey: key,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
