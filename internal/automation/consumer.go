package automation

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/registry"
)

const automationConsumer = "automation-worker"

type dispatcher interface {
	Dispatch(ctx context.Context, event payloads.OrderStatusChangedEvent) Report
}

// Consumer feeds order_status_changed events from Pub/Sub into the dispatcher
// when automation runs out of process.
type Consumer struct {
	dispatcher   dispatcher
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

func NewConsumer(d dispatcher, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("automation subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		dispatcher:   d,
		subscription: subscription,
		idempotency:  manager,
		decoders:     registry.NewConsumerDecoderRegistry(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderStatusChanged) {
		c.logg.Debug(logCtx, "skipping non status-change event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	decoded, err := c.decoders.Decode(enums.EventOrderStatusChanged, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	event, ok := decoded.(*payloads.OrderStatusChangedEvent)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", fmt.Errorf("%T", decoded))
		return processResult{ack: true}
	}
	if event.TraceID == "" {
		event.TraceID = envelope.TraceID
	}

	claim, err := c.idempotency.Claim(ctx, automationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	switch claim {
	case idempotency.Processed:
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	case idempotency.InFlight:
		c.logg.Info(logCtx, "event claimed by another delivery")
		return processResult{nack: true}
	}

	report := c.dispatcher.Dispatch(ctx, *event)
	if report.Err != nil && retryable(report.Err) {
		c.logg.Warn(logCtx, "automation will be retried")
		if err := c.idempotency.Release(ctx, automationConsumer, eventID); err != nil {
			failCtx := c.logg.WithFields(logCtx, map[string]any{"retry_after": c.idempotency.LeaseTTL().String()})
			c.logg.Error(failCtx, "failed to release event claim", err)
		}
		return processResult{nack: true}
	}
	if err := c.idempotency.Complete(ctx, automationConsumer, eventID); err != nil {
		c.logg.Error(logCtx, "failed to record processed event", err)
	}
	return processResult{ack: true}
}

// retryable reports whether any branch failed with a transient error.
// Business rejections such as insufficient stock are final.
func retryable(err error) bool {
	for _, e := range multierr.Errors(err) {
		typed := pkgerrors.As(e)
		if typed == nil {
			continue
		}
		if pkgerrors.MetadataFor(typed.Code()).Retryable {
			return true
		}
	}
	return false
}
