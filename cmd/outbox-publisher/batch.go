package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/registry"
)

// batch is one locked page of outbox rows. Rows arrive in created_at order;
// once a row fails, later rows sharing its ordering key are held for the next
// poll so subscribers never see them ahead of it.
type batch struct {
	s      *Service
	tx     *gorm.DB
	held   map[string]struct{}
	counts map[string]int
}

func newBatch(s *Service, tx *gorm.DB) *batch {
	return &batch{s: s, tx: tx, held: map[string]struct{}{}, counts: map[string]int{}}
}

// handle publishes one row and records its new state. The returned error is
// a storage failure that aborts the batch; publish failures are outcomes.
func (b *batch) handle(ctx context.Context, event models.OutboxEvent) (string, error) {
	outcome, err := b.route(ctx, event)
	if err == nil {
		b.counts[outcome]++
	}
	return outcome, err
}

func (b *batch) route(ctx context.Context, event models.OutboxEvent) (string, error) {
	resolved, err := b.s.registry.Resolve(event)
	if err != nil {
		return metrics.PublishDeadLettered, b.deadLetter(ctx, event, nil, enums.OutboxDLQReasonNonRetryable, err)
	}
	key := resolved.OrderingKey
	if _, ok := b.held[key]; ok && key != "" {
		return metrics.PublishHeld, nil
	}

	sendErr := b.s.send(ctx, event, resolved)
	if sendErr == nil {
		if err := b.s.repo.MarkPublishedTx(b.tx, event.ID, b.s.now()); err != nil {
			return "", fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		b.s.metrics.ObservePublishLag(string(event.EventType), b.s.now().Sub(event.CreatedAt))
		b.s.logg.Info(b.s.logg.WithFields(ctx, eventFields(event, resolved)), "outbox event published")
		return metrics.PublishPublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(sendErr, &nonRetry) {
		return metrics.PublishDeadLettered, b.deadLetter(ctx, event, resolved, enums.OutboxDLQReasonNonRetryable, sendErr)
	}

	if key != "" {
		b.held[key] = struct{}{}
	}
	attempts := event.AttemptCount + 1
	if attempts >= b.s.maxAttempts {
		cause := fmt.Errorf("max publish attempts reached: %w", sendErr)
		return metrics.PublishDeadLettered, b.deadLetter(ctx, event, resolved, enums.OutboxDLQReasonMaxAttempts, cause)
	}

	fields := eventFields(event, resolved)
	fields["attempt_count"] = attempts
	fields["error"] = sendErr.Error()
	b.s.logg.Warn(b.s.logg.WithFields(ctx, fields), "outbox publish failed")
	if err := b.s.repo.MarkFailedTx(b.tx, event.ID, sendErr); err != nil {
		return "", fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return metrics.PublishFailed, nil
}

// deadLetter copies the row into outbox_dlq and stops retrying it. resolved is
// nil when the row could not be decoded.
func (b *batch) deadLetter(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	fields := eventFields(event, resolved)
	fields["error_reason"] = reason
	logCtx := b.s.logg.WithFields(ctx, fields)
	if resolved != nil && resolved.Descriptor.Critical {
		b.s.logg.Error(logCtx, "critical outbox event dead-lettered", cause)
	} else {
		b.s.logg.Warn(b.s.logg.WithField(logCtx, "error", cause.Error()), "outbox event will not be retried")
	}

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      b.s.now(),
	}
	if err := b.s.dlq.InsertTx(b.tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := b.s.repo.MarkTerminalTx(b.tx, event.ID, cause, b.s.now()); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	b.s.metrics.IncDeadLettered(string(event.EventType), string(reason))
	return nil
}

func (b *batch) summary() map[string]any {
	fields := map[string]any{"held_keys": len(b.held)}
	for outcome, n := range b.counts {
		fields[outcome] = n
	}
	return fields
}

// send publishes on the row's topic and waits for the server ack. A failed
// publish pauses its ordering key in the client, so it is resumed here for the
// retry on the next poll.
func (s *Service) send(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: resolved.OrderingKey,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(ctx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := result.Get(ctx); err != nil {
		if msg.OrderingKey != "" {
			pub.ResumePublish(msg.OrderingKey)
		}
		return err
	}
	return nil
}

func eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved == nil {
		return fields
	}
	fields["topic"] = resolved.Descriptor.Topic
	fields["ordering_key"] = resolved.OrderingKey
	if resolved.Envelope.EventID != "" {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	return fields
}
