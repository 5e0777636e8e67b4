package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/backoffice-backend/pkg/redis"
)

// ClaimResult says what a delivery may do with an event.
type ClaimResult int

const (
	// Claimed means this delivery owns the event until it completes or
	// releases it, or the lease runs out.
	Claimed ClaimResult = iota
	// InFlight means another delivery holds the lease. The message should be
	// redelivered later, not dropped.
	InFlight
	// Processed means the event's effects already ran.
	Processed
)

func (r ClaimResult) String() string {
	switch r {
	case Claimed:
		return "claimed"
	case InFlight:
		return "in_flight"
	case Processed:
		return "processed"
	default:
		return fmt.Sprintf("claim(%d)", int(r))
	}
}

// Manager records which events a consumer has handled. An event is claimed
// with a short lease before its effects run and marked processed only after
// they finish, so a lost release costs one lease of delay rather than the
// effect itself.
//
// Keys:
//
//	bo:idempotency:evt:claim:<consumer>:<event_id>      lease, leaseTTL
//	bo:idempotency:evt:processed:<consumer>:<event_id>  done marker, ttl
type Manager struct {
	store    redis.IdempotencyStore
	ttl      time.Duration
	leaseTTL time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl, leaseTTL time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if leaseTTL <= 0 {
		return nil, errors.New("lease ttl must be positive")
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		leaseTTL: leaseTTL,
	}, nil
}

// Claim checks the done marker and then takes the lease.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (ClaimResult, error) {
	done, lease, err := m.keys(consumer, eventID)
	if err != nil {
		return Claimed, err
	}
	if _, err := m.store.Get(ctx, done); err == nil {
		return Processed, nil
	} else if !errors.Is(err, goredis.Nil) {
		return Claimed, fmt.Errorf("read processed marker: %w", err)
	}
	set, err := m.store.SetNX(ctx, lease, "1", m.leaseTTL)
	if err != nil {
		return Claimed, fmt.Errorf("claim event: %w", err)
	}
	if !set {
		return InFlight, nil
	}
	return Claimed, nil
}

// Complete writes the done marker and drops the lease. A failed lease delete
// is reported but harmless: the marker already short-circuits redeliveries.
func (m *Manager) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	done, lease, err := m.keys(consumer, eventID)
	if err != nil {
		return err
	}
	if _, err := m.store.SetNX(ctx, done, "1", m.ttl); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if err := m.store.Del(ctx, lease); err != nil {
		return fmt.Errorf("drop event lease: %w", err)
	}
	return nil
}

// Release gives the lease back so a redelivery can retry at once.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	_, lease, err := m.keys(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, lease)
}

// LeaseTTL is how long a redelivery waits when a release is lost.
func (m *Manager) LeaseTTL() time.Duration {
	return m.leaseTTL
}

func (m *Manager) keys(consumer string, eventID uuid.UUID) (done, lease string, err error) {
	if consumer == "" {
		return "", "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", "", errors.New("event id is required")
	}
	id := eventID.String()
	done = m.store.IdempotencyKey(fmt.Sprintf("evt:processed:%s", consumer), id)
	lease = m.store.IdempotencyKey(fmt.Sprintf("evt:claim:%s", consumer), id)
	return done, lease, nil
}
