package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func ExampleManager_Claim() {
	ctx := context.Background()
	manager, _ := NewManager(newFakeStore(), 7*24*time.Hour, 2*time.Minute)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	first, _ := manager.Claim(ctx, "automation-worker", eventID)
	redelivered, _ := manager.Claim(ctx, "automation-worker", eventID)
	_ = manager.Complete(ctx, "automation-worker", eventID)
	late, _ := manager.Claim(ctx, "automation-worker", eventID)

	fmt.Println(first)
	fmt.Println(redelivered)
	fmt.Println(late)
	// Output:
	// claimed
	// in_flight
	// processed
}
