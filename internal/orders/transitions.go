package orders

import (
	"slices"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// transitions is the order status machine. DELIVERED, CANCELLED and
// COMPLETED have no outgoing edges.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
	enums.OrderStatusCompleted:  {},
}

// AllowedNext returns the statuses reachable from current in one step.
func AllowedNext(current enums.OrderStatus) []enums.OrderStatus {
	return slices.Clone(transitions[current])
}

// CanTransition reports whether current -> next is an edge of the machine.
func CanTransition(current, next enums.OrderStatus) bool {
	return slices.Contains(transitions[current], next)
}

// deletableStatuses are the states in which an order may be soft-deleted.
var deletableStatuses = []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusCancelled}
