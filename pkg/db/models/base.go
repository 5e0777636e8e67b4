package models

import "github.com/google/uuid"

// ensureID assigns a random id when the caller left it unset. Postgres also
// defaults ids via gen_random_uuid(); sqlite has no such function.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Organization{},
		&Branch{},
		&Customer{},
		&Product{},
		&ProductVariant{},
		&CodeSequence{},
		&Order{},
		&OrderItem{},
		&OrderStatusTransition{},
		&InventoryRecord{},
		&StockAdjustment{},
		&StockAdjustmentItem{},
		&OrderInventoryReservation{},
		&Transfer{},
		&ReservationAlert{},
		&CustomerLedgerEntry{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
