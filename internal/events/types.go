package events

import "time"

// Topics, one per booking domain.
const (
	TopicAppointmentEvents = "appointments.events"
	TopicCarSharingEvents  = "carsharing.events"
)

// Event types.
const (
	SlotReserved  = "slot.reserved"
	SlotCancelled = "slot.cancelled"
	OwnerDeleted  = "owner.deleted"
)

// SlotReservationEvent is the payload of SlotReserved and SlotCancelled.
type SlotReservationEvent struct {
	Domain        string    `json:"domain"`
	SlotID        uint      `json:"slot_id"`
	OwnerID       uint      `json:"owner_id"`
	CustomerEmail string    `json:"customer_email"`
	StartsAt      time.Time `json:"starts_at"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// OwnerDeletedEvent is the payload of OwnerDeleted.
type OwnerDeletedEvent struct {
	Domain     string    `json:"domain"`
	OwnerID    uint      `json:"owner_id"`
	Category   string    `json:"category"`
	SlotIDs    []uint    `json:"slot_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}
