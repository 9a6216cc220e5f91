package booking

import (
	"fmt"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain"
)

// Slot is a bookable point in time owned by exactly one Owner.
// The owner reference is maintained by the repository, never by callers.
type Slot struct {
	id            uint
	ownerID       uint
	customerEmail string
	startsAt      time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSlot creates an unpersisted, available slot starting at the given time.
func NewSlot(startsAt time.Time) (*Slot, error) {
	if startsAt.IsZero() {
		return nil, domain.NewValidationError("slot time is required")
	}
	now := time.Now().UTC()
	return &Slot{
		startsAt:  startsAt.UTC(),
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructSlot rebuilds a Slot from persistence data (no validation).
func ReconstructSlot(
	id, ownerID uint,
	customerEmail string,
	startsAt time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Slot {
	return &Slot{
		id:            id,
		ownerID:       ownerID,
		customerEmail: customerEmail,
		startsAt:      startsAt.UTC(),
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the store-assigned identifier, or 0 if the slot was never persisted.
func (s *Slot) ID() uint { return s.id }

// OwnerID returns the identifier of the owning aggregate, or 0 if not yet attached.
func (s *Slot) OwnerID() uint { return s.ownerID }

// CustomerEmail returns the email of the reserving customer, or "" if available.
func (s *Slot) CustomerEmail() string { return s.customerEmail }

// StartsAt returns the point in time the slot is offered for.
func (s *Slot) StartsAt() time.Time { return s.startsAt }

// Version returns the reservation version, bumped on every reserve/cancel.
func (s *Slot) Version() int64 { return s.version }

// CreatedAt returns the creation timestamp.
func (s *Slot) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *Slot) UpdatedAt() time.Time { return s.updatedAt }

// IsPersisted reports whether the store has assigned an identifier.
func (s *Slot) IsPersisted() bool { return s.id != 0 }

// State derives the reservation state from the customer reference.
func (s *Slot) State() SlotState {
	if s.customerEmail == "" {
		return StateAvailable
	}
	return StateReserved
}

// IsAvailable reports whether no customer holds the slot.
func (s *Slot) IsAvailable() bool { return s.State() == StateAvailable }

// IsReservedBy reports whether the given customer holds the slot.
func (s *Slot) IsReservedBy(email string) bool {
	return email != "" && s.customerEmail == email
}

// --- Behavior ---

// AssignID records the store-assigned identifier. Identifiers never change once set.
func (s *Slot) AssignID(id uint) error {
	if id == 0 {
		return domain.NewValidationError("slot id must be non-zero")
	}
	if s.id != 0 && s.id != id {
		return domain.NewConflictError(fmt.Sprintf("slot already has id %d", s.id))
	}
	s.id = id
	return nil
}

// AttachTo sets the owner back-reference.
func (s *Slot) AttachTo(ownerID uint) {
	s.ownerID = ownerID
}

// Reschedule moves the slot to a new point in time.
func (s *Slot) Reschedule(startsAt time.Time) error {
	if startsAt.IsZero() {
		return domain.NewValidationError("slot time is required")
	}
	s.startsAt = startsAt.UTC()
	s.updatedAt = time.Now().UTC()
	return nil
}

// Reserve transitions the slot from available to reserved by the given customer.
func (s *Slot) Reserve(email string) error {
	if email == "" {
		return domain.NewValidationError("customer email is required")
	}
	if !s.State().CanTransitionTo(StateReserved) {
		return domain.NewInvalidStateError(string(s.State()), string(StateReserved))
	}
	s.customerEmail = email
	s.version++
	s.updatedAt = time.Now().UTC()
	return nil
}

// Release transitions the slot back to available. Only the reserving customer may release it.
func (s *Slot) Release(email string) error {
	if !s.State().CanTransitionTo(StateAvailable) {
		return domain.NewInvalidStateError(string(s.State()), string(StateAvailable))
	}
	if !s.IsReservedBy(email) {
		return domain.NewConflictError("slot is reserved by another customer")
	}
	s.customerEmail = ""
	s.version++
	s.updatedAt = time.Now().UTC()
	return nil
}

// SyncReservation overwrites the reservation fields with the state read back from the store.
func (s *Slot) SyncReservation(email string, version int64) {
	s.customerEmail = email
	s.version = version
	s.updatedAt = time.Now().UTC()
}
