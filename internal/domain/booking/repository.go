package booking

import (
	"context"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain/customer"
)

// OwnerRepository defines the cascade-aware persistence contract for an owner and its slots.
type OwnerRepository[K Category] interface {
	// Create persists a new owner together with its slots. It returns false without
	// touching the store for nil or already known owners.
	Create(ctx context.Context, owner *Owner[K]) (bool, error)

	// Read returns the owner with its current slots, or nil if unknown.
	Read(ctx context.Context, id uint) (*Owner[K], error)

	// Update reconciles the owner and its slot collection against the store.
	Update(ctx context.Context, owner *Owner[K]) (*Owner[K], error)

	// Delete removes the owner and every slot it owns.
	Delete(ctx context.Context, owner *Owner[K]) (bool, error)
}

// SlotQuery defines the read-only searches over owners and their slots.
type SlotQuery[K Category] interface {
	// FindOwners returns owners of the category whose location contains the fragment.
	FindOwners(ctx context.Context, category K, fragment string) ([]*Owner[K], error)

	// FindAvailableAt returns available slots of owners whose location contains the fragment.
	FindAvailableAt(ctx context.Context, fragment string) ([]*Slot, error)

	// FindAvailable returns every available slot.
	FindAvailable(ctx context.Context) ([]*Slot, error)

	// FindAvailableBetween returns available slots inside the inclusive range.
	FindAvailableBetween(ctx context.Context, from, to *time.Time) ([]*Slot, error)

	// FindReservedBy returns every slot reserved by the customer.
	FindReservedBy(ctx context.Context, c *customer.Customer) ([]*Slot, error)

	// FindSlot returns one slot by id, or nil if unknown.
	FindSlot(ctx context.Context, id uint) (*Slot, error)
}

// ReservationRepository defines the atomic assign/unassign protocol of a customer to a slot.
type ReservationRepository interface {
	// Reserve assigns the customer to an available slot.
	Reserve(ctx context.Context, schema Schema, slot *Slot, c *customer.Customer) (bool, error)

	// Cancel releases a slot held by the customer.
	Cancel(ctx context.Context, schema Schema, slot *Slot, c *customer.Customer) (bool, error)
}
