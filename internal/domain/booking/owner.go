// Package booking implements the aggregate shared by every slot-offering domain:
// an Owner (provider, car) that exclusively owns a collection of bookable Slots.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain"
)

// Category is the typed enum classifying an owner, e.g. a provider type or a vehicle type.
type Category interface {
	~string
	IsValid() bool
}

// Owner is the aggregate root for a collection of bookable slots.
type Owner[K Category] struct {
	id        uint
	category  K
	location  string
	slots     []*Slot
	createdAt time.Time
	updatedAt time.Time
}

// NewOwner creates a new, unpersisted owner without slots.
func NewOwner[K Category](category K, location string) (*Owner[K], error) {
	if !category.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid category: %s", category))
	}
	if strings.TrimSpace(location) == "" {
		return nil, domain.NewValidationError("location is required")
	}

	now := time.Now().UTC()
	return &Owner[K]{
		category:  category,
		location:  location,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructOwner rebuilds an Owner from persistence data (no validation).
func ReconstructOwner[K Category](
	id uint,
	category K,
	location string,
	slots []*Slot,
	createdAt, updatedAt time.Time,
) *Owner[K] {
	return &Owner[K]{
		id:        id,
		category:  category,
		location:  location,
		slots:     slots,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

// ID returns the store-assigned identifier, or 0 if the owner was never persisted.
func (o *Owner[K]) ID() uint { return o.id }

// Category returns the owner's category.
func (o *Owner[K]) Category() K { return o.category }

// Location returns the free-text address or location of the owner.
func (o *Owner[K]) Location() string { return o.location }

// CreatedAt returns the creation timestamp.
func (o *Owner[K]) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (o *Owner[K]) UpdatedAt() time.Time { return o.updatedAt }

// Slots returns a copy of the owned slot collection.
func (o *Owner[K]) Slots() []*Slot {
	out := make([]*Slot, len(o.slots))
	copy(out, o.slots)
	return out
}

// IsPersisted reports whether the store has assigned an identifier.
func (o *Owner[K]) IsPersisted() bool { return o.id != 0 }

// --- Behavior ---

// AssignID records the store-assigned identifier. Identifiers never change once set.
func (o *Owner[K]) AssignID(id uint) error {
	if id == 0 {
		return domain.NewValidationError("owner id must be non-zero")
	}
	if o.id != 0 && o.id != id {
		return domain.NewConflictError(fmt.Sprintf("owner already has id %d", o.id))
	}
	o.id = id
	return nil
}

// Recategorize changes the owner's category.
func (o *Owner[K]) Recategorize(category K) error {
	if !category.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid category: %s", category))
	}
	o.category = category
	o.updatedAt = time.Now().UTC()
	return nil
}

// Relocate changes the owner's address or location.
func (o *Owner[K]) Relocate(location string) error {
	if strings.TrimSpace(location) == "" {
		return domain.NewValidationError("location is required")
	}
	o.location = location
	o.updatedAt = time.Now().UTC()
	return nil
}

// AddSlot appends a slot to the collection. It returns false if the slot (or another
// slot with the same non-zero identifier) is already part of it.
func (o *Owner[K]) AddSlot(s *Slot) bool {
	if s == nil || o.indexOf(s) >= 0 {
		return false
	}
	o.slots = append(o.slots, s)
	return true
}

// RemoveSlot drops a slot from the collection. The store removes it on the next update.
func (o *Owner[K]) RemoveSlot(s *Slot) bool {
	if s == nil {
		return false
	}
	i := o.indexOf(s)
	if i < 0 {
		return false
	}
	o.slots = append(o.slots[:i], o.slots[i+1:]...)
	return true
}

// ReplaceSlots swaps the whole collection, used by repositories after reconciliation.
func (o *Owner[K]) ReplaceSlots(slots []*Slot) {
	o.slots = slots
}

func (o *Owner[K]) indexOf(s *Slot) int {
	for i, existing := range o.slots {
		if existing == s || (s.id != 0 && existing.id == s.id) {
			return i
		}
	}
	return -1
}
