package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"gorm.io/gorm"
)

// GormOwnerRepository is the GORM-based implementation of OwnerRepository for one schema.
// Slots are owned by their owner: they are created, reconciled and deleted with it.
type GormOwnerRepository[K booking.Category] struct {
	session *database.Session
	schema  booking.Schema
}

// NewGormOwnerRepository creates a new GormOwnerRepository.
func NewGormOwnerRepository[K booking.Category](session *database.Session, schema booking.Schema) *GormOwnerRepository[K] {
	return &GormOwnerRepository[K]{session: session, schema: schema}
}

// slotBinding pairs an in-memory slot with the row it was written to. Bindings are
// applied to the caller's objects only after the transaction succeeded.
type slotBinding struct {
	slot  *booking.Slot
	model SlotModel
}

// Create persists a new owner and cascades the insert to its slots. Slots that already
// exist are moved under the new owner.
func (r *GormOwnerRepository[K]) Create(ctx context.Context, owner *booking.Owner[K]) (bool, error) {
	if owner == nil {
		return false, nil
	}

	slots := distinctSlots(owner.Slots())
	var (
		created  bool
		ownerID  uint
		bindings []slotBinding
	)
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		if owner.ID() != 0 {
			existing, err := r.findOwner(tx, owner.ID())
			if err != nil {
				return err
			}
			if existing != nil {
				return nil
			}
		}

		model := toOwnerModel(owner)
		if err := r.owners(tx).Create(model).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", r.entity(), err)
		}
		if owner.ID() != 0 {
			if err := database.AdvanceSequence(tx, r.schema.OwnerTable, model.ID); err != nil {
				return err
			}
		}

		var err error
		bindings, err = r.attachSlots(tx, model.ID, slots, nil)
		if err != nil {
			return err
		}
		ownerID = model.ID
		created = true
		return nil
	})
	if err != nil || !created {
		return false, err
	}

	if err := owner.AssignID(ownerID); err != nil {
		return false, err
	}
	if err := applyBindings(bindings); err != nil {
		return false, err
	}
	owner.ReplaceSlots(slots)
	return true, nil
}

// Read retrieves an owner and its slots ordered by start time.
func (r *GormOwnerRepository[K]) Read(ctx context.Context, id uint) (*booking.Owner[K], error) {
	if id == 0 {
		return nil, nil
	}
	db, err := r.session.DB(ctx)
	if err != nil {
		return nil, err
	}
	return r.read(db, id)
}

// Update overwrites the owner's attributes and reconciles its slot collection: stored
// slots missing from the collection are deleted, new ones are inserted and the rest
// are updated. Reservations held by kept slots are preserved.
func (r *GormOwnerRepository[K]) Update(ctx context.Context, owner *booking.Owner[K]) (*booking.Owner[K], error) {
	if owner == nil {
		return nil, nil
	}

	slots := distinctSlots(owner.Slots())
	var (
		updated  *booking.Owner[K]
		bindings []slotBinding
	)
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := r.lockOwner(tx, owner.ID())
		if err != nil {
			return err
		}

		if err := r.owners(tx).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"category":   string(owner.Category()),
				"location":   owner.Location(),
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return fmt.Errorf("failed to update %s: %w", r.entity(), err)
		}

		stored, err := r.loadSlots(tx, existing.ID)
		if err != nil {
			return err
		}
		storedByID := make(map[uint]SlotModel, len(stored))
		for _, m := range stored {
			storedByID[m.ID] = m
		}

		kept := make(map[uint]bool, len(slots))
		for _, s := range slots {
			if _, ok := storedByID[s.ID()]; ok {
				kept[s.ID()] = true
			}
		}
		var orphans []uint
		for id := range storedByID {
			if !kept[id] {
				orphans = append(orphans, id)
			}
		}
		if len(orphans) > 0 {
			sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
			if err := r.slots(tx).Where("id IN ?", orphans).Delete(&SlotModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete orphaned %s slots: %w", r.entity(), err)
			}
		}

		bindings, err = r.attachSlots(tx, existing.ID, slots, storedByID)
		if err != nil {
			return err
		}

		updated, err = r.read(tx, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := applyBindings(bindings); err != nil {
		return nil, err
	}
	owner.ReplaceSlots(slots)
	return updated, nil
}

// Delete removes an owner together with all of its slots. Afterwards the owner holds
// exactly the slots that were removed from the store.
func (r *GormOwnerRepository[K]) Delete(ctx context.Context, owner *booking.Owner[K]) (bool, error) {
	if owner == nil {
		return false, nil
	}

	var removed []SlotModel
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := r.lockOwner(tx, owner.ID())
		if err != nil {
			return err
		}
		removed, err = r.loadSlots(tx, existing.ID)
		if err != nil {
			return err
		}
		if err := r.slots(tx).Where("owner_id = ?", existing.ID).Delete(&SlotModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete %s slots: %w", r.entity(), err)
		}
		if err := r.owners(tx).Where("id = ?", existing.ID).Delete(&OwnerModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete %s: %w", r.entity(), err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	owner.ReplaceSlots(detachedSlots(owner.Slots(), removed))
	return true, nil
}

// --- helpers ---

func (r *GormOwnerRepository[K]) owners(tx *gorm.DB) *gorm.DB {
	return tx.Table(r.schema.OwnerTable)
}

func (r *GormOwnerRepository[K]) slots(tx *gorm.DB) *gorm.DB {
	return tx.Table(r.schema.SlotTable)
}

func (r *GormOwnerRepository[K]) entity() string {
	return strings.ToLower(r.schema.OwnerEntity)
}

func (r *GormOwnerRepository[K]) read(tx *gorm.DB, id uint) (*booking.Owner[K], error) {
	model, err := r.findOwner(tx, id)
	if err != nil || model == nil {
		return nil, err
	}
	slots, err := r.loadSlots(tx, id)
	if err != nil {
		return nil, err
	}
	return toOwnerDomain[K](model, slots), nil
}

// findOwner returns nil without error when the owner does not exist.
func (r *GormOwnerRepository[K]) findOwner(tx *gorm.DB, id uint) (*OwnerModel, error) {
	var model OwnerModel
	if err := r.owners(tx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s by id: %w", r.entity(), err)
	}
	return &model, nil
}

// lockOwner loads the owner for writing and fails with a not-found error when the
// owner was never stored or has been deleted.
func (r *GormOwnerRepository[K]) lockOwner(tx *gorm.DB, id uint) (*OwnerModel, error) {
	if id == 0 {
		return nil, domain.NewNotFoundError(r.schema.OwnerEntity, "0")
	}
	model, err := r.findOwner(database.ForUpdate(tx), id)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, domain.NewNotFoundError(r.schema.OwnerEntity, strconv.FormatUint(uint64(id), 10))
	}
	return model, nil
}

func (r *GormOwnerRepository[K]) loadSlots(tx *gorm.DB, ownerID uint) ([]SlotModel, error) {
	var models []SlotModel
	if err := r.slots(tx).
		Where("owner_id = ?", ownerID).
		Order("starts_at, id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s slots: %w", r.entity(), err)
	}
	return models, nil
}

// lockedSlot selects one slot row for writing, so a slot moved from another owner
// cannot be reserved, moved or deleted concurrently.
func (r *GormOwnerRepository[K]) lockedSlot(tx *gorm.DB, id uint) *gorm.DB {
	return r.slots(database.ForUpdate(tx)).Where("id = ?", id)
}

func (r *GormOwnerRepository[K]) findSlot(tx *gorm.DB, id uint) (*SlotModel, error) {
	var model SlotModel
	if err := r.lockedSlot(tx, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s slot by id: %w", r.entity(), err)
	}
	return &model, nil
}

// attachSlots writes every slot under ownerID. Slots already stored (in known, or
// anywhere in the slot table) keep their reservation and are re-parented; all others
// are inserted as available.
func (r *GormOwnerRepository[K]) attachSlots(tx *gorm.DB, ownerID uint, slots []*booking.Slot, known map[uint]SlotModel) ([]slotBinding, error) {
	now := time.Now().UTC()
	bindings := make([]slotBinding, 0, len(slots))

	for _, s := range slots {
		if s.ID() != 0 {
			existing, ok := known[s.ID()]
			if !ok {
				found, err := r.findSlot(tx, s.ID())
				if err != nil {
					return nil, err
				}
				if found != nil {
					existing, ok = *found, true
				}
			}
			if ok {
				if err := r.slots(tx).
					Where("id = ?", s.ID()).
					Updates(map[string]interface{}{
						"owner_id":   ownerID,
						"starts_at":  s.StartsAt(),
						"updated_at": now,
					}).Error; err != nil {
					return nil, fmt.Errorf("failed to update %s slot: %w", r.entity(), err)
				}
				existing.OwnerID = ownerID
				existing.StartsAt = s.StartsAt()
				existing.UpdatedAt = now
				bindings = append(bindings, slotBinding{slot: s, model: existing})
				continue
			}
		}

		model := SlotModel{
			ID:       s.ID(),
			OwnerID:  ownerID,
			StartsAt: s.StartsAt(),
			Version:  1,
		}
		if err := r.slots(tx).Create(&model).Error; err != nil {
			return nil, fmt.Errorf("failed to create %s slot: %w", r.entity(), err)
		}
		if s.ID() != 0 {
			if err := database.AdvanceSequence(tx, r.schema.SlotTable, model.ID); err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, slotBinding{slot: s, model: model})
	}
	return bindings, nil
}

func applyBindings(bindings []slotBinding) error {
	for _, b := range bindings {
		if err := b.slot.AssignID(b.model.ID); err != nil {
			return err
		}
		b.slot.AttachTo(b.model.OwnerID)
		b.slot.SyncReservation(deref(b.model.CustomerEmail), b.model.Version)
	}
	return nil
}

// detachedSlots maps deleted rows back onto the caller's slots where possible, so
// the owner keeps its own objects for rows it knew about.
func detachedSlots(current []*booking.Slot, removed []SlotModel) []*booking.Slot {
	byID := make(map[uint]*booking.Slot, len(current))
	for _, s := range current {
		if s != nil && s.ID() != 0 {
			byID[s.ID()] = s
		}
	}
	out := make([]*booking.Slot, 0, len(removed))
	for i := range removed {
		if s, ok := byID[removed[i].ID]; ok {
			s.SyncReservation(deref(removed[i].CustomerEmail), removed[i].Version)
			out = append(out, s)
			continue
		}
		out = append(out, toSlotDomain(&removed[i]))
	}
	return out
}

// distinctSlots drops nil entries and collapses duplicates (same object or same
// stored identifier). The first occurrence wins.
func distinctSlots(slots []*booking.Slot) []*booking.Slot {
	seen := make(map[*booking.Slot]bool, len(slots))
	seenIDs := make(map[uint]bool, len(slots))
	out := make([]*booking.Slot, 0, len(slots))
	for _, s := range slots {
		if s == nil || seen[s] || (s.ID() != 0 && seenIDs[s.ID()]) {
			continue
		}
		seen[s] = true
		if s.ID() != 0 {
			seenIDs[s.ID()] = true
		}
		out = append(out, s)
	}
	return out
}
