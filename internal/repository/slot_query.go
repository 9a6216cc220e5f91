package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"gorm.io/gorm"
)

// GormSlotQuery implements the read-only searches of one schema. Slot results are
// ordered by start time, then by id.
type GormSlotQuery[K booking.Category] struct {
	session *database.Session
	schema  booking.Schema
}

// NewGormSlotQuery creates a new GormSlotQuery.
func NewGormSlotQuery[K booking.Category](session *database.Session, schema booking.Schema) *GormSlotQuery[K] {
	return &GormSlotQuery[K]{session: session, schema: schema}
}

// FindOwners returns the owners of category whose location contains fragment, ignoring case.
func (q *GormSlotQuery[K]) FindOwners(ctx context.Context, category K, fragment string) ([]*booking.Owner[K], error) {
	if string(category) == "" || fragment == "" {
		return []*booking.Owner[K]{}, nil
	}
	db, err := q.session.DB(ctx)
	if err != nil {
		return nil, err
	}

	var owners []OwnerModel
	if err := db.Table(q.schema.OwnerTable).
		Where("category = ?", string(category)).
		Where("LOWER(location) "+likeEscaped, containsPattern(fragment)).
		Order("id").
		Find(&owners).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s owners: %w", q.schema.Name, err)
	}
	if len(owners) == 0 {
		return []*booking.Owner[K]{}, nil
	}

	ids := make([]uint, len(owners))
	for i, o := range owners {
		ids[i] = o.ID
	}
	var slots []SlotModel
	if err := db.Table(q.schema.SlotTable).
		Where("owner_id IN ?", ids).
		Order("starts_at, id").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s slots: %w", q.schema.Name, err)
	}
	byOwner := make(map[uint][]SlotModel, len(owners))
	for _, s := range slots {
		byOwner[s.OwnerID] = append(byOwner[s.OwnerID], s)
	}

	result := make([]*booking.Owner[K], len(owners))
	for i := range owners {
		result[i] = toOwnerDomain[K](&owners[i], byOwner[owners[i].ID])
	}
	return result, nil
}

// FindAvailableAt returns the available slots of owners whose location contains fragment.
func (q *GormSlotQuery[K]) FindAvailableAt(ctx context.Context, fragment string) ([]*booking.Slot, error) {
	if fragment == "" {
		return []*booking.Slot{}, nil
	}
	return q.findSlots(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Table(q.schema.SlotTable+" AS s").
			Select("s.*").
			Joins("JOIN "+q.schema.OwnerTable+" AS o ON o.id = s.owner_id").
			Where("s.customer_email IS NULL").
			Where("LOWER(o.location) "+likeEscaped, containsPattern(fragment)).
			Order("s.starts_at, s.id")
	})
}

// FindAvailable returns every slot without a customer.
func (q *GormSlotQuery[K]) FindAvailable(ctx context.Context) ([]*booking.Slot, error) {
	return q.findSlots(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Table(q.schema.SlotTable).
			Where("customer_email IS NULL").
			Order("starts_at, id")
	})
}

// FindAvailableBetween returns the available slots starting inside [from, to]. A nil
// bound is open on that side.
func (q *GormSlotQuery[K]) FindAvailableBetween(ctx context.Context, from, to *time.Time) ([]*booking.Slot, error) {
	lower, upper := booking.Normalize(from, to)
	return q.findSlots(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Table(q.schema.SlotTable).
			Where("customer_email IS NULL").
			Where("starts_at >= ? AND starts_at <= ?", lower, upper).
			Order("starts_at, id")
	})
}

// FindReservedBy returns every slot held by the customer.
func (q *GormSlotQuery[K]) FindReservedBy(ctx context.Context, c *customer.Customer) ([]*booking.Slot, error) {
	if !c.HasIdentity() {
		return []*booking.Slot{}, nil
	}
	return q.findSlots(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Table(q.schema.SlotTable).
			Where("customer_email = ?", c.Email()).
			Order("starts_at, id")
	})
}

// FindSlot returns the slot with the given id, or nil if it does not exist.
func (q *GormSlotQuery[K]) FindSlot(ctx context.Context, id uint) (*booking.Slot, error) {
	if id == 0 {
		return nil, nil
	}
	found, err := q.findSlots(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Table(q.schema.SlotTable).Where("id = ?", id).Limit(1)
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (q *GormSlotQuery[K]) findSlots(ctx context.Context, build func(db *gorm.DB) *gorm.DB) ([]*booking.Slot, error) {
	db, err := q.session.DB(ctx)
	if err != nil {
		return nil, err
	}
	var models []SlotModel
	if err := build(db).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s slots: %w", q.schema.Name, err)
	}
	return toSlotDomains(models), nil
}
