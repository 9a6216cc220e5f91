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

// GormReservationRepository assigns customers to slots with a conditional update, so
// of any number of concurrent reservations for one slot at most one succeeds.
type GormReservationRepository struct {
	session *database.Session
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(session *database.Session) *GormReservationRepository {
	return &GormReservationRepository{session: session}
}

// Reserve assigns c to slot if the slot is stored and available and c is a stored
// customer. On success the in-memory slot reflects the reservation.
func (r *GormReservationRepository) Reserve(ctx context.Context, schema booking.Schema, slot *booking.Slot, c *customer.Customer) (bool, error) {
	if slot == nil || slot.ID() == 0 || !c.HasIdentity() {
		return false, nil
	}

	email := c.Email()
	return r.swap(ctx, schema, slot, email, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ? AND customer_email IS NULL", slot.ID())
	}, map[string]interface{}{"customer_email": email}, slot.Reserve)
}

// Cancel releases slot if it is currently held by c.
func (r *GormReservationRepository) Cancel(ctx context.Context, schema booking.Schema, slot *booking.Slot, c *customer.Customer) (bool, error) {
	if slot == nil || slot.ID() == 0 || !c.HasIdentity() {
		return false, nil
	}

	return r.swap(ctx, schema, slot, c.Email(), func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ? AND customer_email = ?", slot.ID(), c.Email())
	}, map[string]interface{}{"customer_email": nil}, slot.Release)
}

// swap runs one compare-and-swap on the slot row. The customer row is share-locked
// so it cannot be deleted while the reservation is written. Once committed, the
// in-memory slot takes the same transition; a stale copy is overwritten with the
// stored state instead.
func (r *GormReservationRepository) swap(
	ctx context.Context,
	schema booking.Schema,
	slot *booking.Slot,
	email string,
	match func(tx *gorm.DB) *gorm.DB,
	values map[string]interface{},
	transition func(email string) error,
) (bool, error) {
	var (
		swapped bool
		after   SlotModel
	)
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		known, err := findCustomer(database.ForShare(tx), email)
		if err != nil {
			return err
		}
		if known == nil {
			return nil
		}

		values["version"] = gorm.Expr("version + 1")
		values["updated_at"] = time.Now().UTC()
		result := match(tx.Table(schema.SlotTable)).Updates(values)
		if result.Error != nil {
			return fmt.Errorf("failed to update %s reservation: %w", schema.Name, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Table(schema.SlotTable).Where("id = ?", slot.ID()).First(&after).Error; err != nil {
			return fmt.Errorf("failed to read back %s slot: %w", schema.Name, err)
		}
		swapped = true
		return nil
	})
	if err != nil || !swapped {
		return false, err
	}

	stored := deref(after.CustomerEmail)
	if err := transition(email); err != nil || slot.CustomerEmail() != stored || slot.Version() != after.Version {
		slot.SyncReservation(stored, after.Version)
	}
	return true, nil
}
