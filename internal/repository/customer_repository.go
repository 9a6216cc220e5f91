package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository is the GORM-based implementation of CustomerRepository.
// Deleting a customer releases its reservations in the slot table of every schema.
type GormCustomerRepository struct {
	session *database.Session
	schemas []booking.Schema
}

// NewGormCustomerRepository creates a new GormCustomerRepository.
func NewGormCustomerRepository(session *database.Session, schemas ...booking.Schema) *GormCustomerRepository {
	return &GormCustomerRepository{session: session, schemas: schemas}
}

// Create persists a new customer. Duplicate emails are rejected by the store itself,
// so two concurrent creates cannot both succeed.
func (r *GormCustomerRepository) Create(ctx context.Context, c *customer.Customer) (bool, error) {
	if !c.HasIdentity() {
		return false, nil
	}

	var created bool
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(toCustomerModel(c))
		if result.Error != nil {
			return fmt.Errorf("failed to create customer: %w", result.Error)
		}
		created = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Read retrieves a customer by email.
func (r *GormCustomerRepository) Read(ctx context.Context, email string) (*customer.Customer, error) {
	if email == "" {
		return nil, nil
	}
	db, err := r.session.DB(ctx)
	if err != nil {
		return nil, err
	}
	model, err := findCustomer(db, email)
	if err != nil || model == nil {
		return nil, err
	}
	return toCustomerDomain(model), nil
}

// Update overwrites the names of an existing customer.
func (r *GormCustomerRepository) Update(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if !c.HasIdentity() {
		return nil, nil
	}

	var updated *customer.Customer
	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		model, err := findCustomer(database.ForUpdate(tx), c.Email())
		if err != nil {
			return err
		}
		if model == nil {
			return domain.NewNotFoundError("Customer", c.Email())
		}

		model.LastName = c.LastName()
		model.FirstName = c.FirstName()
		model.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&CustomerModel{}).
			Where("email = ?", model.Email).
			Updates(map[string]interface{}{
				"last_name":  model.LastName,
				"first_name": model.FirstName,
				"updated_at": model.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		updated = toCustomerDomain(model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a customer and clears every reservation it holds. Slots are kept.
func (r *GormCustomerRepository) Delete(ctx context.Context, c *customer.Customer) (bool, error) {
	if !c.HasIdentity() {
		return false, nil
	}

	err := r.session.Transaction(ctx, func(tx *gorm.DB) error {
		model, err := findCustomer(database.ForUpdate(tx), c.Email())
		if err != nil {
			return err
		}
		if model == nil {
			return domain.NewNotFoundError("Customer", c.Email())
		}

		now := time.Now().UTC()
		for _, s := range r.schemas {
			if err := tx.Table(s.SlotTable).
				Where("customer_email = ?", model.Email).
				Updates(map[string]interface{}{
					"customer_email": nil,
					"version":        gorm.Expr("version + 1"),
					"updated_at":     now,
				}).Error; err != nil {
				return fmt.Errorf("failed to release %s of customer: %w", s.SlotTable, err)
			}
		}

		if err := tx.Where("email = ?", model.Email).Delete(&CustomerModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindBy returns customers matching last and first name exactly, ignoring case.
// An empty name matches any value for that field.
func (r *GormCustomerRepository) FindBy(ctx context.Context, lastName, firstName string) ([]*customer.Customer, error) {
	db, err := r.session.DB(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&CustomerModel{})
	if lastName != "" {
		query = query.Where("LOWER(last_name) = ?", strings.ToLower(lastName))
	}
	if firstName != "" {
		query = query.Where("LOWER(first_name) = ?", strings.ToLower(firstName))
	}

	var models []CustomerModel
	if err := query.Order("email").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find customers: %w", err)
	}

	customers := make([]*customer.Customer, len(models))
	for i := range models {
		customers[i] = toCustomerDomain(&models[i])
	}
	return customers, nil
}

// findCustomer returns nil without error when no customer has the email.
func findCustomer(db *gorm.DB, email string) (*CustomerModel, error) {
	var model CustomerModel
	if err := db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return &model, nil
}
