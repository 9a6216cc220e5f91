package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"gorm.io/gorm"
)

// CustomerModel is the GORM model for the customers table.
type CustomerModel struct {
	Email     string    `gorm:"primaryKey;size:255"`
	LastName  string    `gorm:"size:100;index"`
	FirstName string    `gorm:"size:100"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CustomerModel) TableName() string { return "customers" }

// OwnerModel is the GORM model shared by every owner table (providers, cars).
// The table is chosen per call with Table(schema.OwnerTable).
type OwnerModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Category  string    `gorm:"size:30;not null"`
	Location  string    `gorm:"size:500;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// SlotModel is the GORM model shared by every slot table (appointments, rides).
type SlotModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	OwnerID       uint      `gorm:"not null"`
	CustomerEmail *string   `gorm:"size:255"`
	StartsAt      time.Time `gorm:"not null"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// AutoMigrate creates the customers table and the owner/slot tables of every schema.
func AutoMigrate(db *gorm.DB, schemas ...booking.Schema) error {
	if err := db.AutoMigrate(&CustomerModel{}); err != nil {
		return fmt.Errorf("failed to migrate customers: %w", err)
	}

	for _, s := range schemas {
		if err := db.Table(s.OwnerTable).AutoMigrate(&OwnerModel{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", s.OwnerTable, err)
		}
		if err := db.Table(s.SlotTable).AutoMigrate(&SlotModel{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", s.SlotTable, err)
		}

		// Index names are global in both postgres and sqlite, so they carry the table name.
		indexes := []string{
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_category ON %[1]s (category)", s.OwnerTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_owner_id ON %[1]s (owner_id)", s.SlotTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_customer_email ON %[1]s (customer_email)", s.SlotTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_starts_at ON %[1]s (starts_at)", s.SlotTable),
		}
		for _, stmt := range indexes {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to create index on %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

// containsPattern builds a case-insensitive LIKE pattern matching fragment literally.
// Use it with "LOWER(col) LIKE ? ESCAPE '\'".
func containsPattern(fragment string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(fragment))
	return "%" + escaped + "%"
}

const likeEscaped = `LIKE ? ESCAPE '\'`

// --- Conversion Helpers ---

func toCustomerModel(c *customer.Customer) *CustomerModel {
	return &CustomerModel{
		Email:     c.Email(),
		LastName:  c.LastName(),
		FirstName: c.FirstName(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

func toCustomerDomain(m *CustomerModel) *customer.Customer {
	return customer.Reconstruct(m.Email, m.LastName, m.FirstName, m.CreatedAt, m.UpdatedAt)
}

func toOwnerModel[K booking.Category](o *booking.Owner[K]) *OwnerModel {
	return &OwnerModel{
		ID:        o.ID(),
		Category:  string(o.Category()),
		Location:  o.Location(),
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
	}
}

func toOwnerDomain[K booking.Category](m *OwnerModel, slots []SlotModel) *booking.Owner[K] {
	domainSlots := make([]*booking.Slot, len(slots))
	for i := range slots {
		domainSlots[i] = toSlotDomain(&slots[i])
	}
	return booking.ReconstructOwner(m.ID, K(m.Category), m.Location, domainSlots, m.CreatedAt, m.UpdatedAt)
}

func toSlotDomain(m *SlotModel) *booking.Slot {
	return booking.ReconstructSlot(
		m.ID,
		m.OwnerID,
		deref(m.CustomerEmail),
		m.StartsAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toSlotDomains(models []SlotModel) []*booking.Slot {
	slots := make([]*booking.Slot, len(models))
	for i := range models {
		slots[i] = toSlotDomain(&models[i])
	}
	return slots
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
