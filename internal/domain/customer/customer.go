package customer

import (
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain"
)

// Customer is the aggregate root for a person who can reserve slots.
// The email identifies the customer and never changes.
type Customer struct {
	email     string
	lastName  string
	firstName string
	createdAt time.Time
	updatedAt time.Time
}

// NewCustomer creates a new customer identified by email.
func NewCustomer(email, lastName, firstName string) (*Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("customer email is required")
	}

	now := time.Now().UTC()
	return &Customer{
		email:     email,
		lastName:  lastName,
		firstName: firstName,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Customer from persistence data (no validation).
func Reconstruct(email, lastName, firstName string, createdAt, updatedAt time.Time) *Customer {
	return &Customer{
		email:     email,
		lastName:  lastName,
		firstName: firstName,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

func (c *Customer) Email() string        { return c.email }
func (c *Customer) LastName() string     { return c.lastName }
func (c *Customer) FirstName() string    { return c.firstName }
func (c *Customer) CreatedAt() time.Time { return c.createdAt }
func (c *Customer) UpdatedAt() time.Time { return c.updatedAt }

// HasIdentity reports whether the customer carries an email.
func (c *Customer) HasIdentity() bool {
	return c != nil && c.email != ""
}

// --- Behavior ---

// Rename overwrites both name parts.
func (c *Customer) Rename(lastName, firstName string) {
	c.lastName = lastName
	c.firstName = firstName
	c.updatedAt = time.Now().UTC()
}
