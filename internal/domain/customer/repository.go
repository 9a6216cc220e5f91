package customer

import "context"

// CustomerRepository defines keyed persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) (bool, error)
	Read(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, c *Customer) (*Customer, error)
	Delete(ctx context.Context, c *Customer) (bool, error)
	FindBy(ctx context.Context, lastName, firstName string) ([]*Customer, error)
}
