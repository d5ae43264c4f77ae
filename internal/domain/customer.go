package domain

import (
	"context"

	"github.com/google/uuid"
)

// Customer is the slice of the customer record this engine needs: a
// classification to scope pricing rules and a jurisdiction to split tax.
type Customer struct {
	ID             uuid.UUID
	Name           string
	Classification string
	Jurisdiction   string
}

// CustomerLookup is the customer-system collaborator contract.
type CustomerLookup interface {
	// GetCustomer returns a customer, or ErrCustomerNotFound.
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*Customer, error)
}
