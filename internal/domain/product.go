package domain

import (
	"context"

	"github.com/google/uuid"
)

// Product is the slice of the catalog this engine needs: a base price to
// discount from. Catalog CRUD lives elsewhere.
type Product struct {
	ID             uuid.UUID
	Name           string
	BasePriceCents int64
	Currency       string
}

// ProductLookup is the catalog collaborator contract.
type ProductLookup interface {
	// GetProduct returns a product, or ErrProductNotFound.
	GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error)
}
