// Package product is the product catalog campaigns target.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrCategoryNotFound is returned when a product category does not exist.
	ErrCategoryNotFound = errors.New("product category not found")
	// ErrCategoryInUse is returned when deleting a category that products or
	// campaigns still reference.
	ErrCategoryInUse = errors.New("product category is in use")
	// ErrDuplicateName is returned when a product or category name is taken.
	ErrDuplicateName = errors.New("name already exists")
	// ErrNameRequired is returned when a product or category has no name.
	ErrNameRequired = errors.New("name is required")
	// ErrCategoryRequired is returned for a product without a category.
	ErrCategoryRequired = errors.New("category_id is required")
	// ErrInvalidPrice is returned for a product without a positive price.
	ErrInvalidPrice = errors.New("price must be positive")
)

// Product is a catalog item. Only CategoryID matters for campaign
// eligibility.
type Product struct {
	ID         string
	Name       string
	CategoryID string
	Price      decimal.Decimal
	IsActive   bool
}

// Category is a product category that campaigns can target.
type Category struct {
	ID   string
	Name string
}

// Lookup resolves products by ID.
type Lookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Repository provides access to the product catalog.
type Repository interface {
	Lookup
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryIndex maps product ID to category ID.
func CategoryIndex(products []Product) map[string]string {
	idx := make(map[string]string, len(products))
	for _, p := range products {
		idx[p.ID] = p.CategoryID
	}
	return idx
}
