package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service manages products and product categories.
type Service struct {
	repo  Repository
	newID func() string
}

// NewService creates a product Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		newID: func() string { return uuid.New().String() },
	}
}

// List returns every product.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Create validates p, assigns it an ID and stores it as active. The
// category must exist.
func (s *Service) Create(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return ErrNameRequired
	case p.CategoryID == "":
		return ErrCategoryRequired
	case !p.Price.IsPositive():
		return ErrInvalidPrice
	}
	p.ID = s.newID()
	p.IsActive = true
	if err := s.repo.Create(ctx, p); err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// Categories returns product categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list product categories")
	}
	return cats, nil
}

// CreateCategory stores a new category under a trimmed name.
func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	c.ID = s.newID()
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return errors.Wrap(err, "create product category")
	}
	return nil
}

// DeleteCategory removes an unreferenced category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return errors.Wrap(err, "delete product category")
	}
	return nil
}
