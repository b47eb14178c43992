package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-campaigns/internal/domain/product"
)

const (
	getProductsByIDsSQL = `SELECT id, name, category_id, price, is_active
		FROM products WHERE id = ANY($1)`

	listProductsSQL = `SELECT id, name, category_id, price, is_active FROM products ORDER BY name, id`

	insertProductSQL = `INSERT INTO products (id, name, category_id, price, is_active)
		VALUES ($1, $2, $3, $4, $5)`

	listProductCategoriesSQL = `SELECT id, name FROM product_categories ORDER BY name, id`

	insertProductCategorySQL = `INSERT INTO product_categories (id, name) VALUES ($1, $2)`

	deleteProductCategorySQL = `DELETE FROM product_categories WHERE id = $1`
)

const uniqueViolation = "23505"

// Constraints that keep a product category from being deleted.
var productCategoryReferences = []string{
	"products_category_id_fkey",
	"campaign_product_categories_product_category_id_fkey",
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return products, nil
}

// List returns every product ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Create inserts p. A missing category yields product.ErrCategoryNotFound
// and a taken name product.ErrDuplicateName.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL, p.ID, p.Name, p.CategoryID, p.Price, p.IsActive)
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err, "products_category_id_fkey"):
		return fmt.Errorf("category %q: %w", p.CategoryID, product.ErrCategoryNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("product %q: %w", p.Name, product.ErrDuplicateName)
	default:
		return fmt.Errorf("inserting product: %w", err)
	}
}

// ListCategories returns all product categories ordered by name.
func (r *ProductRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listProductCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing product categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[product.Category])
	if err != nil {
		return nil, fmt.Errorf("listing product categories: %w", err)
	}
	return cats, nil
}

// CreateCategory inserts c. A taken name yields product.ErrDuplicateName.
func (r *ProductRepository) CreateCategory(ctx context.Context, c *product.Category) error {
	_, err := r.pool.Exec(ctx, insertProductCategorySQL, c.ID, c.Name)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("product category %q: %w", c.Name, product.ErrDuplicateName)
	default:
		return fmt.Errorf("inserting product category: %w", err)
	}
}

// DeleteCategory removes a category no product or campaign references.
func (r *ProductRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductCategorySQL, id)
	if err != nil {
		for _, constraint := range productCategoryReferences {
			if isForeignKeyViolation(err, constraint) {
				return fmt.Errorf("product category %q: %w", id, product.ErrCategoryInUse)
			}
		}
		return fmt.Errorf("deleting product category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product category %q: %w", id, product.ErrCategoryNotFound)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price, &p.IsActive)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
