package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/cart"
	"github.com/xenking/kart-campaigns/internal/domain/product"
)

const (
	upsertProductCategorySQL = `INSERT INTO product_categories (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	upsertProductSQL = `INSERT INTO products (id, name, category_id, price, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			is_active = EXCLUDED.is_active`

	upsertCampaignCategorySQL = insertCampaignCategorySQL + `
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			rank = EXCLUDED.rank`

	upsertUserSQL = `INSERT INTO users (id, name, points) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, points = EXCLUDED.points`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`

	insertCartItemSQL = `INSERT INTO cart_items (id, user_id, product_id, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`
)

// SeedUser is a customer with a points balance and a prepared cart.
type SeedUser struct {
	ID     string
	Name   string
	Points decimal.Decimal
	Cart   []cart.Item
}

// SeedData is a complete demo catalog.
type SeedData struct {
	ProductCategories  []product.Category
	Products           []product.Product
	CampaignCategories []campaign.Category
	Campaigns          []campaign.Campaign
	Users              []SeedUser
}

// Seed upserts data in one transaction. Seeded carts replace existing ones;
// a cart line without a unit price takes the product price.
func Seed(ctx context.Context, pool *pgxpool.Pool, data SeedData) error {
	prices := make(map[string]decimal.Decimal, len(data.Products))
	for _, p := range data.Products {
		prices[p.ID] = p.Price
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, c := range data.ProductCategories {
			if _, err := tx.Exec(ctx, upsertProductCategorySQL, c.ID, c.Name); err != nil {
				return fmt.Errorf("upserting product category %q: %w", c.ID, err)
			}
		}
		for _, p := range data.Products {
			if _, err := tx.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.CategoryID, p.Price, p.IsActive); err != nil {
				return fmt.Errorf("upserting product %q: %w", p.ID, err)
			}
		}
		for _, c := range data.CampaignCategories {
			if _, err := tx.Exec(ctx, upsertCampaignCategorySQL, c.ID, c.Name, c.Description, rankParam(c.Rank)); err != nil {
				return fmt.Errorf("upserting campaign category %q: %w", c.ID, err)
			}
		}
		for i := range data.Campaigns {
			if err := writeCampaign(ctx, tx, upsertCampaignSQL, &data.Campaigns[i]); err != nil {
				return err
			}
		}
		for _, u := range data.Users {
			if err := seedUser(ctx, tx, u, prices); err != nil {
				return err
			}
		}
		return nil
	})
}

func seedUser(ctx context.Context, tx pgx.Tx, u SeedUser, prices map[string]decimal.Decimal) error {
	if _, err := tx.Exec(ctx, upsertUserSQL, u.ID, u.Name, u.Points); err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	if _, err := tx.Exec(ctx, clearCartSQL, u.ID); err != nil {
		return fmt.Errorf("clearing cart of %q: %w", u.ID, err)
	}
	for _, it := range u.Cart {
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		price := it.UnitPrice
		if price.IsZero() {
			price = prices[it.ProductID]
		}
		if _, err := tx.Exec(ctx, insertCartItemSQL, id, u.ID, it.ProductID, price, it.Quantity); err != nil {
			return fmt.Errorf("adding %q to cart of %q: %w", it.ProductID, u.ID, err)
		}
	}
	return nil
}
