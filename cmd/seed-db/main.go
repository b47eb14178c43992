package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-campaigns/internal/domain/auth"
	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/cart"
	"github.com/xenking/kart-campaigns/internal/domain/product"
	"github.com/xenking/kart-campaigns/internal/storage/postgres"
)

type catalogJSON struct {
	ProductCategories []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product_categories"`
	Products []struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		CategoryID string          `json:"category_id"`
		Price      decimal.Decimal `json:"price"`
		Inactive   bool            `json:"inactive"`
	} `json:"products"`
	CampaignCategories []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Rank        *int   `json:"rank"`
	} `json:"campaign_categories"`
	Campaigns []struct {
		ID                 string          `json:"id"`
		Name               string          `json:"name"`
		Description        string          `json:"description"`
		DiscountType       string          `json:"discount_type"`
		DiscountValue      decimal.Decimal `json:"discount_value"`
		Every              decimal.Decimal `json:"every"`
		Limit              decimal.Decimal `json:"limit"`
		Inactive           bool            `json:"inactive"`
		CategoryID         string          `json:"category_id"`
		ProductCategoryIDs []string        `json:"product_category_ids"`
	} `json:"campaigns"`
	Users []struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Points decimal.Decimal `json:"points"`
		Cart   []struct {
			ProductID string          `json:"product_id"`
			UnitPrice decimal.Decimal `json:"unit_price"`
			Quantity  int             `json:"quantity"`
		} `json:"cart"`
	} `json:"users"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or KART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or KART_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("KART_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("KART_API_KEY_PEPPER")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		if apiKey == "" {
			return errors.New("API key is required: set --api-key or KART_SEED_API_KEY")
		}
		return run(ctx, lg, databaseURL, catalogFile, apiKey, apiKeyPepper)
	})
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile, apiKey, pepper string) error {
	data, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.Seed(ctx, pool, data); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	lg.Info("Seeded catalog",
		zap.Int("product_categories", len(data.ProductCategories)),
		zap.Int("products", len(data.Products)),
		zap.Int("campaign_categories", len(data.CampaignCategories)),
		zap.Int("campaigns", len(data.Campaigns)),
		zap.Int("users", len(data.Users)),
	)

	keys := postgres.NewAPIKeyRepository(pool)
	if err := keys.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKeyHex([]byte(pepper), apiKey),
		Name:    "Default key",
		Scopes:  []string{"campaigns", "carts"},
	}); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	lg.Info("Seeded API key", zap.String("id", "default"))

	return nil
}

func readCatalog(path string) (postgres.SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return postgres.SeedData{}, errors.Wrap(err, "read catalog file")
	}
	var in catalogJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return postgres.SeedData{}, errors.Wrap(err, "parse catalog JSON")
	}

	var out postgres.SeedData
	for _, c := range in.ProductCategories {
		out.ProductCategories = append(out.ProductCategories, product.Category{ID: c.ID, Name: c.Name})
	}
	for _, p := range in.Products {
		out.Products = append(out.Products, product.Product{
			ID:         p.ID,
			Name:       p.Name,
			CategoryID: p.CategoryID,
			Price:      p.Price,
			IsActive:   !p.Inactive,
		})
	}
	for _, c := range in.CampaignCategories {
		out.CampaignCategories = append(out.CampaignCategories, campaign.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Rank:        c.Rank,
		})
	}
	for _, c := range in.Campaigns {
		cmp := campaign.Campaign{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			DiscountType:  campaign.DiscountType(c.DiscountType),
			DiscountValue: c.DiscountValue,
			Every:         c.Every,
			Limit:         c.Limit,
			IsActive:      !c.Inactive,
			CategoryID:    c.CategoryID,
		}
		for _, id := range c.ProductCategoryIDs {
			cmp.ProductCategories = append(cmp.ProductCategories, campaign.ProductCategory{ID: id})
		}
		if err := campaign.Validate(cmp); err != nil {
			return postgres.SeedData{}, err
		}
		out.Campaigns = append(out.Campaigns, cmp)
	}
	for _, u := range in.Users {
		su := postgres.SeedUser{ID: u.ID, Name: u.Name, Points: u.Points}
		for _, it := range u.Cart {
			su.Cart = append(su.Cart, cart.Item{
				UserID:    u.ID,
				ProductID: it.ProductID,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
			})
		}
		out.Users = append(out.Users, su)
	}
	return out, nil
}
