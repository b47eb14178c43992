package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
)

const (
	campaignColumns = `id, name, description, discount_type, discount_value, every, "limit", is_active, category_id`

	listCampaignsSQL = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at, id`

	getCampaignByIDSQL = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	getCampaignsByIDsSQL = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ANY($1)`

	listCampaignProductCategoriesSQL = `SELECT cpc.campaign_id, pc.id, pc.name
		FROM campaign_product_categories cpc
		JOIN product_categories pc ON pc.id = cpc.product_category_id
		WHERE cpc.campaign_id = ANY($1)
		ORDER BY pc.name, pc.id`

	insertCampaignSQL = `INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	upsertCampaignSQL = insertCampaignSQL + `
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			every = EXCLUDED.every,
			"limit" = EXCLUDED."limit",
			is_active = EXCLUDED.is_active,
			category_id = EXCLUDED.category_id`

	deleteCampaignProductCategoriesSQL = `DELETE FROM campaign_product_categories WHERE campaign_id = $1`

	insertCampaignProductCategoriesSQL = `INSERT INTO campaign_product_categories (campaign_id, product_category_id)
		SELECT $1, unnest($2::text[])`

	setCampaignActiveSQL = `UPDATE campaigns SET is_active = $2 WHERE id = $1`
)

var _ campaign.Repository = (*CampaignRepository)(nil)

// CampaignRepository implements campaign.Repository backed by PostgreSQL.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a CampaignRepository that uses the given pool.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// List returns every campaign with its targeted product categories.
func (r *CampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	rows, err := r.pool.Query(ctx, listCampaignsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	campaigns, err := pgx.CollectRows(rows, scanCampaign)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return r.withProductCategories(ctx, campaigns)
}

// GetByID returns a single campaign by its identifier.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	rows, err := r.pool.Query(ctx, getCampaignByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting campaign %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCampaign)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, campaign.ErrNotFound
		}
		return nil, fmt.Errorf("getting campaign %q: %w", id, err)
	}
	out, err := r.withProductCategories(ctx, []campaign.Campaign{c})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// GetByIDs returns campaigns matching any of the given IDs, in no
// particular order. Unknown IDs are skipped.
func (r *CampaignRepository) GetByIDs(ctx context.Context, ids []string) ([]campaign.Campaign, error) {
	rows, err := r.pool.Query(ctx, getCampaignsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting campaigns by ids: %w", err)
	}
	campaigns, err := pgx.CollectRows(rows, scanCampaign)
	if err != nil {
		return nil, fmt.Errorf("getting campaigns by ids: %w", err)
	}
	return r.withProductCategories(ctx, campaigns)
}

// Create inserts a campaign and its product category targets.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return writeCampaign(ctx, tx, insertCampaignSQL, c)
	})
}

// Upsert inserts or replaces campaigns in a single transaction. Product
// category targets are replaced wholesale.
func (r *CampaignRepository) Upsert(ctx context.Context, campaigns []campaign.Campaign) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range campaigns {
			if err := writeCampaign(ctx, tx, upsertCampaignSQL, &campaigns[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetActive flips is_active. Deactivation is the soft delete.
func (r *CampaignRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setCampaignActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting campaign %q active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func writeCampaign(ctx context.Context, tx pgx.Tx, query string, c *campaign.Campaign) error {
	var categoryID pgtype.Text
	if c.CategoryID != "" {
		categoryID = pgtype.Text{String: c.CategoryID, Valid: true}
	}
	_, err := tx.Exec(ctx, query,
		c.ID, c.Name, c.Description, string(c.DiscountType),
		c.DiscountValue, c.Every, c.Limit, c.IsActive, categoryID,
	)
	if err != nil {
		return fmt.Errorf("writing campaign %q: %w", c.ID, err)
	}

	if _, err := tx.Exec(ctx, deleteCampaignProductCategoriesSQL, c.ID); err != nil {
		return fmt.Errorf("clearing product categories of campaign %q: %w", c.ID, err)
	}
	if len(c.ProductCategories) == 0 {
		return nil
	}
	ids := make([]string, len(c.ProductCategories))
	for i, pc := range c.ProductCategories {
		ids[i] = pc.ID
	}
	if _, err := tx.Exec(ctx, insertCampaignProductCategoriesSQL, c.ID, ids); err != nil {
		return fmt.Errorf("writing product categories of campaign %q: %w", c.ID, err)
	}
	return nil
}

func (r *CampaignRepository) withProductCategories(ctx context.Context, campaigns []campaign.Campaign) ([]campaign.Campaign, error) {
	if len(campaigns) == 0 {
		return campaigns, nil
	}
	ids := make([]string, len(campaigns))
	index := make(map[string]int, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.ID
		index[c.ID] = i
	}

	rows, err := r.pool.Query(ctx, listCampaignProductCategoriesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing campaign product categories: %w", err)
	}
	var (
		campaignID string
		pc         campaign.ProductCategory
	)
	_, err = pgx.ForEachRow(rows, []any{&campaignID, &pc.ID, &pc.Name}, func() error {
		i := index[campaignID]
		campaigns[i].ProductCategories = append(campaigns[i].ProductCategories, pc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing campaign product categories: %w", err)
	}
	return campaigns, nil
}

func scanCampaign(row pgx.CollectableRow) (campaign.Campaign, error) {
	var (
		c            campaign.Campaign
		discountType string
		categoryID   pgtype.Text
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &discountType,
		&c.DiscountValue, &c.Every, &c.Limit, &c.IsActive, &categoryID,
	)
	c.DiscountType = campaign.DiscountType(discountType)
	c.CategoryID = categoryID.String
	return c, err
}
