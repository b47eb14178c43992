package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
)

const (
	listCampaignCategoriesSQL = `SELECT id, name, description, rank FROM campaign_categories`

	insertCampaignCategorySQL = `INSERT INTO campaign_categories (id, name, description, rank)
		VALUES ($1, $2, $3, $4)`

	setCampaignCategoryRankSQL = `UPDATE campaign_categories SET rank = $2 WHERE id = $1`
)

var _ campaign.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements campaign.CategoryRepository backed by
// PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListCategories returns every campaign category, unsorted.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]campaign.Category, error) {
	rows, err := r.pool.Query(ctx, listCampaignCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing campaign categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("listing campaign categories: %w", err)
	}
	return cats, nil
}

// CreateCategory inserts a campaign category.
func (r *CategoryRepository) CreateCategory(ctx context.Context, c *campaign.Category) error {
	if _, err := r.pool.Exec(ctx, insertCampaignCategorySQL, c.ID, c.Name, c.Description, rankParam(c.Rank)); err != nil {
		return fmt.Errorf("creating campaign category %q: %w", c.Name, err)
	}
	return nil
}

// Realign applies all rank updates atomically. An unknown category aborts
// the whole batch.
func (r *CategoryRepository) Realign(ctx context.Context, updates []campaign.RankUpdate) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(setCampaignCategoryRankSQL, u.CategoryID, int32(u.Rank))
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for _, u := range updates {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("setting rank of category %q: %w", u.CategoryID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("category %q: %w", u.CategoryID, campaign.ErrCategoryNotFound)
			}
		}
		return results.Close()
	})
}

func rankParam(rank *int) pgtype.Int4 {
	if rank == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*rank), Valid: true}
}

func scanCategory(row pgx.CollectableRow) (campaign.Category, error) {
	var (
		c    campaign.Category
		rank pgtype.Int4
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &rank)
	if rank.Valid {
		r := int(rank.Int32)
		c.Rank = &r
	}
	return c, err
}
