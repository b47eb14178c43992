package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-campaigns/internal/domain/cart"
)

const (
	listCartItemsSQL = `SELECT ci.id, ci.user_id, ci.product_id, COALESCE(p.name, ''), ci.unit_price, ci.quantity
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.id`

	getSelectionSQL = `SELECT campaign_id FROM cart_campaigns WHERE user_id = $1 ORDER BY position`

	clearSelectionSQL = `DELETE FROM cart_campaigns WHERE user_id = $1`

	insertSelectionSQL = `INSERT INTO cart_campaigns (user_id, campaign_id, position)
		SELECT $1, t.campaign_id, t.position
		FROM unnest($2::text[]) WITH ORDINALITY AS t(campaign_id, position)`

	getPointsSQL = `SELECT points FROM users WHERE id = $1`
)

var (
	_ cart.Repository          = (*CartRepository)(nil)
	_ cart.SelectionRepository = (*CartRepository)(nil)
	_ cart.PointsRepository    = (*CartRepository)(nil)
)

// CartRepository reads carts and stores campaign selections.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListItems returns the cart lines of a user in insertion order.
func (r *CartRepository) ListItems(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items of %q: %w", userID, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing cart items of %q: %w", userID, err)
	}
	return items, nil
}

// Get returns the selected campaign IDs in selection order.
func (r *CartRepository) Get(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, getSelectionSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting selection of %q: %w", userID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("getting selection of %q: %w", userID, err)
	}
	return ids, nil
}

// Save replaces the selection of a user.
func (r *CartRepository) Save(ctx context.Context, userID string, campaignIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, clearSelectionSQL, userID); err != nil {
			return fmt.Errorf("clearing selection of %q: %w", userID, err)
		}
		if len(campaignIDs) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, insertSelectionSQL, userID, campaignIDs); err != nil {
			if isForeignKeyViolation(err, "cart_campaigns_user_id_fkey") {
				return cart.ErrUserNotFound
			}
			return fmt.Errorf("saving selection of %q: %w", userID, err)
		}
		return nil
	})
}

// Balance returns the loyalty points of a user.
func (r *CartRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var points decimal.Decimal
	if err := r.pool.QueryRow(ctx, getPointsSQL, userID).Scan(&points); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, cart.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("getting points of %q: %w", userID, err)
	}
	return points, nil
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == constraint
}
