// Package cart describes the per-user state the pricing service reads: cart
// lines, the chosen campaigns and the loyalty points balance.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUserNotFound is returned when a user has no account.
var ErrUserNotFound = errors.New("user not found")

// Item is a cart line with the product price captured when it was added.
type Item struct {
	ID          string
	UserID      string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Repository reads cart lines.
type Repository interface {
	ListItems(ctx context.Context, userID string) ([]Item, error)
}

// SelectionRepository stores the campaigns a user chose to apply. Get
// returns campaign IDs in the order they were selected.
type SelectionRepository interface {
	Get(ctx context.Context, userID string) ([]string, error)
	Save(ctx context.Context, userID string, campaignIDs []string) error
}

// PointsRepository reads the loyalty points balance of a user.
type PointsRepository interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}
