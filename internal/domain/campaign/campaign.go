package campaign

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported campaign discount strategies.
type DiscountType string

const (
	// DiscountFixed takes a fixed amount off the eligible items, capped at
	// their current value.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercent takes a percentage off the eligible items.
	DiscountPercent DiscountType = "percent"
	// DiscountSpendAndSave takes DiscountValue off for every full Every spent
	// on eligible items.
	DiscountSpendAndSave DiscountType = "spendAndSave"
	// DiscountPoints redeems the customer's loyalty points, optionally capped
	// at Limit percent of the cart subtotal.
	DiscountPoints DiscountType = "points"
)

// DiscountTypes returns every discount type the engine knows how to apply.
func DiscountTypes() []DiscountType {
	return []DiscountType{DiscountFixed, DiscountPercent, DiscountSpendAndSave, DiscountPoints}
}

// Known reports whether t is one of DiscountTypes.
func (t DiscountType) Known() bool {
	switch t {
	case DiscountFixed, DiscountPercent, DiscountSpendAndSave, DiscountPoints:
		return true
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when a campaign does not exist.
	ErrNotFound = errors.New("campaign not found")
	// ErrCategoryNotFound is returned when a campaign category does not exist.
	ErrCategoryNotFound = errors.New("campaign category not found")
)

// InvalidCampaignError indicates a campaign carries a value the engine must
// never see, such as a negative discount.
type InvalidCampaignError struct {
	CampaignID string
	Field      string
}

func (e *InvalidCampaignError) Error() string {
	return fmt.Sprintf("campaign %s: %s must not be negative", e.CampaignID, e.Field)
}

// ProductCategory is a product category targeted by a campaign.
type ProductCategory struct {
	ID   string
	Name string
}

// Campaign is a promotional rule that can be applied to a cart.
type Campaign struct {
	ID            string
	Name          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	// Every is the spend step for DiscountSpendAndSave.
	Every decimal.Decimal
	// Limit is the percent-of-subtotal cap for DiscountPoints. Zero means
	// no cap.
	Limit      decimal.Decimal
	IsActive   bool
	CategoryID string
	// ProductCategories restricts eligibility. Empty means every product.
	ProductCategories []ProductCategory
}

// AppliesToAll reports whether the campaign targets every product.
func (c *Campaign) AppliesToAll() bool {
	return len(c.ProductCategories) == 0
}

// Targets reports whether the campaign targets the given product category.
func (c *Campaign) Targets(productCategoryID string) bool {
	if c.AppliesToAll() {
		return true
	}
	for _, pc := range c.ProductCategories {
		if pc.ID == productCategoryID {
			return true
		}
	}
	return false
}

// Validate rejects negative numeric fields.
func Validate(c Campaign) error {
	switch {
	case c.DiscountValue.IsNegative():
		return &InvalidCampaignError{CampaignID: c.ID, Field: "discount_value"}
	case c.Every.IsNegative():
		return &InvalidCampaignError{CampaignID: c.ID, Field: "every"}
	case c.Limit.IsNegative():
		return &InvalidCampaignError{CampaignID: c.ID, Field: "limit"}
	}
	return nil
}

// Category groups campaigns that are mutually exclusive in a selection. Rank
// orders application: lower ranks are applied first.
type Category struct {
	ID          string
	Name        string
	Description string
	Rank        *int
}

// RankOrZero returns the category rank, treating a missing rank as 0.
func (c *Category) RankOrZero() int {
	if c.Rank == nil {
		return 0
	}
	return *c.Rank
}

// RankUpdate assigns a new rank to a category.
type RankUpdate struct {
	CategoryID string
	Rank       int
}

// Repository provides access to campaigns.
type Repository interface {
	List(ctx context.Context) ([]Campaign, error)
	GetByID(ctx context.Context, id string) (*Campaign, error)
	GetByIDs(ctx context.Context, ids []string) ([]Campaign, error)
	Create(ctx context.Context, c *Campaign) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CategoryRepository provides access to campaign categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	Realign(ctx context.Context, updates []RankUpdate) error
}
