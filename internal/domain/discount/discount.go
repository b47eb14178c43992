// Package discount computes the effect of an ordered list of campaigns on a
// cart snapshot.
//
// Campaigns compound: each one is applied to the working prices left by the
// campaigns before it, and its discount is spread over the eligible items in
// proportion to their current value. The computation is a pure function of
// its arguments and never fails; inputs are expected to have passed
// ValidateInput.
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
)

var hundred = decimal.NewFromInt(100)

// ratioPlaces is the precision of the per-campaign price reduction ratio.
// Working prices, and so FinalTotal, agree with subtotal minus
// TotalDiscount to well below a millionth of a cent.
const ratioPlaces = 28

// Item is a cart line as seen by the engine.
type Item struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// ProductLookup resolves the category of a product.
type ProductLookup interface {
	CategoryOf(productID string) (categoryID string, ok bool)
}

// Catalog is a ProductLookup backed by a product ID to category ID map.
type Catalog map[string]string

// CategoryOf implements ProductLookup.
func (c Catalog) CategoryOf(productID string) (string, bool) {
	id, ok := c[productID]
	return id, ok
}

// Entry is the contribution of one campaign.
type Entry struct {
	CampaignID   string
	CampaignName string
	Amount       decimal.Decimal
}

// Result is the outcome of one engine run.
type Result struct {
	// TotalDiscount is the sum of Breakdown amounts.
	TotalDiscount decimal.Decimal
	// Breakdown lists campaigns that produced a positive discount, in
	// application order.
	Breakdown []Entry
	// FinalTotal is the sum of final unit price times quantity.
	FinalTotal decimal.Decimal
	// ItemPrices maps cart item ID to its final unit price.
	ItemPrices map[string]decimal.Decimal
}

// Compute applies campaigns in the given order to items.
//
// points is the customer's loyalty balance consumed by DiscountPoints
// campaigns and subtotal is the undiscounted cart total used for the points
// cap. Items whose product is missing from products are never eligible, and
// campaigns of an unknown discount type contribute nothing.
func Compute(
	campaigns []campaign.Campaign,
	items []Item,
	products ProductLookup,
	points, subtotal decimal.Decimal,
) Result {
	// Working unit prices, private to this call.
	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = item.UnitPrice
	}

	var (
		total     = decimal.Zero
		breakdown []Entry
		eligible  = make([]bool, len(items))
	)
	for i := range campaigns {
		c := &campaigns[i]

		base := decimal.Zero
		for j, item := range items {
			eligible[j] = isEligible(c, item, products)
			if eligible[j] {
				base = base.Add(prices[j].Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
		}
		if !base.IsPositive() {
			continue
		}

		amount := decimal.Min(amountFor(c, base, points, subtotal), base)
		if !amount.IsPositive() {
			continue
		}

		total = total.Add(amount)
		breakdown = append(breakdown, Entry{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			Amount:       amount,
		})

		keep := decimal.NewFromInt(1).Sub(amount.DivRound(base, ratioPlaces))
		for j := range items {
			if eligible[j] {
				prices[j] = prices[j].Mul(keep)
			}
		}
	}

	final := decimal.Zero
	itemPrices := make(map[string]decimal.Decimal, len(items))
	for i, item := range items {
		final = final.Add(prices[i].Mul(decimal.NewFromInt(int64(item.Quantity))))
		itemPrices[item.ID] = prices[i]
	}

	return Result{
		TotalDiscount: total,
		Breakdown:     breakdown,
		FinalTotal:    final,
		ItemPrices:    itemPrices,
	}
}

func isEligible(c *campaign.Campaign, item Item, products ProductLookup) bool {
	if c.AppliesToAll() {
		return true
	}
	categoryID, ok := products.CategoryOf(item.ProductID)
	if !ok {
		return false
	}
	return c.Targets(categoryID)
}

// amountFor returns the raw discount of c over the eligible amount base,
// before capping at base.
func amountFor(c *campaign.Campaign, base, points, subtotal decimal.Decimal) decimal.Decimal {
	switch c.DiscountType {
	case campaign.DiscountFixed:
		return decimal.Min(c.DiscountValue, base)
	case campaign.DiscountPercent:
		return base.Mul(c.DiscountValue).Div(hundred)
	case campaign.DiscountSpendAndSave:
		if !c.Every.IsPositive() {
			return decimal.Zero
		}
		times, _ := base.QuoRem(c.Every, 0)
		return times.Mul(c.DiscountValue)
	case campaign.DiscountPoints:
		return pointsAvailable(points, c.Limit, subtotal)
	default:
		return decimal.Zero
	}
}

// pointsAvailable caps points at limit percent of subtotal. A zero limit
// means no cap.
func pointsAvailable(points, limit, subtotal decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return points
	}
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	// points/subtotal*100 > limit, without the division.
	if points.Mul(hundred).GreaterThan(limit.Mul(subtotal)) {
		return limit.Mul(subtotal).Div(hundred)
	}
	return points
}

// Subtotal returns the sum of unit price times quantity across items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}
