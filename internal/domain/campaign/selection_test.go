package campaign

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rank(r int) *int { return &r }

func ids(cs []Campaign) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

var (
	couponA   = Campaign{ID: "coupon-a", CategoryID: "coupon", IsActive: true}
	couponB   = Campaign{ID: "coupon-b", CategoryID: "coupon", IsActive: true}
	onTop     = Campaign{ID: "on-top", CategoryID: "ontop", IsActive: true}
	seasonal  = Campaign{ID: "seasonal", CategoryID: "seasonal", IsActive: true}
	orphan    = Campaign{ID: "orphan", CategoryID: "missing", IsActive: true}
	testCateg = []Category{
		{ID: "coupon", Rank: rank(1)},
		{ID: "ontop", Rank: rank(2)},
		{ID: "seasonal", Rank: rank(3)},
	}
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name      string
		selection []Campaign
		toggle    Campaign
		want      []string
	}{
		{
			name:   "add to empty selection",
			toggle: couponA,
			want:   []string{"coupon-a"},
		},
		{
			name:      "remove selected campaign",
			selection: []Campaign{couponA, onTop},
			toggle:    couponA,
			want:      []string{"on-top"},
		},
		{
			name:      "replace campaign of the same category",
			selection: []Campaign{couponA, onTop},
			toggle:    couponB,
			want:      []string{"on-top", "coupon-b"},
		},
		{
			name:      "add campaign of a new category",
			selection: []Campaign{couponA},
			toggle:    seasonal,
			want:      []string{"coupon-a", "seasonal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ids(tt.selection)

			got := Toggle(tt.selection, tt.toggle)

			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, before, ids(tt.selection), "input must not change")
		})
	}
}

func TestToggle_OnePerCategory(t *testing.T) {
	pool := []Campaign{couponA, couponB, onTop, seasonal, orphan,
		{ID: "on-top-2", CategoryID: "ontop"},
		{ID: "seasonal-2", CategoryID: "seasonal"},
	}
	rng := rand.New(rand.NewPCG(1, 2))

	var selection []Campaign
	for range 500 {
		selection = Toggle(selection, pool[rng.IntN(len(pool))])

		seen := make(map[string]bool)
		for _, c := range selection {
			require.False(t, seen[c.CategoryID], "category %s selected twice", c.CategoryID)
			seen[c.CategoryID] = true
		}
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name       string
		selection  []Campaign
		categories []Category
		want       []string
	}{
		{
			name:       "ascending by category rank",
			selection:  []Campaign{seasonal, couponA, onTop},
			categories: testCateg,
			want:       []string{"coupon-a", "on-top", "seasonal"},
		},
		{
			name:       "unknown category ranks as zero",
			selection:  []Campaign{onTop, orphan, couponA},
			categories: testCateg,
			want:       []string{"orphan", "coupon-a", "on-top"},
		},
		{
			name:      "missing rank keeps selection order",
			selection: []Campaign{seasonal, orphan, couponA},
			categories: []Category{
				{ID: "coupon"},
				{ID: "seasonal"},
			},
			want: []string{"seasonal", "orphan", "coupon-a"},
		},
		{
			name:      "negative rank goes first",
			selection: []Campaign{couponA, seasonal},
			categories: []Category{
				{ID: "coupon", Rank: rank(0)},
				{ID: "seasonal", Rank: rank(-1)},
			},
			want: []string{"seasonal", "coupon-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Order(tt.selection, tt.categories)))
		})
	}
}

func TestOrder_IndependentOfToggleSequence(t *testing.T) {
	first := Toggle(Toggle(Toggle(nil, seasonal), onTop), couponA)
	second := Toggle(Toggle(Toggle(nil, couponA), seasonal), onTop)

	assert.Equal(t, ids(Order(first, testCateg)), ids(Order(second, testCateg)))
}

func TestActiveOnly(t *testing.T) {
	inactive := Campaign{ID: "off", CategoryID: "x"}

	got := ActiveOnly([]Campaign{couponA, inactive, onTop})

	assert.Equal(t, []string{"coupon-a", "on-top"}, ids(got))
}

func TestSortCategoriesAndNextRank(t *testing.T) {
	cats := []Category{
		{ID: "b", Rank: rank(2)},
		{ID: "a"},
		{ID: "c", Rank: rank(2)},
		{ID: "d", Rank: rank(1)},
	}

	sorted := SortCategories(cats)

	got := make([]string, len(sorted))
	for i, c := range sorted {
		got[i] = c.ID
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)
	assert.Equal(t, 3, NextRank(cats))
	assert.Equal(t, 1, NextRank(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		campaign  Campaign
		wantField string
	}{
		{
			name:     "valid",
			campaign: Campaign{ID: "c", DiscountValue: decimal.NewFromInt(10)},
		},
		{
			name:      "negative value",
			campaign:  Campaign{ID: "c", DiscountValue: decimal.NewFromInt(-1)},
			wantField: "discount_value",
		},
		{
			name:      "negative every",
			campaign:  Campaign{ID: "c", Every: decimal.NewFromInt(-1)},
			wantField: "every",
		},
		{
			name:      "negative limit",
			campaign:  Campaign{ID: "c", Limit: decimal.NewFromInt(-1)},
			wantField: "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.campaign)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var invalid *InvalidCampaignError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.wantField, invalid.Field)
		})
	}
}

func TestDiscountTypeKnown(t *testing.T) {
	for _, dt := range DiscountTypes() {
		assert.True(t, dt.Known(), dt)
	}
	assert.False(t, DiscountType("bogo").Known())
	assert.False(t, DiscountType("").Known())
}
