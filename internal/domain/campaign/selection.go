package campaign

import (
	"cmp"
	"slices"
)

// Toggle flips c in the selection. A campaign already selected is removed.
// Otherwise c is added, replacing any selected campaign from the same
// category, so the result never holds two campaigns of one category.
//
// The input slice is not modified.
func Toggle(selection []Campaign, c Campaign) []Campaign {
	out := make([]Campaign, 0, len(selection)+1)
	removed := false
	for _, s := range selection {
		if s.ID == c.ID {
			removed = true
			continue
		}
		out = append(out, s)
	}
	if removed {
		return out
	}

	out = slices.DeleteFunc(out, func(s Campaign) bool {
		return s.CategoryID == c.CategoryID
	})
	return append(out, c)
}

// Order returns the selection sorted ascending by the rank of each campaign's
// category. Campaigns whose category is unknown rank as 0. Ties keep their
// selection order.
//
// The result is the application order of the discount engine and must be
// recomputed whenever the selection or the ranks change.
func Order(selection []Campaign, categories []Category) []Campaign {
	ranks := make(map[string]int, len(categories))
	for i := range categories {
		ranks[categories[i].ID] = categories[i].RankOrZero()
	}

	out := slices.Clone(selection)
	slices.SortStableFunc(out, func(a, b Campaign) int {
		return cmp.Compare(ranks[a.CategoryID], ranks[b.CategoryID])
	})
	return out
}

// ActiveOnly returns the campaigns with IsActive set, preserving order.
func ActiveOnly(selection []Campaign) []Campaign {
	out := make([]Campaign, 0, len(selection))
	for _, c := range selection {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// SortCategories returns categories ordered by rank, ties by ID.
func SortCategories(categories []Category) []Category {
	out := slices.Clone(categories)
	slices.SortStableFunc(out, func(a, b Category) int {
		if d := cmp.Compare(a.RankOrZero(), b.RankOrZero()); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// NextRank returns the rank for a newly created category: one past the
// highest existing rank.
func NextRank(categories []Category) int {
	highest := 0
	for i := range categories {
		highest = max(highest, categories[i].RankOrZero())
	}
	return highest + 1
}
