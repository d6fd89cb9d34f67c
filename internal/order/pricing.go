package order

import "github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"

// DefaultSearchTerm is used when no cuisine was extracted.
const DefaultSearchTerm = "food"

// PriceTier maps a stated budget onto the 1-4 provider price scale.
// A nil budget means no filter and returns 0.
func PriceTier(maxPrice *float64) int {
	if maxPrice == nil {
		return 0
	}
	switch p := *maxPrice; {
	case p <= 10:
		return 1
	case p <= 20:
		return 2
	case p <= 35:
		return 3
	default:
		return 4
	}
}

// SearchTerm is the cuisine, or DefaultSearchTerm when it is null or blank.
func SearchTerm(c *models.Constraints) string {
	if c == nil || c.Cuisine == nil || *c.Cuisine == "" {
		return DefaultSearchTerm
	}
	return *c.Cuisine
}

// ClampIndex resolves the selection to a valid index into n candidates.
// Anything out of range, or an index that was not an integer, becomes 0.
func ClampIndex(sel *models.Selection, n int) int {
	if sel == nil || !sel.ValidIndex {
		return 0
	}
	if sel.ChosenIndex < 0 || sel.ChosenIndex >= n {
		return 0
	}
	return sel.ChosenIndex
}

// TotalPrice prefers the model's estimate, then the stated budget, then zero.
// Zero or negative values count as absent.
func TotalPrice(estimate, maxPrice *float64) float64 {
	if estimate != nil && *estimate > 0 {
		return *estimate
	}
	if maxPrice != nil && *maxPrice > 0 {
		return *maxPrice
	}
	return 0
}
