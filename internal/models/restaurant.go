// internal/models/restaurant.go
package models

// SearchQuery is the provider-neutral restaurant search request.
type SearchQuery struct {
	Term     string `json:"term"`
	Location string `json:"location"`
	// MaxPriceLevel is the highest accepted price tier, 1-4. Zero disables the filter.
	MaxPriceLevel int `json:"max_price_level"`
	Limit         int `json:"limit"`
}

// Candidate is one restaurant returned by a provider, normalised across
// Yelp, Google Places and the local index.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Price      string   `json:"price"`
	PriceLevel int      `json:"price_level"`
	Categories []string `json:"categories"`
	Address    string   `json:"address"`
	// URL is the provider specific page the user can order from.
	URL string `json:"url"`
}

// PriceSymbol renders a price tier as "$".."$$$$"; zero renders empty.
func PriceSymbol(level int) string {
	if level <= 0 {
		return ""
	}
	if level > 4 {
		level = 4
	}
	return "$$$$"[:level]
}
