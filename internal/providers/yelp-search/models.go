// internal/providers/yelp-search/models.go
package yelpsearch

type searchResponse struct {
	Businesses []business `json:"businesses"`
	Total      int        `json:"total"`
}

type business struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Rating     float64    `json:"rating"`
	Price      string     `json:"price"`
	URL        string     `json:"url"`
	Categories []category `json:"categories"`
	Location   struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
}

type category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}
