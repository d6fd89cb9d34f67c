// internal/providers/index-search/models.go
package indexsearch

// RestaurantDocument is the shape of one document in the restaurant index.
type RestaurantDocument struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	PriceLevel int      `json:"price_level"`
	Categories []string `json:"categories"`
	Address    string   `json:"address"`
	Location   string   `json:"location"`
	URL        string   `json:"url"`
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string             `json:"_id"`
			Source RestaurantDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
