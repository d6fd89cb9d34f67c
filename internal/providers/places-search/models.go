// internal/providers/places-search/models.go
package placessearch

// Text search status values that are not failures.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type textSearchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []place `json:"results"`
}

type place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	PriceLevel       int      `json:"price_level"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
}
