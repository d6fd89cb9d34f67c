// internal/models/order.go
package models

import "strings"

// OrderRequest is the body of POST /api/order.
type OrderRequest struct {
	Prompt   string  `json:"prompt"`
	Location *string `json:"location"`
}

// HasLocation reports whether a usable location was supplied. Absent, null
// and blank are all missing.
func (r OrderRequest) HasLocation() bool {
	return r.Location != nil && strings.TrimSpace(*r.Location) != ""
}

// Constraints are the ordering constraints extracted from the free-text prompt.
// Every scalar is optional; Dietary is never nil after extraction.
type Constraints struct {
	Cuisine       *string  `json:"cuisine"`
	MaxPrice      *float64 `json:"max_price"`
	MaxDistanceKM *float64 `json:"max_distance_km"`
	SpiceLevel    *string  `json:"spice_level"`
	Dietary       []string `json:"dietary"`
}

// Selection is the model's pick among the fetched candidates.
type Selection struct {
	ChosenIndex int `json:"chosen_index"`
	// ValidIndex is false when the model's index was missing or not an integer.
	ValidIndex          bool     `json:"-"`
	ItemName            string   `json:"item_name"`
	EstimatedTotalPrice *float64 `json:"estimated_total_price"`
}

// OrderResult is the planned order returned to the caller. It is built once
// per request and only persisted when the audit log is enabled.
type OrderResult struct {
	PlanID            string  `json:"plan_id"`
	Platform          string  `json:"platform"`
	RestaurantName    string  `json:"restaurant_name"`
	ItemName          string  `json:"item_name"`
	DrinkName         string  `json:"drink_name"`
	TotalPrice        float64 `json:"total_price"`
	ETAMinutes        int     `json:"eta_minutes"`
	RestaurantAddress string  `json:"restaurant_address"`
	CheckoutURL       string  `json:"checkout_url"`
	Timestamp         int64   `json:"timestamp"`
}
