// internal/steps/select-candidate/models.go
package selectcandidate

import "context"

const StepName = "select-candidate"

// DefaultItemName replaces a missing or blank item_name.
const DefaultItemName = "Recommended item"

// indexKeys are read in order; the first present key wins.
var indexKeys = []string{"chosen_index", "place_index", "restaurant_index"}

const systemPrompt = "You are an AI food ordering assistant. " +
	"The user describes what they want to eat. " +
	"You are given a list of candidate restaurants with ratings and categories. " +
	"Choose the single best restaurant and suggest a specific dish or drink " +
	"that matches the user's request. " +
	"Respond ONLY with a JSON object with keys: " +
	"chosen_index (integer), " +
	"item_name (string), " +
	"estimated_total_price (number)."

// Completer is the chat completion call this step depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// CandidateView is the condensed form of a candidate sent to the model.
type CandidateView struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Price      string   `json:"price"`
	Categories []string `json:"categories"`
	Address    string   `json:"address"`
}
