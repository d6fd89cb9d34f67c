// internal/steps/extract-constraints/models.go
package extractconstraints

import "context"

const StepName = "extract-constraints"

// FallbackMaxDistanceKM is the only field set on the fallback record.
const FallbackMaxDistanceKM = 5.0

const systemPrompt = "You are an assistant that extracts food-ordering constraints " +
	"from a free-text user prompt. " +
	"Respond ONLY with a JSON object with keys: " +
	"cuisine (string or null), " +
	"max_price (number or null), " +
	"max_distance_km (number or null), " +
	"spice_level (string or null), " +
	"dietary (array of strings)."

// Completer is the chat completion call this step depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
