package extractconstraints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/metrics"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

var ErrNotAnObject = errors.New("constraints payload is not a JSON object")

type Extractor struct {
	llm    Completer
	logger logger.Logger
}

func NewExtractor(llm Completer, log logger.Logger) *Extractor {
	return &Extractor{
		llm: llm,
		logger: log.With(map[string]interface{}{
			"step": StepName,
		}),
	}
}

// Extract asks the model for the constraints in prompt. Malformed model output
// is replaced by Fallback and never surfaces as an error; failures of the
// completion call itself do.
func (e *Extractor) Extract(ctx context.Context, prompt string) (*models.Constraints, error) {
	raw, err := e.llm.CompleteJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	constraints, err := Parse(raw)
	if err != nil {
		malformed := apperrors.NewLLMOutputMalformedError(StepName, err)
		e.logger.Warn("using fallback constraints", map[string]interface{}{
			"code":  malformed.Code,
			"error": malformed.Details,
		})
		metrics.LLMOutputFallbacks.WithLabelValues(StepName).Inc()
		return Fallback(), nil
	}

	e.logger.Debug("constraints extracted", map[string]interface{}{
		"hasCuisine":  constraints.Cuisine != nil,
		"hasMaxPrice": constraints.MaxPrice != nil,
		"dietary":     constraints.Dietary,
	})

	return constraints, nil
}

// Fallback is the record used when the model output cannot be parsed.
func Fallback() *models.Constraints {
	distance := FallbackMaxDistanceKM
	return &models.Constraints{
		MaxDistanceKM: &distance,
		Dietary:       []string{},
	}
}

// Parse reads the model output field by field. Only a payload that is not a
// JSON object is an error; a field of the wrong type is read as null.
func Parse(raw string) (*models.Constraints, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode constraints: %w", err)
	}

	fields, ok := payload.(map[string]interface{})
	if !ok {
		return nil, ErrNotAnObject
	}

	return &models.Constraints{
		Cuisine:       stringField(fields, "cuisine"),
		MaxPrice:      numberField(fields, "max_price"),
		MaxDistanceKM: numberField(fields, "max_distance_km"),
		SpiceLevel:    stringField(fields, "spice_level"),
		Dietary:       stringsField(fields, "dietary"),
	}, nil
}

func stringField(fields map[string]interface{}, key string) *string {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func numberField(fields map[string]interface{}, key string) *float64 {
	n, ok := fields[key].(float64)
	if !ok {
		return nil
	}
	return &n
}

func stringsField(fields map[string]interface{}, key string) []string {
	out := []string{}
	items, ok := fields[key].([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
