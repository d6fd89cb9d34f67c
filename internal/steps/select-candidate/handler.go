package selectcandidate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/metrics"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

var (
	ErrNotAnObject  = errors.New("selection payload is not a JSON object")
	ErrTrailingData = errors.New("selection payload has data after the JSON object")
)

type Selector struct {
	llm    Completer
	logger logger.Logger
}

func NewSelector(llm Completer, log logger.Logger) *Selector {
	return &Selector{
		llm: llm,
		logger: log.With(map[string]interface{}{
			"step": StepName,
		}),
	}
}

// Select asks the model to pick one of candidates for prompt. The returned
// index is not range checked; the caller clamps it.
func (s *Selector) Select(ctx context.Context, prompt string, candidates []models.Candidate) (*models.Selection, error) {
	userMessage, err := BuildUserMessage(prompt, candidates)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.CompleteJSON(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	selection, err := Parse(raw)
	if err != nil {
		malformed := apperrors.NewLLMOutputMalformedError(StepName, err)
		s.logger.Warn("using fallback selection", map[string]interface{}{
			"code":  malformed.Code,
			"error": malformed.Details,
		})
		metrics.LLMOutputFallbacks.WithLabelValues(StepName).Inc()
		return Fallback(), nil
	}

	if !selection.ValidIndex {
		s.logger.Warn("selection index missing or not an integer", map[string]interface{}{
			"code": apperrors.ErrCodeLLMOutputMalformed,
		})
	}

	return selection, nil
}

// BuildUserMessage renders the prompt and the condensed candidate list.
func BuildUserMessage(prompt string, candidates []models.Candidate) (string, error) {
	views := make([]CandidateView, 0, len(candidates))
	for i, c := range candidates {
		categories := c.Categories
		if categories == nil {
			categories = []string{}
		}
		views = append(views, CandidateView{
			Index:      i,
			Name:       c.Name,
			Rating:     c.Rating,
			Price:      c.Price,
			Categories: categories,
			Address:    c.Address,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(views); err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	return "User prompt:\n" + prompt + "\n\n" +
		"Candidate restaurants (JSON list):\n" + strings.TrimRight(buf.String(), "\n"), nil
}

// Fallback picks the first candidate with a generic item and no price.
func Fallback() *models.Selection {
	zero := 0.0
	return &models.Selection{
		ChosenIndex:         0,
		ValidIndex:          true,
		ItemName:            DefaultItemName,
		EstimatedTotalPrice: &zero,
	}
}

// Parse reads the model output field by field. A payload that is not exactly
// one JSON object is an error.
func Parse(raw string) (*models.Selection, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}

	fields, ok := payload.(map[string]interface{})
	if !ok {
		return nil, ErrNotAnObject
	}

	selection := &models.Selection{ItemName: DefaultItemName}

	for _, key := range indexKeys {
		value, present := fields[key]
		if !present {
			continue
		}
		if n, ok := value.(json.Number); ok {
			if idx, err := n.Int64(); err == nil {
				selection.ChosenIndex = int(idx)
				selection.ValidIndex = true
			}
		}
		break
	}

	if name, ok := fields["item_name"].(string); ok && strings.TrimSpace(name) != "" {
		selection.ItemName = name
	}

	if n, ok := fields["estimated_total_price"].(json.Number); ok {
		if price, err := n.Float64(); err == nil {
			selection.EstimatedTotalPrice = &price
		}
	}

	return selection, nil
}
