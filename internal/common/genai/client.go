// Package genai is a minimal client for OpenAI compatible chat completion
// endpoints running in JSON-object response mode.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	commonhttp "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/http"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"

	responseFormatJSONObject = "json_object"
)

var ErrEmptyCompletion = errors.New("completion has no choices")

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *commonhttp.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: commonhttp.NewClient(cfg.Timeout),
	}
}

// CompleteJSON sends one system and one user message with the JSON-object
// response format and returns the raw content of the first choice. The content
// is not validated; callers own the parse and its fallback. No retry.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.NewConfigurationError("OPENAI_API_KEY not set")
	}

	payload := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
		ResponseFormat: &ResponseFormat{Type: responseFormatJSONObject},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.NewLLMRequestFailedError(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewLLMRequestFailedError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var chatResp ChatResponse
	if err := c.httpClient.DoJSON(req, &chatResp); err != nil {
		if commonhttp.IsTimeout(err) {
			return "", apperrors.NewLLMTimeoutError(err)
		}
		return "", apperrors.NewLLMRequestFailedError(err)
	}

	if len(chatResp.Choices) == 0 {
		return "", apperrors.NewLLMRequestFailedError(ErrEmptyCompletion)
	}

	return chatResp.Choices[0].Message.Content, nil
}
