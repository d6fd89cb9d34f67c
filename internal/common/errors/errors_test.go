package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"location required", NewLocationRequiredError(), "Location is required."},
		{"no results", NewNoResultsError("food", "San Jose, CA"), "No restaurants found matching your request."},
		{"invalid body", NewInvalidRequestError("unexpected EOF"), "Invalid request body."},
		{"wrapped validation", fmt.Errorf("plan: %w", NewLocationRequiredError()), "Location is required."},
		{"configuration error is hidden", NewConfigurationError("YELP_API_KEY not set"), MsgInternal},
		{"provider error is hidden", NewProviderRequestFailedError("Yelp", stderrors.New("status 500")), MsgInternal},
		{"plain error is hidden", stderrors.New("boom"), MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	err := NewLLMTimeoutError(context.DeadlineExceeded)

	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.True(t, HasCode(fmt.Errorf("extract: %w", err), ErrCodeLLMTimeout))
	assert.False(t, HasCode(err, ErrCodeLLMRequestFailed))
}

func TestStandardError_WithMetadata(t *testing.T) {
	err := NewNoResultsError("ramen", "Austin, TX").WithMetadata("limit", 5)

	assert.Equal(t, 5, err.Metadata["limit"])
	assert.Contains(t, err.Error(), "NO_RESULTS")
	assert.False(t, err.Timestamp.IsZero())
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "llm", GetErrorCategory(ErrCodeLLMOutputMalformed))
	assert.Equal(t, "provider", GetErrorCategory(ErrCodeProviderTimeout))
	assert.Equal(t, "request", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "configuration", GetErrorCategory(ErrCodeConfiguration))
	assert.Equal(t, "business", GetErrorCategory(ErrCodeNoResults))
	assert.Equal(t, "internal", GetErrorCategory(ErrCodeInternal))
}
