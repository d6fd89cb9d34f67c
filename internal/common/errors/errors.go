// Package errors provides the structured error taxonomy shared by the
// order planning pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration    ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeNoResults        ErrorCode = "NO_RESULTS"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"

	ErrCodeProviderRequestFailed ErrorCode = "PROVIDER_REQUEST_FAILED"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"

	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMOutputMalformed ErrorCode = "LLM_OUTPUT_MALFORMED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// User facing messages. These are part of the HTTP contract.
const (
	MsgLocationRequired = "Location is required."
	MsgInvalidRequest   = "Invalid request body."
	MsgNoRestaurants    = "No restaurants found matching your request."
	MsgTooManyRequests  = "Too many requests."
	MsgInternal         = "Internal error while planning order."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationError reports a missing or unusable credential or setting.
func NewConfigurationError(details string) *StandardError {
	return newError(ErrCodeConfiguration, "Service is not configured", details, false, nil)
}

// NewLocationRequiredError is returned when an order request has no location.
func NewLocationRequiredError() *StandardError {
	return newError(ErrCodeValidationFailed, MsgLocationRequired, "location", false, nil)
}

// NewInvalidRequestError reports a body that is not valid JSON or violates the schema.
func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, MsgInvalidRequest, details, false, nil)
}

// NewNoResultsError is returned when the provider search is empty.
func NewNoResultsError(term, location string) *StandardError {
	return newError(ErrCodeNoResults, MsgNoRestaurants,
		fmt.Sprintf("term: %s, location: %s", term, location), false, nil)
}

// NewRateLimitedError is returned when the order endpoint is throttled.
func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, MsgTooManyRequests, "", true, nil)
}

// NewProviderRequestFailedError wraps a transport or non-2xx provider failure.
func NewProviderRequestFailedError(platform string, err error) *StandardError {
	return newError(ErrCodeProviderRequestFailed, "Restaurant provider request failed",
		fmt.Sprintf("platform: %s, error: %s", platform, err.Error()), true, err)
}

// NewProviderTimeoutError reports a provider call that hit the client timeout.
func NewProviderTimeoutError(platform string, err error) *StandardError {
	return newError(ErrCodeProviderTimeout, "Restaurant provider timeout",
		fmt.Sprintf("platform: %s", platform), true, err)
}

// NewLLMRequestFailedError wraps a failed chat completion call.
func NewLLMRequestFailedError(err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "LLM request failed", err.Error(), true, err)
}

// NewLLMTimeoutError reports a chat completion that hit its deadline.
func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timeout", "", true, err)
}

// NewLLMOutputMalformedError describes model output that could not be parsed.
// It is only ever logged; callers degrade to a fallback value instead.
func NewLLMOutputMalformedError(step string, err error) *StandardError {
	return newError(ErrCodeLLMOutputMalformed, "LLM returned malformed output",
		fmt.Sprintf("step: %s, error: %s", step, err.Error()), false, err)
}

// NewInternalError converts anything unexpected into the generic planning failure.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, MsgInternal, details, false, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError extracts a *StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// userFacing lists the codes whose Message may be shown to callers verbatim.
var userFacing = map[ErrorCode]bool{
	ErrCodeValidationFailed: true,
	ErrCodeInvalidRequest:   true,
	ErrCodeNoResults:        true,
	ErrCodeRateLimited:      true,
}

// UserMessage returns the text safe to put in a response body. Anything that
// is not an explicit user-facing error collapses to MsgInternal.
func UserMessage(err error) string {
	stdErr, ok := AsStandardError(err)
	if !ok || !userFacing[stdErr.Code] {
		return MsgInternal
	}
	return stdErr.Message
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "LLM_"):
		return "llm"
	case strings.HasPrefix(c, "PROVIDER_"):
		return "provider"
	case code == ErrCodeValidationFailed, code == ErrCodeInvalidRequest, code == ErrCodeRateLimited:
		return "request"
	case code == ErrCodeConfiguration:
		return "configuration"
	case code == ErrCodeNoResults:
		return "business"
	default:
		return "internal"
	}
}
