package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider defines the interface for text generation providers
type Provider interface {
	// Generate returns the model's plain-text completion for a single prompt
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model           string // empty means the provider's configured default
	SystemPrompt    string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// Usage reports token counts when the provider returns them
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string `json:"raw_output"`
	Model     string `json:"model"`
	Usage     Usage  `json:"usage"`
}

// ErrEmptyOutput is returned when a call succeeds but carries no text
var ErrEmptyOutput = errors.New("provider response did not include any output text")

// ErrNoCredentials is returned when no provider has an API key configured
var ErrNoCredentials = errors.New("no generation provider credentials configured")

// HTTPStatusCoder is implemented by errors that carry an upstream HTTP status
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusError wraps an SDK error together with the HTTP status it reported
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// StatusCode extracts the HTTP status from anywhere in err's chain
func StatusCode(err error) (int, bool) {
	var coder HTTPStatusCoder
	if errors.As(err, &coder) {
		return coder.HTTPStatusCode(), true
	}
	return 0, false
}
