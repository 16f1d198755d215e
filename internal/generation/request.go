package generation

import (
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/simcase-api/internal/llm"
)

// TimeoutGrowth multiplies the attempt budget on every retry
const TimeoutGrowth = 1.5

// AttemptContext counts attempts. Retry restarts at zero when the client
// moves to another provider, Total never does.
type AttemptContext struct {
	Retry int `json:"retry"`
	Total int `json:"total"`
}

// Request is one generation call. Retries derive a new value with next, the
// caller's value is never mutated.
type Request struct {
	RequestID       string         `json:"request_id,omitempty"`
	Title           string         `json:"title,omitempty"`
	Prompt          string         `json:"prompt"`
	SystemPrompt    string         `json:"system_prompt,omitempty"`
	Model           string         `json:"model,omitempty"`
	Temperature     float64        `json:"temperature,omitempty"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Timeout         time.Duration  `json:"timeout,omitempty"`
	TestMode        bool           `json:"test_mode,omitempty"`
	Attempt         AttemptContext `json:"-"`
}

func (r Request) next() Request {
	r.Attempt = AttemptContext{Retry: r.Attempt.Retry + 1, Total: r.Attempt.Total + 1}
	r.Timeout = time.Duration(float64(r.Timeout) * TimeoutGrowth)
	return r
}

// nextProvider starts a fresh retry count on the fallback provider
func (r Request) nextProvider() Request {
	r.Attempt = AttemptContext{Retry: 0, Total: r.Attempt.Total + 1}
	return r
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("prompt is empty")}
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("temperature %.2f outside [0,1]", r.Temperature)}
	}
	if r.MaxOutputTokens < 0 {
		return &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("max output tokens must not be negative")}
	}
	return nil
}

func (r Request) providerRequest() *llm.GenerationRequest {
	return &llm.GenerationRequest{
		Model:           r.Model,
		SystemPrompt:    r.SystemPrompt,
		Prompt:          r.Prompt,
		Temperature:     r.Temperature,
		MaxOutputTokens: r.MaxOutputTokens,
	}
}

// Result is a completed generation
type Result struct {
	Text      string    `json:"text"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  int       `json:"attempts"`
	Usage     llm.Usage `json:"usage"`
}
