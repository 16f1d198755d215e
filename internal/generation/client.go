// Package generation wraps the text providers with timeouts, retries with
// exponential backoff, rate-limit fallback and a deterministic test mode.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/simcase-api/internal/config"
	"github.com/Conceptual-Machines/simcase-api/internal/llm"
	"github.com/Conceptual-Machines/simcase-api/internal/logger"
)

const outcomeSuccess = "success"

// Options are the client's retry and sampling settings
type Options struct {
	MaxRetries       int           // retries per provider
	MaxTotalAttempts int           // attempts across every provider
	BaseDelay        time.Duration // backoff before retry n is BaseDelay * 2^n
	Timeout          time.Duration // budget of the first attempt
	Temperature      float64
	MaxOutputTokens  int
	TestMode         bool
}

// DefaultOptions mirrors the config defaults
func DefaultOptions() Options {
	return Options{
		MaxRetries:       2,
		MaxTotalAttempts: 3,
		BaseDelay:        2 * time.Second,
		Timeout:          60 * time.Second,
		Temperature:      0.7,
		MaxOutputTokens:  4000,
	}
}

// OptionsFromConfig reads the generation settings from config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxRetries:       cfg.MaxRetries,
		MaxTotalAttempts: cfg.MaxTotalAttempts,
		BaseDelay:        cfg.GenerationBackoff,
		Timeout:          cfg.GenerationTimeout,
		Temperature:      cfg.Temperature,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		TestMode:         cfg.TestMode,
	}
}

// Attempt describes one finished provider call
type Attempt struct {
	RequestID  string
	Provider   string
	Model      string
	Attempt    int // 1-based across providers
	Retry      int
	Outcome    string // "success" or an error Kind
	StatusCode int
	Duration   time.Duration
	Usage      llm.Usage
	Err        error
}

// AttemptObserver receives every attempt, successful or not
type AttemptObserver interface {
	ObserveAttempt(ctx context.Context, attempt Attempt)
}

// Client is the resilient generation client
type Client struct {
	providers []llm.Provider
	opts      Options
	observers []AttemptObserver

	// Sleep waits between retries, Now stamps results. Both are swapped in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// NewClient creates a client that tries providers in order
func NewClient(providers []llm.Provider, opts Options, observers ...AttemptObserver) *Client {
	if opts.MaxTotalAttempts < 1 {
		opts.MaxTotalAttempts = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		providers: providers,
		opts:      opts,
		observers: observers,
		Sleep:     sleepContext,
		Now:       time.Now,
	}
}

// AddObserver registers another attempt observer
func (c *Client) AddObserver(o AttemptObserver) {
	c.observers = append(c.observers, o)
}

// TestMode reports whether the client never calls a provider
func (c *Client) TestMode() bool {
	return c.opts.TestMode
}

// Generate returns generated text or a *Error. A cancelled caller context is
// returned as is.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	req = c.withDefaults(req)

	if req.TestMode || c.opts.TestMode {
		return &Result{
			Text:      SyntheticText(req.Title),
			Provider:  SyntheticProvider,
			Model:     SyntheticModel,
			Timestamp: c.Now(),
		}, nil
	}

	if err := req.validate(); err != nil {
		return nil, err
	}
	if len(c.providers) == 0 {
		return nil, &Error{Kind: KindMissingCredential, Err: llm.ErrNoCredentials}
	}

	transaction := sentry.StartTransaction(ctx, "generation.generate")
	defer transaction.Finish()
	transaction.SetTag("request_id", req.RequestID)
	ctx = transaction.Context()

	providerIdx := 0
	for {
		provider := c.providers[providerIdx]
		start := time.Now()
		resp, err := c.attempt(ctx, provider, req)
		elapsed := time.Since(start)

		if err == nil {
			c.observe(ctx, req, provider.Name(), resp.Model, elapsed, outcomeSuccess, 0, resp.Usage, nil)
			transaction.SetTag("outcome", outcomeSuccess)
			return &Result{
				Text:      resp.RawOutput,
				Provider:  provider.Name(),
				Model:     resp.Model,
				Timestamp: c.Now(),
				Attempts:  req.Attempt.Total + 1,
				Usage:     resp.Usage,
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.observe(ctx, req, provider.Name(), req.Model, elapsed, "cancelled", 0, llm.Usage{}, ctxErr)
			return nil, ctxErr
		}

		genErr := classify(provider.Name(), err)
		c.observe(ctx, req, provider.Name(), req.Model, elapsed, string(genErr.Kind), genErr.StatusCode, llm.Usage{}, genErr)
		attempts := req.Attempt.Total + 1
		genErr.Attempts = attempts
		transaction.SetTag("outcome", string(genErr.Kind))

		switch {
		case genErr.Kind == KindRateLimited:
			if providerIdx+1 < len(c.providers) && attempts < c.opts.MaxTotalAttempts {
				providerIdx++
				req = req.nextProvider()
				continue
			}
			return nil, genErr

		case genErr.Retryable():
			if req.Attempt.Retry >= c.opts.MaxRetries || attempts >= c.opts.MaxTotalAttempts {
				exhausted := &Error{Kind: KindAttemptsExhausted, Provider: provider.Name(), Attempts: attempts, Err: genErr}
				logger.Error("Generation attempts exhausted", exhausted, logger.Fields{
					"request_id": req.RequestID,
					"provider":   provider.Name(),
					"error_kind": string(KindAttemptsExhausted),
					"attempts":   attempts,
				})
				return nil, exhausted
			}
			if err := c.Sleep(ctx, c.backoff(req.Attempt.Retry)); err != nil {
				return nil, err
			}
			req = req.next()

		default:
			return nil, genErr
		}
	}
}

// backoff is BaseDelay * 2^retry
func (c *Client) backoff(retry int) time.Duration {
	return c.opts.BaseDelay * time.Duration(1<<retry)
}

type attemptOutcome struct {
	resp *llm.GenerationResponse
	err  error
}

// attempt runs one provider call under the request's timeout. The result
// channel is buffered so an abandoned call can still deliver and exit.
func (c *Client) attempt(ctx context.Context, provider llm.Provider, req Request) (*llm.GenerationResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	done := make(chan attemptOutcome, 1)
	go func() {
		resp, err := provider.Generate(attemptCtx, req.providerRequest())
		done <- attemptOutcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.resp == nil || strings.TrimSpace(out.resp.RawOutput) == "" {
			return nil, llm.ErrEmptyOutput
		}
		if out.resp.Model == "" {
			out.resp.Model = req.Model
		}
		return out.resp, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, context.DeadlineExceeded
	}
}

func (c *Client) withDefaults(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Timeout <= 0 {
		req.Timeout = c.opts.Timeout
	}
	if req.Temperature == 0 {
		req.Temperature = c.opts.Temperature
	}
	if req.MaxOutputTokens == 0 {
		req.MaxOutputTokens = c.opts.MaxOutputTokens
	}
	return req
}

func (c *Client) observe(ctx context.Context, req Request, provider, model string, elapsed time.Duration,
	outcome string, statusCode int, usage llm.Usage, err error,
) {
	fields := logger.Fields{
		"request_id": req.RequestID,
		"model":      model,
		"timeout_ms": req.Timeout.Milliseconds(),
	}
	if statusCode != 0 {
		fields["status_code"] = statusCode
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.LogGenerationAttempt(ctx, provider, req.Attempt.Total+1, req.Attempt.Retry, elapsed, outcome, fields)

	attempt := Attempt{
		RequestID:  req.RequestID,
		Provider:   provider,
		Model:      model,
		Attempt:    req.Attempt.Total + 1,
		Retry:      req.Attempt.Retry,
		Outcome:    outcome,
		StatusCode: statusCode,
		Duration:   elapsed,
		Usage:      usage,
		Err:        err,
	}
	for _, o := range c.observers {
		o.ObserveAttempt(ctx, attempt)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsDegradable reports whether a failure should fall back to a locally built
// document instead of failing the case
func IsDegradable(err error) bool {
	return errors.Is(err, ErrAttemptsExhausted) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUpstreamServerError)
}
