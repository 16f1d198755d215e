package generation

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/simcase-api/internal/llm"
)

// scriptedProvider answers each call with fn(call), call is 1-based
type scriptedProvider struct {
	name  string
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (*llm.GenerationResponse, error)
}

func (p *scriptedProvider) Name() string {
	return p.name
}

func (p *scriptedProvider) Generate(ctx context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()
	return p.fn(ctx, call)
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func failWith(status int) func(context.Context, int) (*llm.GenerationResponse, error) {
	return func(context.Context, int) (*llm.GenerationResponse, error) {
		return nil, &llm.StatusError{Provider: "fake", StatusCode: status, Message: http.StatusText(status)}
	}
}

func succeed(text string) func(context.Context, int) (*llm.GenerationResponse, error) {
	return func(context.Context, int) (*llm.GenerationResponse, error) {
		return &llm.GenerationResponse{RawOutput: text, Model: "fake-model"}, nil
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (o *recordingObserver) ObserveAttempt(_ context.Context, a Attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, a)
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(opts Options, providers ...llm.Provider) (*Client, *sleepRecorder, *recordingObserver) {
	observer := &recordingObserver{}
	sleeper := &sleepRecorder{}
	client := NewClient(providers, opts, observer)
	client.Sleep = sleeper.sleep
	client.Now = func() time.Time { return fixedNow }
	return client, sleeper, observer
}

func testRequest() Request {
	return Request{Prompt: "Write a simulation scenario", RequestID: "req-1"}
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: succeed("## Scenario Overview\nA patient arrives.")}
	client, sleeper, observer := newTestClient(DefaultOptions(), provider)

	result, err := client.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "## Scenario Overview\nA patient arrives.", result.Text)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, "fake-model", result.Model)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, fixedNow, result.Timestamp)
	assert.Empty(t, sleeper.delays)
	require.Len(t, observer.attempts, 1)
	assert.Equal(t, outcomeSuccess, observer.attempts[0].Outcome)
	assert.Equal(t, "req-1", observer.attempts[0].RequestID)
}

func TestGenerateExhaustsAfterThreeTransientFailures(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: failWith(http.StatusServiceUnavailable)}
	client, sleeper, observer := newTestClient(DefaultOptions(), provider)

	result, err := client.Generate(context.Background(), testRequest())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 3, provider.callCount())
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, ErrUpstreamServerError)
	assert.Contains(t, err.Error(), "status 503")

	var genErr *Error
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindAttemptsExhausted, genErr.Kind)
	assert.Equal(t, 3, genErr.Attempts)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
	for i := 1; i < len(sleeper.delays); i++ {
		assert.GreaterOrEqual(t, sleeper.delays[i], sleeper.delays[i-1])
	}

	require.Len(t, observer.attempts, 3)
	for i, a := range observer.attempts {
		assert.Equal(t, i+1, a.Attempt)
		assert.Equal(t, i, a.Retry)
		assert.Equal(t, string(KindUpstreamServerError), a.Outcome)
		assert.Equal(t, http.StatusServiceUnavailable, a.StatusCode)
	}
}

func TestGenerateRecoversAfterTransientFailure(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: func(ctx context.Context, call int) (*llm.GenerationResponse, error) {
		if call == 1 {
			return failWith(http.StatusBadGateway)(ctx, call)
		}
		return succeed("recovered")(ctx, call)
	}}
	client, sleeper, _ := newTestClient(DefaultOptions(), provider)

	result, err := client.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Text)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.delays)
}

func TestGenerateRateLimitedFallsBackToNextProvider(t *testing.T) {
	primary := &scriptedProvider{name: "openai", fn: failWith(http.StatusTooManyRequests)}
	fallback := &scriptedProvider{name: "gemini", fn: succeed("from fallback")}
	client, sleeper, _ := newTestClient(DefaultOptions(), primary, fallback)

	result, err := client.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, primary.callCount())
	assert.Empty(t, sleeper.delays)
}

func TestGenerateRateLimitedWithoutFallbackSurfaces(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: failWith(http.StatusTooManyRequests)}
	client, sleeper, _ := newTestClient(DefaultOptions(), provider)

	_, err := client.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 1, provider.callCount())
	assert.Empty(t, sleeper.delays)
}

func TestGenerateTotalCeilingSpansProviders(t *testing.T) {
	primary := &scriptedProvider{name: "openai", fn: failWith(http.StatusTooManyRequests)}
	fallback := &scriptedProvider{name: "gemini", fn: failWith(http.StatusInternalServerError)}
	client, sleeper, observer := newTestClient(DefaultOptions(), primary, fallback)

	_, err := client.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 2, fallback.callCount())
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.delays)
	assert.Len(t, observer.attempts, 3)
}

func TestGeneratePermanentFailuresPropagate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, int) (*llm.GenerationResponse, error)
		want error
	}{
		{name: "bad request", fn: failWith(http.StatusBadRequest), want: ErrInvalidRequest},
		{name: "unprocessable", fn: failWith(http.StatusUnprocessableEntity), want: ErrInvalidRequest},
		{name: "unauthorized", fn: failWith(http.StatusUnauthorized), want: ErrMissingCredential},
		{name: "forbidden", fn: failWith(http.StatusForbidden), want: ErrMissingCredential},
		{name: "empty output", fn: succeed("   "), want: ErrMalformedResponse},
		{name: "provider reports empty output", fn: func(context.Context, int) (*llm.GenerationResponse, error) {
			return nil, llm.ErrEmptyOutput
		}, want: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{name: "openai", fn: tt.fn}
			client, sleeper, _ := newTestClient(DefaultOptions(), provider)

			_, err := client.Generate(context.Background(), testRequest())

			assert.ErrorIs(t, err, tt.want)
			assert.False(t, IsDegradable(err))
			assert.Equal(t, 1, provider.callCount())
			assert.Empty(t, sleeper.delays)
		})
	}
}

func TestGenerateTimesOut(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: func(ctx context.Context, _ int) (*llm.GenerationResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	opts.MaxRetries = 1
	client, sleeper, observer := newTestClient(opts, provider)

	_, err := client.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsDegradable(err))
	assert.Equal(t, 2, provider.callCount())
	assert.Len(t, sleeper.delays, 1)
	require.Len(t, observer.attempts, 2)
	assert.Equal(t, string(KindTimeout), observer.attempts[0].Outcome)
}

func TestGenerateReturnsCallerCancellation(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: func(ctx context.Context, _ int) (*llm.GenerationResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	client, sleeper, _ := newTestClient(DefaultOptions(), provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, testRequest())

	assert.ErrorIs(t, err, context.Canceled)
	var genErr *Error
	assert.False(t, errors.As(err, &genErr))
	assert.Empty(t, sleeper.delays)
}

func TestGenerateTestModeSkipsProviders(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: func(context.Context, int) (*llm.GenerationResponse, error) {
		t.Error("provider must not be called in test mode")
		return nil, errors.New("unexpected call")
	}}
	client, sleeper, observer := newTestClient(DefaultOptions(), provider)

	req := testRequest()
	req.TestMode = true
	start := time.Now()
	result, err := client.Generate(context.Background(), req)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, SyntheticProvider, result.Provider)
	assert.Equal(t, SyntheticModel, result.Model)
	assert.Equal(t, SyntheticText(""), result.Text)
	assert.Equal(t, 0, provider.callCount())
	assert.Empty(t, sleeper.delays)
	assert.Empty(t, observer.attempts)
}

func TestGenerateClientTestMode(t *testing.T) {
	opts := DefaultOptions()
	opts.TestMode = true
	client, _, _ := newTestClient(opts)

	result, err := client.Generate(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, SyntheticProvider, result.Provider)
	assert.True(t, client.TestMode())
}

func TestGenerateTestModeUsesTitle(t *testing.T) {
	opts := DefaultOptions()
	opts.TestMode = true
	client, _, _ := newTestClient(opts)

	result, err := client.Generate(context.Background(), Request{Title: "Anaphylaxis", Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, SyntheticText("Anaphylaxis"), result.Text)
	assert.Contains(t, result.Text, "# Anaphylaxis\n")
}

func TestGenerateWithoutProviders(t *testing.T) {
	client, _, _ := newTestClient(DefaultOptions())

	_, err := client.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorIs(t, err, llm.ErrNoCredentials)
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	provider := &scriptedProvider{name: "openai", fn: succeed("unused")}
	client, _, _ := newTestClient(DefaultOptions(), provider)

	req := testRequest()
	req.Temperature = 1.5
	_, err := client.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = client.Generate(context.Background(), Request{Prompt: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, provider.callCount())
}

func TestRequestNext(t *testing.T) {
	original := Request{Prompt: "p", Timeout: 10 * time.Second}

	retried := original.next()

	assert.Equal(t, AttemptContext{Retry: 1, Total: 1}, retried.Attempt)
	assert.Equal(t, 15*time.Second, retried.Timeout)
	assert.Equal(t, AttemptContext{}, original.Attempt)
	assert.Equal(t, 10*time.Second, original.Timeout)

	switched := retried.nextProvider()
	assert.Equal(t, AttemptContext{Retry: 0, Total: 2}, switched.Attempt)
}

func TestBackoffDoubles(t *testing.T) {
	client := NewClient(nil, DefaultOptions())
	assert.Equal(t, 2*time.Second, client.backoff(0))
	assert.Equal(t, 4*time.Second, client.backoff(1))
	assert.Equal(t, 8*time.Second, client.backoff(2))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"server error", &llm.StatusError{StatusCode: 500}, KindUpstreamServerError},
		{"gateway timeout status", &llm.StatusError{StatusCode: 504}, KindUpstreamServerError},
		{"rate limited", &llm.StatusError{StatusCode: 429}, KindRateLimited},
		{"unauthorized", &llm.StatusError{StatusCode: 401}, KindMissingCredential},
		{"not found", &llm.StatusError{StatusCode: 404}, KindInvalidRequest},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"empty output", llm.ErrEmptyOutput, KindMalformedResponse},
		{"no credentials", llm.ErrNoCredentials, KindMissingCredential},
		{"transport", errors.New("connection reset by peer"), KindUpstreamServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify("openai", tt.err).Kind)
		})
	}
}

func TestErrorHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, (&Error{Kind: KindInvalidRequest}).HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, (&Error{Kind: KindRateLimited}).HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, (&Error{Kind: KindTimeout}).HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, (&Error{Kind: KindAttemptsExhausted}).HTTPStatus())
}
