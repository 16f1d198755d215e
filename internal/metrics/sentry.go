package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/simcase-api/internal/llm"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // spans are dropped by the SDK when Sentry is not configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))
	span.SetData("duration_ms", duration.Milliseconds())

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGenerationAttempt records one provider attempt as a span
func (m *SentryMetrics) RecordGenerationAttempt(ctx context.Context, provider, outcome string, attempt int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "generation.provider_call")
	defer span.Finish()

	span.SetTag("provider", provider)
	span.SetTag("outcome", outcome)
	span.SetData("attempt", attempt)
	span.SetData("duration_ms", duration.Milliseconds())

	if outcome == outcomeSuccess {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = spanStatusFor(outcome)
	}
	span.Description = fmt.Sprintf("Generation Attempt %d: %s", attempt, provider)
}

// RecordTokenUsage adds token counts to the enclosing transaction
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, provider, model string, usage llm.Usage) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.provider", provider)
		transaction.SetTag("llm.model", model)
		transaction.SetData("llm.input_tokens", usage.InputTokens)
		transaction.SetData("llm.output_tokens", usage.OutputTokens)
		transaction.SetData("llm.total_tokens", usage.TotalTokens)
	}
}

// RecordDegradedCase marks a case that was answered from the local fallback
func (m *SentryMetrics) RecordDegradedCase(ctx context.Context, reason string) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "case.degraded")
	defer span.Finish()
	span.SetTag("reason", reason)
	span.Status = sentry.SpanStatusUnavailable
	span.Description = "Degraded Case: " + reason
}

// RecordPerformanceMetric records performance data
func (m *SentryMetrics) RecordPerformanceMetric(ctx context.Context, operation string, duration time.Duration, metadata map[string]interface{}) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, operation)
	span.Description = operation
	span.SetData("duration_ms", duration.Milliseconds())
	for key, value := range metadata {
		span.SetData(key, value)
	}
	span.Finish()
}

func spanStatusFor(outcome string) sentry.SpanStatus {
	switch outcome {
	case "timeout":
		return sentry.SpanStatusDeadlineExceeded
	case "rate_limited":
		return sentry.SpanStatusResourceExhausted
	case "missing_credential":
		return sentry.SpanStatusUnauthenticated
	case "invalid_request":
		return sentry.SpanStatusInvalidArgument
	case "cancelled":
		return sentry.SpanStatusCanceled
	default:
		return sentry.SpanStatusInternalError
	}
}
