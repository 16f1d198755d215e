package metrics

import (
	"context"

	"github.com/Conceptual-Machines/simcase-api/internal/generation"
)

const outcomeSuccess = "success"

// AttemptMetrics forwards generation attempts to Sentry and CloudWatch
type AttemptMetrics struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewAttemptMetrics creates an attempt observer. Either sink may be nil.
func NewAttemptMetrics(sentryMetrics *SentryMetrics, cloudwatchClient *Client) *AttemptMetrics {
	return &AttemptMetrics{sentry: sentryMetrics, cloudwatch: cloudwatchClient}
}

// ObserveAttempt implements generation.AttemptObserver
func (m *AttemptMetrics) ObserveAttempt(ctx context.Context, a generation.Attempt) {
	if m.sentry != nil {
		m.sentry.RecordGenerationAttempt(ctx, a.Provider, a.Outcome, a.Attempt, a.Duration)
		if a.Outcome == outcomeSuccess {
			m.sentry.RecordTokenUsage(ctx, a.Provider, a.Model, a.Usage)
		}
	}
	if m.cloudwatch.Enabled() {
		m.cloudwatch.RecordGenerationAttempt(a.Provider, a.Outcome, a.Duration)
		if a.Outcome == outcomeSuccess {
			m.cloudwatch.RecordTokenUsage(a.Provider, a.Model, a.Usage)
		}
	}
}
