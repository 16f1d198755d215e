package database

import (
	"context"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Conceptual-Machines/simcase-api/internal/generation"
	"github.com/Conceptual-Machines/simcase-api/internal/logger"
	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

const maxErrorMessage = 2000

// AttemptStore persists every generation attempt to the audit log
type AttemptStore struct {
	db *gorm.DB
}

func NewAttemptStore(db *gorm.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// ObserveAttempt implements generation.AttemptObserver. Write failures are
// logged and never reach the caller.
func (s *AttemptStore) ObserveAttempt(ctx context.Context, a generation.Attempt) {
	row := attemptRow(a)
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		logger.Warn("Failed to record generation attempt", logger.Fields{
			"request_id": a.RequestID,
			"error":      err.Error(),
		})
	}
}

func attemptRow(a generation.Attempt) models.GenerationAttempt {
	row := models.GenerationAttempt{
		RequestID:    a.RequestID,
		Provider:     a.Provider,
		Model:        a.Model,
		Attempt:      a.Attempt,
		Retry:        a.Retry,
		Outcome:      a.Outcome,
		StatusCode:   a.StatusCode,
		DurationMs:   a.Duration.Milliseconds(),
		InputTokens:  int(a.Usage.InputTokens),
		OutputTokens: int(a.Usage.OutputTokens),
	}
	if a.Err != nil {
		row.ErrorMessage = truncateUTF8(a.Err.Error(), maxErrorMessage)
	}
	return row
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ForRequest returns the attempts of one request in order
func (s *AttemptStore) ForRequest(ctx context.Context, requestID string) ([]models.GenerationAttempt, error) {
	var rows []models.GenerationAttempt
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("attempt ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	return rows, nil
}

// OutcomeCounts tallies recorded attempts by outcome
func (s *AttemptStore) OutcomeCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Count   int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.GenerationAttempt{}).
		Select("outcome, count(*) as count").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}
