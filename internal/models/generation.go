package models

import "time"

// GenerationAttempt is one row of the attempt audit log
type GenerationAttempt struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RequestID    string    `gorm:"index;not null" json:"request_id"`
	Provider     string    `gorm:"not null" json:"provider"`
	Model        string    `json:"model"`
	Attempt      int       `gorm:"not null" json:"attempt"`
	Retry        int       `gorm:"not null" json:"retry"`
	Outcome      string    `gorm:"index;not null" json:"outcome"` // "success" or an error kind
	StatusCode   int       `json:"status_code,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName keeps the audit log table name stable across renames
func (GenerationAttempt) TableName() string {
	return "generation_attempts"
}

// CaseResult is what the case service hands back to callers
type CaseResult struct {
	Parameters CaseParameters     `json:"parameters"`
	Document   StructuredDocument `json:"document"`
	Digest     string             `json:"digest"`
	Degraded   bool               `json:"degraded"`
	Provider   string             `json:"provider,omitempty"`
	Model      string             `json:"model,omitempty"`
	Attempts   int                `json:"attempts"`
	Cached     bool               `json:"cached"`
}
