package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/simcase-api/internal/generation"
	"github.com/Conceptual-Machines/simcase-api/internal/logger"
)

// statusClientClosedRequest is the de facto status for a caller that gave up
const statusClientClosedRequest = 499

// respondError answers with a short message and a retryable flag. Details
// go to the log and Sentry only.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	retryable := false

	var genErr *generation.Error
	switch {
	case errors.As(err, &genErr):
		status = genErr.HTTPStatus()
		message = errorMessages[genErr.Kind]
		retryable = genErr.Retryable() || genErr.Kind == generation.KindRateLimited ||
			genErr.Kind == generation.KindAttemptsExhausted
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = errorMessages[generation.KindTimeout]
		retryable = true
	case errors.Is(err, context.Canceled):
		status = statusClientClosedRequest
		message = "Request cancelled"
	}

	fields := logger.WithContext(c)
	fields["status_code"] = status
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn("Request failed", fields)
	}

	c.JSON(status, gin.H{
		"error":      message,
		"retryable":  retryable,
		"request_id": c.GetString("request_id"),
	})
}

var errorMessages = map[generation.Kind]string{
	generation.KindMissingCredential:   "Text generation is not configured",
	generation.KindTimeout:             "Text generation timed out",
	generation.KindRateLimited:         "Text generation is rate limited, try again shortly",
	generation.KindUpstreamServerError: "Text generation service is unavailable",
	generation.KindMalformedResponse:   "Text generation returned an unusable response",
	generation.KindAttemptsExhausted:   "Text generation failed after retrying",
	generation.KindInvalidRequest:      "Invalid generation request",
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     err.Error(),
		"retryable": false,
	})
}
