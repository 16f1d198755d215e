package logger

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "", formatFields(nil))
	assert.Equal(t, "{attempt=2, elapsed=1.50, provider=openai}", formatFields(Fields{
		"provider": "openai",
		"attempt":  2,
		"elapsed":  1.5,
	}))
}

func TestLogGenerationAttempt(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	LogGenerationAttempt(context.Background(), "gemini", 3, 2, 1200*time.Millisecond, "timeout", nil)

	out := buf.String()
	assert.Contains(t, out, "[WARN] Generation attempt failed")
	assert.Contains(t, out, "attempt=3")
	assert.Contains(t, out, "elapsed_ms=1200")
	assert.Contains(t, out, "outcome=timeout")
}

func TestLogAPIRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "[INFO] Request completed"},
		{http.StatusBadRequest, "[WARN] Request failed with client error"},
		{http.StatusServiceUnavailable, "[ERROR] Request failed with server error"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/cases", nil)
			c.Set("request_id", "req-1")
			c.Set("user_id_str", "42")

			LogAPIRequest(c, "/api/v1/cases", 250*time.Millisecond, tt.status)

			out := buf.String()
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "request_id=req-1")
			assert.Contains(t, out, "user_id=42")
			assert.Contains(t, out, "duration_ms=250")
		})
	}
}

func TestLogToSentryWithoutClient(t *testing.T) {
	assert.NotPanics(t, func() {
		LogToSentry(sentry.LevelWarning, "Degraded case returned", Fields{"reason": "timeout", "attempts": 3})
	})
}
