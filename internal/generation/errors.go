package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/simcase-api/internal/llm"
)

// Kind classifies a generation failure
type Kind string

const (
	KindMissingCredential   Kind = "missing_credential"
	KindTimeout             Kind = "timeout"
	KindRateLimited         Kind = "rate_limited"
	KindUpstreamServerError Kind = "upstream_server_error"
	KindMalformedResponse   Kind = "malformed_response"
	KindAttemptsExhausted   Kind = "attempts_exhausted"
	KindInvalidRequest      Kind = "invalid_request"
)

// Sentinels for errors.Is matching against *Error
var (
	ErrMissingCredential   = errors.New("generation: missing credential")
	ErrTimeout             = errors.New("generation: timeout")
	ErrRateLimited         = errors.New("generation: rate limited")
	ErrUpstreamServerError = errors.New("generation: upstream server error")
	ErrMalformedResponse   = errors.New("generation: malformed response")
	ErrAttemptsExhausted   = errors.New("generation: attempts exhausted")
	ErrInvalidRequest      = errors.New("generation: invalid request")
)

var sentinels = map[Kind]error{
	KindMissingCredential:   ErrMissingCredential,
	KindTimeout:             ErrTimeout,
	KindRateLimited:         ErrRateLimited,
	KindUpstreamServerError: ErrUpstreamServerError,
	KindMalformedResponse:   ErrMalformedResponse,
	KindAttemptsExhausted:   ErrAttemptsExhausted,
	KindInvalidRequest:      ErrInvalidRequest,
}

// Error is the only error type returned by Client.Generate, apart from the
// caller's own context error
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int // upstream HTTP status, zero when none was reported
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Kind == KindAttemptsExhausted {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Provider != "" && e.Kind != KindAttemptsExhausted {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == sentinels[e.Kind]
}

// Retryable reports whether the kind is transient and worth a backoff retry
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindUpstreamServerError
}

// HTTPStatus is the status the API answers with for this failure
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamServerError, KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// classify maps a provider error onto the taxonomy
func classify(provider string, err error) *Error {
	e := &Error{Provider: provider, Err: err}

	switch {
	case errors.Is(err, llm.ErrEmptyOutput):
		e.Kind = KindMalformedResponse
		return e
	case errors.Is(err, llm.ErrNoCredentials):
		e.Kind = KindMissingCredential
		return e
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
		return e
	}

	code, ok := llm.StatusCode(err)
	e.StatusCode = code
	switch {
	case !ok || code >= http.StatusInternalServerError:
		e.Kind = KindUpstreamServerError
	case code == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = KindMissingCredential
	case code >= http.StatusBadRequest:
		e.Kind = KindInvalidRequest
	default:
		e.Kind = KindUpstreamServerError
	}
	return e
}
