package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when a model answers with no text at all.
var ErrEmptyResponse = errors.New("llm: empty response")

// StatusError reports a non-2xx answer from a provider endpoint.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

// Retryable reports whether repeating the call may succeed: server errors
// and rate limiting are, other client errors are not.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable reports whether err is worth a second attempt. Errors that are
// not a *StatusError (network, timeout, decode) count as retryable.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return err != nil
}
