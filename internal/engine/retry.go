package engine

import (
	"context"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Retry policy is owned by go-stealth, which already classifies
// transient network errors and retryable HTTP statuses for the fetch
// stack. The engine re-exports it so callers and config stay decoupled
// from the library.
type RetryConfig = stealth.RetryConfig

var DefaultRetryConfig = stealth.DefaultRetryConfig

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(code int) bool { return stealth.IsRetryableStatus(code) }

// RetryDo retries fn up to rc.MaxRetries times with exponential
// backoff. Non-retryable errors and context cancellation return
// immediately.
func RetryDo[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	return stealth.RetryDo(ctx, rc, fn)
}

// RetryHTTP wraps RetryDo for HTTP calls: retryable statuses are
// drained and retried, everything else comes back as-is.
func RetryHTTP(ctx context.Context, rc RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}
