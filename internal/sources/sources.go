// Package sources implements the upstream clients the fetch layer plugs
// together: the GitHub search API for repositories, the Hugging Face hub API
// for model cards, and Reddit's public JSON listings for discussion threads.
// Clients are safe for concurrent use, retry transient failures, and return
// records the scoring pipeline consumes directly.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	dverrors "github.com/devseek/devseek/internal/errors"
)

// defaultUserAgent identifies devseek to upstream APIs. Reddit in particular
// rejects generic library user agents.
const defaultUserAgent = "devseek/1.0 (+https://github.com/devseek/devseek)"

// defaultRetry is the retry policy shared by the source clients: two quick
// retries with jitter, so a flaky upstream does not stall the whole request.
func defaultRetry() dverrors.RetryConfig {
	return dverrors.RetryConfig{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// guarded runs op through the retry policy and, when set, the circuit
// breaker. The breaker counts a fully retried operation as one failure.
func guarded(ctx context.Context, cb *dverrors.CircuitBreaker, cfg dverrors.RetryConfig, op func() error) error {
	run := func() error { return dverrors.Retry(ctx, cfg, op) }
	if cb == nil {
		return run()
	}
	return cb.Execute(run)
}

// classifyStatus converts an unexpected upstream HTTP status into a
// structured error. 403 counts as rate limiting: GitHub signals exhausted
// quotas with it, and Reddit uses it to throttle crawlers.
func classifyStatus(upstream string, status int) error {
	msg := fmt.Sprintf("%s returned HTTP %d", upstream, status)
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusForbidden:
		return dverrors.New(dverrors.ErrCodeRateLimited, msg, nil)
	case status >= 500:
		return dverrors.New(dverrors.ErrCodeNetworkUnavailable, msg, nil)
	default:
		return dverrors.UpstreamError(msg, nil)
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
