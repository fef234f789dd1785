// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry wrapper and error taxonomy shared by
// every outbound call: provider searches, LLM calls, and cleaning.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/pkg/types"
)

var (
	// ErrCancelled is the single condition surfaced when the invocation's
	// context is cancelled or its deadline passes.
	ErrCancelled = errors.New("operation cancelled")

	// ErrValidation marks malformed requests. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrBlockedURL marks URLs refused by SSRF-style checks. Never retried.
	ErrBlockedURL = errors.New("blocked url")
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 8 * time.Second
)

// StatusError is a non-2xx HTTP response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Unauthorized reports whether the status is 401 or 403.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// CheckResponse returns a *StatusError for non-2xx responses, including up to
// 512 bytes of the upstream body for debugging.
func CheckResponse(resp *http.Response, provider string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts  int
	LastError error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *ExhaustedError) Unwrap() error { return e.LastError }

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable reports whether err is transient: rate limiting, 5xx responses,
// timeouts, or network failures. Validation, blocked-URL, authorization, and
// cancellation errors are not retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrBlockedURL) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// normalize returns c with zero fields replaced by defaults.
func normalize(c types.RetryConfig) types.RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	return c
}

// Backoff returns the delay before retry number attempt (0-based):
// BaseDelay * 2^attempt, capped at MaxDelay.
func Backoff(cfg types.RetryConfig, attempt int) time.Duration {
	cfg = normalize(cfg)
	d := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(cfg.MaxDelay) || math.IsInf(d, 1) {
		return cfg.MaxDelay
	}
	return time.Duration(d)
}

// WithRetry calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. The context is checked before every attempt and
// before every backoff sleep; when it is done WithRetry returns ErrCancelled
// without calling fn again.
func WithRetry[T any](ctx context.Context, cfg types.RetryConfig, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	cfg = normalize(cfg)

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ErrCancelled
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrCancelled) {
			return zero, ErrCancelled
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return zero, ErrCancelled
		}
		delay := Backoff(cfg, attempt)
		log.Warn(ctx, log.KV{K: "msg", V: "retrying"}, log.KV{K: "op", V: op},
			log.KV{K: "attempt", V: attempt + 1}, log.KV{K: "delay", V: delay.String()},
			log.KV{K: "err", V: err.Error()})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ErrCancelled
		case <-timer.C:
		}
	}
	return zero, &ExhaustedError{Attempts: cfg.MaxAttempts, LastError: lastErr}
}
