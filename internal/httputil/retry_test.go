// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/game-scout/pkg/types"
)

// fastRetry uses a tiny base delay so tests finish quickly.
var fastRetry = types.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

var errRateLimited = &StatusError{Provider: "tavily", StatusCode: http.StatusTooManyRequests}

func TestWithRetry_ImmediateSuccess(t *testing.T) {
	var calls int32
	got, err := WithRetry(context.Background(), fastRetry, "test", func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithRetry_FailsTwiceThenSucceeds(t *testing.T) {
	var calls int32
	got, err := WithRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			return 0, errRateLimited
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWithRetry_NonRetryableCalledOnce(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation", fmt.Errorf("bad query: %w", ErrValidation)},
		{"blocked url", fmt.Errorf("fetch: %w", ErrBlockedURL)},
		{"unauthorized", &StatusError{Provider: "exa", StatusCode: http.StatusUnauthorized}},
		{"bad request", &StatusError{Provider: "exa", StatusCode: http.StatusBadRequest}},
		{"plain error", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			_, err := WithRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				return 0, tt.err
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestWithRetry_PreCancelledNeverCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	_, err := WithRetry(ctx, fastRetry, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithRetry_CancelledDuringBackoff(t *testing.T) {
	cfg := types.RetryConfig{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var calls int32
	_, err := WithRetry(ctx, cfg, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errRateLimited
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.NotErrorIs(t, err, errRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithRetry_Exhausted(t *testing.T) {
	var calls int32
	_, err := WithRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, &StatusError{Provider: "tavily", StatusCode: http.StatusBadGateway}
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWithRetry_DefaultMaxAttempts(t *testing.T) {
	var calls int32
	cfg := types.RetryConfig{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	_, err := WithRetry(context.Background(), cfg, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errRateLimited
	})
	require.Error(t, err)
	assert.Equal(t, int32(defaultMaxAttempts), atomic.LoadInt32(&calls))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: 429}, true},
		{"500", &StatusError{StatusCode: 500}, true},
		{"503 wrapped", fmt.Errorf("search: %w", &StatusError{StatusCode: 503}), true},
		{"401", &StatusError{StatusCode: 401}, false},
		{"403", &StatusError{StatusCode: 403}, false},
		{"404", &StatusError{StatusCode: 404}, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"cancelled sentinel", ErrCancelled, false},
		{"validation", ErrValidation, false},
		{"blocked", ErrBlockedURL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestCheckResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream busy"))
	}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	err = CheckResponse(resp, "tavily")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "upstream busy")
	assert.True(t, IsRetryable(err))
}

func TestBackoffProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cfg := types.RetryConfig{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}

	properties.Property("backoff never exceeds MaxDelay", prop.ForAll(
		func(attempt int) bool {
			return Backoff(cfg, attempt) <= cfg.MaxDelay
		},
		gen.IntRange(0, 200),
	))

	properties.Property("backoff is non-decreasing", prop.ForAll(
		func(attempt int) bool {
			return Backoff(cfg, attempt) <= Backoff(cfg, attempt+1)
		},
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
