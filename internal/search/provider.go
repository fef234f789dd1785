// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search adapts the lexical and semantic search providers behind one
// capability shape and executes planned queries against them under the
// retry wrapper, domain exclusions, and optional content cleaning.
package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

// Params are the per-call provider options.
type Params struct {
	ResultLimit       int
	Depth             string
	ExcludeDomains    []string
	IncludeRawContent bool
	Variants          []string
}

// RawItem is one provider hit before cleaning.
type RawItem struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// RawResult is a provider's response to one query. CostMicroUSD is nil when
// the provider does not report spend.
type RawResult struct {
	Answer       string
	Results      []RawItem
	CostMicroUSD *int64
}

// Provider searches one external service. Implementations return an empty
// RawResult, not an error, when unconfigured or unauthorized.
type Provider interface {
	Name() string
	Kind() types.Provider
	Enabled() bool
	Search(ctx context.Context, text string, p Params) (RawResult, error)
}

// newLimiter returns a token bucket for rps, or nil when rps is not positive.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// wait blocks on l, translating context errors into httputil.ErrCancelled.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return httputil.ErrCancelled
		}
		return err
	}
	return nil
}

func httpClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// unauthorized reports whether err is a 401/403 StatusError.
func unauthorized(err error) bool {
	var statusErr *httputil.StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}
