// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the text-generation capability used by the planner,
// the discovery check and the cleaning adapter.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

// ErrNotConfigured is returned by generators that have no credentials or were
// disabled by configuration.
var ErrNotConfigured = errors.New("generator not configured")

// Request is one generation call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response carries the generated text and the call's token usage.
type Response struct {
	Text  string
	Usage types.TokenUsage
}

// Generator produces text for a prompt. Implementations must honour ctx.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Disabled is a Generator that always reports ErrNotConfigured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}

// Retrying runs every call of Next under the retry wrapper.
type Retrying struct {
	Next  Generator
	Retry types.RetryConfig
}

// WithRetry wraps g so transient failures are retried per cfg.
func WithRetry(g Generator, cfg types.RetryConfig) Generator {
	if _, off := g.(Disabled); off {
		return g
	}
	return Retrying{Next: g, Retry: cfg}
}

func (r Retrying) Generate(ctx context.Context, req Request) (Response, error) {
	return httputil.WithRetry(ctx, r.Retry, "generate", func(ctx context.Context) (Response, error) {
		return r.Next.Generate(ctx, req)
	})
}

// GenerateJSON calls g and decodes the first JSON object in the reply into v.
// Usage is returned even when decoding fails so callers can account for it.
func GenerateJSON(ctx context.Context, g Generator, req Request, v any) (types.TokenUsage, error) {
	if g == nil {
		return types.TokenUsage{}, ErrNotConfigured
	}
	resp, err := g.Generate(ctx, req)
	if err != nil {
		return resp.Usage, err
	}
	raw, err := ExtractJSON(resp.Text)
	if err != nil {
		return resp.Usage, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return resp.Usage, fmt.Errorf("parsing generated JSON: %w", err)
	}
	return resp.Usage, nil
}

// ExtractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in generated text")
	}
	return text[start : end+1], nil
}
