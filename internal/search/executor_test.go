// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/game-scout/internal/clean"
	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

// --- stubs ---

type stubProvider struct {
	kind    types.Provider
	off     bool
	result  RawResult
	errs    []error
	mu      sync.Mutex
	calls   int
	lastP   Params
	lastTxt string
}

func (s *stubProvider) Name() string         { return "stub-" + string(s.kind) }
func (s *stubProvider) Kind() types.Provider { return s.kind }
func (s *stubProvider) Enabled() bool        { return !s.off }

func (s *stubProvider) Search(_ context.Context, text string, p Params) (RawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastP = p
	s.lastTxt = text
	if s.calls <= len(s.errs) {
		return RawResult{}, s.errs[s.calls-1]
	}
	return s.result, nil
}

type stubSource struct {
	domains  []string
	err      error
	failures []string
	success  []string
}

func (s *stubSource) ExcludedDomains(context.Context, types.Provider) ([]string, error) {
	return s.domains, s.err
}

func (s *stubSource) RecordFailure(_ context.Context, _ types.Provider, d string) error {
	s.failures = append(s.failures, d)
	return nil
}

func (s *stubSource) RecordSuccess(_ context.Context, _ types.Provider, d string) error {
	s.success = append(s.success, d)
	return nil
}

type funcCleaner func(context.Context, clean.Input) (clean.Output, error)

func (f funcCleaner) Clean(ctx context.Context, in clean.Input) (clean.Output, error) { return f(ctx, in) }

func testScoutConfig() types.ScoutConfig {
	cfg := types.DefaultScoutConfig()
	cfg.Retry = types.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	cfg.Exclusions.Static = []string{"pinterest.com"}
	return cfg
}

func lexicalHits() RawResult {
	return RawResult{
		Answer: "summary",
		Results: []RawItem{
			{Title: "A", URL: "https://a.example/1", Content: "aa", Score: 0.9},
			{Title: "Pin", URL: "https://www.pinterest.com/pin/1", Content: "pp"},
			{Title: "", URL: "", Content: "no url"},
			{Title: "B", URL: "https://b.example/2", Content: "bb"},
		},
	}
}

// --- tests ---

func TestExecuteLexical(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	src := &stubSource{domains: []string{"spam.example"}}
	ex := &Executor{Lexical: lex, Exclusions: src, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{
		Text: "Game X beginner guide", Provider: types.ProviderLexical, Category: types.CategoryOverview,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"pinterest.com", "spam.example"}, lex.lastP.ExcludeDomains)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, out.Result.URLs())
	assert.Equal(t, "summary", out.Result.AnswerSummary)
	assert.Equal(t, types.CategoryOverview, out.Result.Category)
	require.NotNil(t, out.Result.CostMicroUSD)
	assert.Equal(t, int64(8000), *out.Result.CostMicroUSD)
	assert.Equal(t, 1, out.Ledger.Search.LexicalCount)
	assert.Equal(t, int64(8000), out.Ledger.Search.LexicalCostMicroUSD)
	assert.False(t, out.Cleaned)
	assert.Empty(t, src.success, "outcomes are recorded only after cleaning")
}

func TestExecuteReportedCost(t *testing.T) {
	reported := int64(6500)
	sem := &stubProvider{kind: types.ProviderSemantic, result: RawResult{CostMicroUSD: &reported,
		Results: []RawItem{{URL: "https://c.example"}}}}
	ex := &Executor{Lexical: &stubProvider{kind: types.ProviderLexical}, Semantic: sem, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{
		Text: "lore", Provider: types.ProviderSemantic, Variants: []string{"history"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"history"}, sem.lastP.Variants)
	assert.Equal(t, 1, out.Ledger.Search.SemanticCount)
	assert.Equal(t, int64(6500), out.Ledger.Search.SemanticCostMicroUSD)
}

func TestExecuteSemanticFallsBackToLexical(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	sem := &stubProvider{kind: types.ProviderSemantic, off: true}
	ex := &Executor{Lexical: lex, Semantic: sem, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{
		Text: "lore", Provider: types.ProviderSemantic, Variants: []string{"history"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, lex.calls)
	assert.Zero(t, sem.calls)
	assert.Empty(t, lex.lastP.Variants)
	assert.Equal(t, types.ProviderLexical, out.Result.Provider)
}

func TestExecuteNoProviders(t *testing.T) {
	ex := &Executor{Config: testScoutConfig()}
	out, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.Empty(t, out.Result.Results)
	assert.Zero(t, out.Ledger.TotalMicroUSD())
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	transient := &httputil.StatusError{Provider: "stub", StatusCode: 503}
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits(), errs: []error{transient, transient}}
	ex := &Executor{Lexical: lex, Config: testScoutConfig()}

	_, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.Equal(t, 3, lex.calls)
}

func TestExecuteExhausted(t *testing.T) {
	transient := &httputil.StatusError{Provider: "stub", StatusCode: 502}
	lex := &stubProvider{kind: types.ProviderLexical, errs: []error{transient, transient, transient}}
	ex := &Executor{Lexical: lex, Config: testScoutConfig()}

	_, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	var exhausted *httputil.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lex := &stubProvider{kind: types.ProviderLexical}
	ex := &Executor{Lexical: lex, Config: testScoutConfig()}

	_, err := ex.Execute(ctx, types.PlannedQuery{Text: "q"})
	assert.ErrorIs(t, err, httputil.ErrCancelled)
	assert.Zero(t, lex.calls)
}

func TestExecuteExclusionFailureUsesStatic(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	ex := &Executor{Lexical: lex, Exclusions: &stubSource{err: errors.New("db locked")}, Config: testScoutConfig()}

	_, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.Equal(t, []string{"pinterest.com"}, lex.lastP.ExcludeDomains)
}

func TestExecuteCleaningSuccessRecordsOutcomes(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	src := &stubSource{}
	q, r := 90.0, 85.0
	cleaner := funcCleaner(func(_ context.Context, in clean.Input) (clean.Output, error) {
		res := in.Raw
		res.Results = res.Results[:1]
		res.Results[0].QualityScore = &q
		res.Results[0].RelevanceScore = &r
		return clean.Output{
			Result:     res,
			Prefilter:  types.TokenUsage{Input: 50},
			Extraction: types.TokenUsage{Input: 300, CostMicroUSD: 12},
			Filtered:   []string{"https://b.example/2"},
		}, nil
	})
	ex := &Executor{Lexical: lex, Exclusions: src, Cleaner: cleaner, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.True(t, out.Cleaned)
	assert.Equal(t, []string{"https://a.example/1"}, out.Result.URLs())
	assert.Equal(t, int64(350), out.Ledger.Cleaning.Total.Input)
	assert.Equal(t, int64(8012), out.Ledger.TotalMicroUSD())
	assert.Equal(t, []string{"https://b.example/2"}, src.failures)
	assert.Equal(t, []string{"https://a.example/1"}, src.success)
}

func TestExecuteCleaningFailureKeepsRaw(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	src := &stubSource{}
	cleaner := funcCleaner(func(context.Context, clean.Input) (clean.Output, error) {
		return clean.Output{Prefilter: types.TokenUsage{Input: 40}}, errors.New("bad json")
	})
	ex := &Executor{Lexical: lex, Exclusions: src, Cleaner: cleaner, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.False(t, out.Cleaned)
	assert.Len(t, out.Result.Results, 2)
	assert.Equal(t, int64(40), out.Ledger.Cleaning.Prefilter.Input)
	assert.Empty(t, src.failures)
}

func TestExecuteDropsExcludedSubdomains(t *testing.T) {
	lex := &stubProvider{kind: types.ProviderLexical, result: RawResult{Results: []RawItem{
		{URL: "https://uk.pinterest.com/pin/2"},
		{URL: "https://m.facebook.com/gamex"},
		{URL: "https://notpinterest.com/a"},
		{URL: "https://facebook.com.example/b"},
	}}}
	src := &stubSource{domains: []string{"facebook.com"}}
	ex := &Executor{Lexical: lex, Exclusions: src, Config: testScoutConfig()}

	out, err := ex.Execute(context.Background(), types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://notpinterest.com/a", "https://facebook.com.example/b"}, out.Result.URLs())
}

func TestExecuteCancelledDuringCleaning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lex := &stubProvider{kind: types.ProviderLexical, result: lexicalHits()}
	src := &stubSource{}
	cleaner := funcCleaner(func(ctx context.Context, in clean.Input) (clean.Output, error) {
		cancel()
		<-ctx.Done()
		return clean.Output{Result: in.Raw}, ctx.Err()
	})
	ex := &Executor{Lexical: lex, Exclusions: src, Cleaner: cleaner, Config: testScoutConfig()}

	out, err := ex.Execute(ctx, types.PlannedQuery{Text: "q", Provider: types.ProviderLexical})
	assert.ErrorIs(t, err, httputil.ErrCancelled)
	assert.Equal(t, Outcome{}, out)
	assert.Empty(t, src.success)
	assert.Empty(t, src.failures)
}
