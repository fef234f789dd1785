// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"strings"

	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/internal/clean"
	"github.com/pdiddy/game-scout/internal/cost"
	"github.com/pdiddy/game-scout/internal/exclusion"
	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

// Outcome is everything one executed query contributes to the run. It is
// task-local until the engine merges it after the parallel phase.
type Outcome struct {
	Result   types.CategorizedSearchResult
	Ledger   cost.Ledger
	Cleaned  bool
	Filtered []string
}

// Executor runs planned queries against the configured providers.
type Executor struct {
	Lexical    Provider
	Semantic   Provider
	Exclusions exclusion.Source
	Cleaner    clean.Cleaner
	Config     types.ScoutConfig
}

// Resolve returns the provider that will serve target. A semantic query with
// no semantic provider is served by the lexical one. Returns nil when no
// enabled provider is available.
func (e *Executor) Resolve(target types.Provider) Provider {
	if target == types.ProviderSemantic && enabled(e.Semantic) {
		return e.Semantic
	}
	if enabled(e.Lexical) {
		return e.Lexical
	}
	return nil
}

// Execute runs q once under the retry wrapper, filters excluded domains,
// prices the call and routes the result through the cleaner.
func (e *Executor) Execute(ctx context.Context, q types.PlannedQuery) (Outcome, error) {
	if ctx.Err() != nil {
		return Outcome{}, httputil.ErrCancelled
	}

	p := e.Resolve(q.Provider)
	if p == nil {
		log.Warn(ctx, log.KV{K: "msg", V: "no search provider configured, query returns no results"},
			log.KV{K: "query", V: q.Text})
		return Outcome{Result: types.CategorizedSearchResult{
			Query:    q.Text,
			Provider: q.Provider,
			Category: q.Category,
			Results:  []types.SearchResultItem{},
		}}, nil
	}
	kind := p.Kind()
	if kind != q.Provider && q.Provider != "" {
		log.Info(ctx, log.KV{K: "msg", V: "provider unavailable, retargeting query"},
			log.KV{K: "query", V: q.Text}, log.KV{K: "from", V: string(q.Provider)}, log.KV{K: "to", V: string(kind)})
	}

	excluded := e.excluded(ctx, kind)
	params := Params{ExcludeDomains: excluded}
	if kind == types.ProviderSemantic {
		params.Variants = q.Variants
	}

	raw, err := httputil.WithRetry(ctx, e.Config.Retry, p.Name()+" search", func(ctx context.Context) (RawResult, error) {
		return p.Search(ctx, q.Text, params)
	})
	if err != nil {
		return Outcome{}, err
	}

	micros := cost.QueryCost(e.Config, kind, raw.CostMicroUSD)
	result := types.CategorizedSearchResult{
		Query:         q.Text,
		Provider:      kind,
		Category:      q.Category,
		AnswerSummary: raw.Answer,
		CostMicroUSD:  &micros,
		Results:       toItems(raw.Results, excluded),
	}

	out := Outcome{Result: result, Ledger: cost.Query(kind, micros)}
	if e.Cleaner == nil {
		return out, nil
	}

	cleaned, ok := clean.BestEffort(ctx, e.Cleaner, clean.Input{
		Query:    q.Text,
		Category: q.Category,
		Provider: kind,
		Raw:      result,
	})
	if ctx.Err() != nil {
		return Outcome{}, httputil.ErrCancelled
	}
	out.Result = cleaned.Result
	out.Cleaned = ok
	out.Filtered = cleaned.Filtered
	out.Ledger = out.Ledger.Merge(cost.Cleaning(cleaned.Usage()))
	if ok {
		e.record(ctx, kind, out)
	}
	return out, nil
}

// excluded unions the static list with the source's dynamic list. A failing
// source is logged and only the static list is used.
func (e *Executor) excluded(ctx context.Context, kind types.Provider) []string {
	static := e.Config.Exclusions.Static
	if e.Exclusions == nil {
		return exclusion.Union(static)
	}
	dynamic, err := e.Exclusions.ExcludedDomains(ctx, kind)
	if err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "exclusion lookup failed, using static list"},
			log.KV{K: "provider", V: string(kind)}, log.KV{K: "err", V: err.Error()})
		return exclusion.Union(static)
	}
	return exclusion.Union(static, dynamic)
}

// record reports prefilter drops as failures and kept results as successes
// when the exclusion source accepts outcome reports.
func (e *Executor) record(ctx context.Context, kind types.Provider, out Outcome) {
	rec, ok := e.Exclusions.(exclusion.Recorder)
	if !ok {
		return
	}
	report := func(url string, fn func(context.Context, types.Provider, string) error) {
		if err := fn(ctx, kind, url); err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "recording domain outcome failed"},
				log.KV{K: "url", V: url}, log.KV{K: "err", V: err.Error()})
		}
	}
	for _, u := range out.Filtered {
		report(u, rec.RecordFailure)
	}
	for _, it := range out.Result.Results {
		report(it.URL, rec.RecordSuccess)
	}
}

// toItems converts provider hits, dropping empty URLs and hits the provider
// returned anyway on an excluded domain or one of its subdomains.
func toItems(raw []RawItem, excluded []string) []types.SearchResultItem {
	items := make([]types.SearchResultItem, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || excludedHost(exclusion.Domain(r.URL), excluded) {
			continue
		}
		items = append(items, types.SearchResultItem{
			URL:           r.URL,
			Title:         r.Title,
			Content:       r.Content,
			ProviderScore: r.Score,
		})
	}
	return items
}

func excludedHost(host string, excluded []string) bool {
	for _, d := range excluded {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func enabled(p Provider) bool {
	return p != nil && p.Enabled()
}
