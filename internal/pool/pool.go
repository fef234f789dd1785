// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool folds executed query results into the run's research pool,
// tracks URLs returned by more than one query, and projects the pool into
// ranked source summaries.
package pool

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/pdiddy/game-scout/pkg/types"
)

// ErrFrozen is returned by Add after Build.
var ErrFrozen = errors.New("research pool is frozen")

// categoryOrder is the canonical walk order over pool categories.
var categoryOrder = []types.Category{
	types.CategoryOverview,
	types.CategorySpecific,
	types.CategoryRecent,
	types.CategoryDiscovery,
}

// Builder accumulates results into a ResearchPool. The built pool depends
// only on the set of results added, never on the order of Add calls.
type Builder struct {
	byCategory map[types.Category][]types.CategorizedSearchResult
	urls       map[string]struct{}
	cache      map[string]types.CategorizedSearchResult
	frozen     bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		byCategory: make(map[types.Category][]types.CategorizedSearchResult),
		urls:       make(map[string]struct{}),
		cache:      make(map[string]types.CategorizedSearchResult),
	}
}

// Add folds r into the pool.
func (b *Builder) Add(r types.CategorizedSearchResult) error {
	if b.frozen {
		return ErrFrozen
	}
	b.byCategory[r.Category] = append(b.byCategory[r.Category], r)
	for _, it := range r.Results {
		if it.URL != "" {
			b.urls[it.URL] = struct{}{}
		}
	}
	if prev, ok := b.cache[r.Query]; !ok || precedes(r, prev) {
		b.cache[r.Query] = r
	}
	return nil
}

// Build freezes the builder and returns the pool. Category slices are
// ordered by query text. A query text produced under two category/provider
// pairs is cached under the lexically smaller pair.
func (b *Builder) Build() types.ResearchPool {
	b.frozen = true

	p := types.ResearchPool{
		ByCategory: make(map[types.Category][]types.CategorizedSearchResult, len(b.byCategory)),
		AllURLs:    make(map[string]struct{}, len(b.urls)),
		QueryCache: make(map[string]types.CategorizedSearchResult, len(b.cache)),
	}
	for c, rs := range b.byCategory {
		sorted := append([]types.CategorizedSearchResult(nil), rs...)
		sort.SliceStable(sorted, func(i, j int) bool { return precedes(sorted[i], sorted[j]) })
		p.ByCategory[c] = sorted
	}
	for u := range b.urls {
		p.AllURLs[u] = struct{}{}
	}
	for q, r := range b.cache {
		p.QueryCache[q] = r
	}
	return p
}

func precedes(a, b types.CategorizedSearchResult) bool {
	if a.Query != b.Query {
		return a.Query < b.Query
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Provider < b.Provider
}

// Walk visits every result of p in canonical order: known categories first
// in overview, category, recent, discovery order, then any others by name.
func Walk(p types.ResearchPool, fn func(r types.CategorizedSearchResult)) {
	seen := make(map[types.Category]bool, len(categoryOrder))
	for _, c := range categoryOrder {
		seen[c] = true
		for _, r := range p.ByCategory[c] {
			fn(r)
		}
	}
	var rest []types.Category
	for c := range p.ByCategory {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		for _, r := range p.ByCategory[c] {
			fn(r)
		}
	}
}

// Evidence returns the total evidence volume of p in characters: the
// content and detailed summary of each distinct URL's first occurrence plus
// every provider answer summary.
func Evidence(p types.ResearchPool) int {
	total := 0
	seen := make(map[string]struct{})
	Walk(p, func(r types.CategorizedSearchResult) {
		total += utf8.RuneCountInString(r.AnswerSummary)
		for _, it := range r.Results {
			if _, dup := seen[it.URL]; dup {
				continue
			}
			seen[it.URL] = struct{}{}
			total += utf8.RuneCountInString(it.Content) + utf8.RuneCountInString(it.DetailedSummary)
		}
	})
	return total
}

// ExtractSourceSummaries returns up to maxSources distinct cleaned sources
// ranked by quality plus relevance, highest first. Items with neither a
// quality score nor a detailed summary are skipped. Ties keep walk order.
func ExtractSourceSummaries(p types.ResearchPool, maxSources int) []types.SourceSummary {
	var out []types.SourceSummary
	emitted := make(map[string]struct{})
	Walk(p, func(r types.CategorizedSearchResult) {
		for _, it := range r.Results {
			if _, dup := emitted[it.URL]; dup || !it.Cleaned() {
				continue
			}
			emitted[it.URL] = struct{}{}
			out = append(out, types.SourceSummary{
				URL:             it.URL,
				Title:           it.Title,
				DetailedSummary: it.DetailedSummary,
				KeyFacts:        nonNil(it.KeyFacts),
				DataPoints:      nonNil(it.DataPoints),
				OriginQuery:     r.Query,
				QualityScore:    deref(it.QualityScore),
				RelevanceScore:  deref(it.RelevanceScore),
			})
		}
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].CombinedScore() > out[j].CombinedScore() })
	if maxSources >= 0 && len(out) > maxSources {
		out = out[:maxSources]
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
