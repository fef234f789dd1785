// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the game-scout research engine.
// Covers the query plan, provider results, the research pool, source
// summaries, cost and token accounting, and the terminal ScoutOutput.
package types

import (
	"sort"
	"time"
)

// Provider identifies a class of search provider.
type Provider string

const (
	// ProviderLexical is the keyword/web-search provider (Tavily).
	ProviderLexical Provider = "lexical"
	// ProviderSemantic is the neural/semantic provider (Exa).
	ProviderSemantic Provider = "semantic"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	return p == ProviderLexical || p == ProviderSemantic
}

// Category groups a search query and its results.
type Category string

const (
	CategoryOverview  Category = "overview"
	CategorySpecific  Category = "category"
	CategoryRecent    Category = "recent"
	CategoryDiscovery Category = "discovery"
)

// Subject describes the game being researched.
type Subject struct {
	// Name is the display name of the game (e.g. "Hollow Knight").
	Name string `json:"name" yaml:"name"`

	// Identifiers holds locale-agnostic identifiers such as a slug or store ID.
	Identifiers map[string]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// Genres are optional genre hints ("metroidvania", "roguelike").
	Genres []string `json:"genres,omitempty" yaml:"genres,omitempty"`

	// Categories are optional article category hints ("guide", "review").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Instruction is the free-text editorial instruction.
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty"`
}

// PlannedQuery is one search query chosen by the planner.
type PlannedQuery struct {
	Text             string   `json:"text" yaml:"text"`
	Provider         Provider `json:"provider" yaml:"provider"`
	Category         Category `json:"category" yaml:"category"`
	Purpose          string   `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	ExpectedFindings []string `json:"expected_findings,omitempty" yaml:"expected_findings,omitempty"`

	// Variants are extra phrasings sent to the semantic provider for coverage.
	Variants []string `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// QueryPlan is the ordered set of queries for one invocation plus a draft title.
type QueryPlan struct {
	DraftTitle string         `json:"draft_title" yaml:"draft_title"`
	Queries    []PlannedQuery `json:"queries" yaml:"queries"`

	// Fallback is true when the deterministic template planner produced the plan.
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// DiscoveryCheck records whether a discovery query was needed before planning.
type DiscoveryCheck struct {
	NeedsDiscovery bool     `json:"needs_discovery" yaml:"needs_discovery"`
	Reason         string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Query          string   `json:"query,omitempty" yaml:"query,omitempty"`
	Provider       Provider `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// SearchResultItem is one URL returned by a provider, optionally enriched by
// the cleaning adapter. Score fields are nil when cleaning did not run.
type SearchResultItem struct {
	URL             string   `json:"url" yaml:"url"`
	Title           string   `json:"title" yaml:"title"`
	Content         string   `json:"content" yaml:"content"`
	ProviderScore   float64  `json:"provider_score,omitempty" yaml:"provider_score,omitempty"`
	QualityScore    *float64 `json:"quality_score,omitempty" yaml:"quality_score,omitempty"`
	RelevanceScore  *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
	DetailedSummary string   `json:"detailed_summary,omitempty" yaml:"detailed_summary,omitempty"`
	KeyFacts        []string `json:"key_facts,omitempty" yaml:"key_facts,omitempty"`
	DataPoints      []string `json:"data_points,omitempty" yaml:"data_points,omitempty"`
}

// Cleaned reports whether the item carries any ranking signal from cleaning.
func (it SearchResultItem) Cleaned() bool {
	return it.QualityScore != nil || it.DetailedSummary != ""
}

// CategorizedSearchResult is the outcome of one executed query.
type CategorizedSearchResult struct {
	Query         string             `json:"query" yaml:"query"`
	Provider      Provider           `json:"provider" yaml:"provider"`
	Category      Category           `json:"category" yaml:"category"`
	AnswerSummary string             `json:"answer_summary,omitempty" yaml:"answer_summary,omitempty"`
	CostMicroUSD  *int64             `json:"cost_micro_usd,omitempty" yaml:"cost_micro_usd,omitempty"`
	Results       []SearchResultItem `json:"results" yaml:"results"`
}

// URLs returns the item URLs in result order.
func (r CategorizedSearchResult) URLs() []string {
	urls := make([]string, 0, len(r.Results))
	for _, it := range r.Results {
		urls = append(urls, it.URL)
	}
	return urls
}

// ResearchPool is the frozen aggregate of every result gathered in one run.
type ResearchPool struct {
	ByCategory map[Category][]CategorizedSearchResult `json:"by_category" yaml:"by_category"`
	AllURLs    map[string]struct{}                    `json:"-" yaml:"-"`
	QueryCache map[string]CategorizedSearchResult     `json:"query_cache" yaml:"query_cache"`
}

// URLList returns AllURLs sorted lexically.
func (p ResearchPool) URLList() []string {
	urls := make([]string, 0, len(p.AllURLs))
	for u := range p.AllURLs {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Lookup returns the result produced by the exact query text.
func (p ResearchPool) Lookup(query string) (CategorizedSearchResult, bool) {
	r, ok := p.QueryCache[query]
	return r, ok
}

// SourceSummary is one ranked, deduplicated source for downstream writers.
type SourceSummary struct {
	URL             string   `json:"url" yaml:"url"`
	Title           string   `json:"title" yaml:"title"`
	DetailedSummary string   `json:"detailed_summary" yaml:"detailed_summary"`
	KeyFacts        []string `json:"key_facts" yaml:"key_facts"`
	DataPoints      []string `json:"data_points" yaml:"data_points"`
	OriginQuery     string   `json:"origin_query" yaml:"origin_query"`
	QualityScore    float64  `json:"quality_score" yaml:"quality_score"`
	RelevanceScore  float64  `json:"relevance_score" yaml:"relevance_score"`
}

// CombinedScore is the ranking key for source summaries.
func (s SourceSummary) CombinedScore() float64 {
	return s.QualityScore + s.RelevanceScore
}

// DuplicateURLInfo lists every query that returned the same URL.
type DuplicateURLInfo struct {
	URL     string   `json:"url" yaml:"url"`
	Queries []string `json:"queries" yaml:"queries"`
	Count   int      `json:"count" yaml:"count"`
}

// SearchQueryStats summarizes first-seen versus already-seen results per query.
type SearchQueryStats struct {
	Query      string   `json:"query" yaml:"query"`
	Provider   Provider `json:"provider" yaml:"provider"`
	Category   Category `json:"category" yaml:"category"`
	Total      int      `json:"total" yaml:"total"`
	Unique     int      `json:"unique" yaml:"unique"`
	Duplicates int      `json:"duplicates" yaml:"duplicates"`
}

// Confidence is the qualitative adequacy signal for the gathered evidence.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels: low < medium < high.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// ScoutOutput is the terminal aggregate of one invocation.
type ScoutOutput struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	Subject Subject   `json:"subject" yaml:"subject"`
	Intent  string    `json:"intent" yaml:"intent"`
	Plan    QueryPlan `json:"plan" yaml:"plan"`

	Discovery *DiscoveryCheck `json:"discovery,omitempty" yaml:"discovery,omitempty"`

	Pool            ResearchPool    `json:"pool" yaml:"pool"`
	SourceURLs      []string        `json:"source_urls" yaml:"source_urls"`
	SourceSummaries []SourceSummary `json:"source_summaries,omitempty" yaml:"source_summaries,omitempty"`
	Confidence      Confidence      `json:"confidence" yaml:"confidence"`

	SearchCosts   SearchAPICosts `json:"search_costs" yaml:"search_costs"`
	TokenUsage    TokenUsage     `json:"token_usage" yaml:"token_usage"`
	CleaningUsage *CleaningUsage `json:"cleaning_usage,omitempty" yaml:"cleaning_usage,omitempty"`

	Duplicates []DuplicateURLInfo `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	QueryStats []SearchQueryStats `json:"query_stats,omitempty" yaml:"query_stats,omitempty"`
}

// TotalCostMicroUSD sums search, generation, and cleaning spend.
func (o ScoutOutput) TotalCostMicroUSD() int64 {
	total := o.SearchCosts.TotalMicroUSD() + o.TokenUsage.CostMicroUSD
	if o.CleaningUsage != nil {
		total += o.CleaningUsage.Total.CostMicroUSD
	}
	return total
}
