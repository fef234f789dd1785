// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/game-scout/pkg/types"
)

// --- helpers ---

func score(v float64) *float64 { return &v }

func result(query string, cat types.Category, urls ...string) types.CategorizedSearchResult {
	r := types.CategorizedSearchResult{Query: query, Provider: types.ProviderLexical, Category: cat}
	for _, u := range urls {
		r.Results = append(r.Results, types.SearchResultItem{URL: u, Title: "t " + u, Content: "content"})
	}
	return r
}

func cleanedItem(url string, quality, relevance float64) types.SearchResultItem {
	return types.SearchResultItem{
		URL:             url,
		Title:           "title " + url,
		Content:         "body",
		QualityScore:    score(quality),
		RelevanceScore:  score(relevance),
		DetailedSummary: "summary of " + url,
	}
}

func build(t *testing.T, rs ...types.CategorizedSearchResult) types.ResearchPool {
	t.Helper()
	b := NewBuilder()
	for _, r := range rs {
		require.NoError(t, b.Add(r))
	}
	return b.Build()
}

// --- builder ---

func TestBuilderIndexes(t *testing.T) {
	p := build(t,
		result("q2", types.CategoryOverview, "https://a", "https://b"),
		result("q1", types.CategoryOverview, "https://b", "https://c"),
		result("q3", types.CategoryRecent, "https://d"),
	)

	assert.Equal(t, []string{"https://a", "https://b", "https://c", "https://d"}, p.URLList())
	require.Len(t, p.ByCategory[types.CategoryOverview], 2)
	assert.Equal(t, "q1", p.ByCategory[types.CategoryOverview][0].Query, "category slices ordered by query")

	r, ok := p.Lookup("q3")
	require.True(t, ok)
	assert.Equal(t, types.CategoryRecent, r.Category)
	_, ok = p.Lookup("missing")
	assert.False(t, ok)
}

func TestBuilderFrozen(t *testing.T) {
	b := NewBuilder()
	b.Build()
	assert.ErrorIs(t, b.Add(result("q", types.CategoryOverview)), ErrFrozen)
}

func TestBuilderQueryCollision(t *testing.T) {
	main := result("same", types.CategoryOverview, "https://a")
	disc := result("same", types.CategoryDiscovery, "https://b")

	p1 := build(t, main, disc)
	p2 := build(t, disc, main)
	assert.Equal(t, p1.QueryCache, p2.QueryCache)
	assert.Equal(t, types.CategoryDiscovery, p1.QueryCache["same"].Category)
}

// TestBuildFoldOrderProperty folds random result sets in a shuffled order and
// expects the same pool, with AllURLs equal to the union of item URLs.
func TestBuildFoldOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	categories := []types.Category{types.CategoryOverview, types.CategorySpecific, types.CategoryRecent, types.CategoryDiscovery}

	properties.Property("pool ignores fold order", prop.ForAll(
		func(seed int64, n int) bool {
			r := rand.New(rand.NewSource(seed))
			results := make([]types.CategorizedSearchResult, n)
			union := map[string]struct{}{}
			for i := range results {
				k := r.Intn(6)
				urls := make([]string, k)
				for j := range urls {
					urls[j] = fmt.Sprintf("https://site%d.example/%d", r.Intn(8), r.Intn(3))
					union[urls[j]] = struct{}{}
				}
				results[i] = result(fmt.Sprintf("query %d", i), categories[r.Intn(len(categories))], urls...)
			}

			shuffled := append([]types.CategorizedSearchResult(nil), results...)
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			a, b := NewBuilder(), NewBuilder()
			for i := range results {
				a.Add(results[i])
				b.Add(shuffled[i])
			}
			pa, pb := a.Build(), b.Build()
			return reflect.DeepEqual(pa, pb) && reflect.DeepEqual(pa.AllURLs, union)
		},
		gen.Int64(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// --- tracker ---

func TestTrackerDuplicates(t *testing.T) {
	tr := NewTracker()
	tr.Ingest(result("q1", types.CategoryOverview, "https://a", "https://b"))
	tr.Ingest(result("q2", types.CategorySpecific, "https://b", "https://c"))
	tr.Ingest(result("q3", types.CategoryRecent, "https://b", "https://a"))

	dups := tr.Duplicates()
	require.Len(t, dups, 2)
	assert.Equal(t, types.DuplicateURLInfo{URL: "https://a", Queries: []string{"q1", "q3"}, Count: 2}, dups[0])
	assert.Equal(t, types.DuplicateURLInfo{URL: "https://b", Queries: []string{"q1", "q2", "q3"}, Count: 3}, dups[1])

	stats := tr.QueryStats()
	require.Len(t, stats, 3)
	assert.Equal(t, 2, stats[0].Unique)
	assert.Equal(t, 0, stats[0].Duplicates)
	assert.Equal(t, 1, stats[1].Unique)
	assert.Equal(t, 1, stats[1].Duplicates)
	assert.Equal(t, 0, stats[2].Unique)
	assert.Equal(t, 2, stats[2].Duplicates)
}

func TestTrackerSameQueryTwice(t *testing.T) {
	tr := NewTracker()
	tr.Ingest(result("q1", types.CategoryOverview, "https://a", "https://a"))
	assert.Empty(t, tr.Duplicates(), "a URL under a single query is not a duplicate")
	assert.Equal(t, 1, tr.QueryStats()[0].Duplicates)
}

func TestTrackerDoesNotMutate(t *testing.T) {
	r := result("q1", types.CategoryOverview, "https://a")
	before := fmt.Sprintf("%+v", r)
	NewTracker().Ingest(r)
	assert.Equal(t, before, fmt.Sprintf("%+v", r))
}

// --- summaries ---

func TestExtractSourceSummaries(t *testing.T) {
	overview := types.CategorizedSearchResult{Query: "q1", Category: types.CategoryOverview, Results: []types.SearchResultItem{
		cleanedItem("https://a", 50, 40),
		{URL: "https://raw", Title: "uncleaned", Content: "x"},
		cleanedItem("https://b", 90, 85),
	}}
	recent := types.CategorizedSearchResult{Query: "q2", Category: types.CategoryRecent, Results: []types.SearchResultItem{
		cleanedItem("https://b", 10, 10),
		cleanedItem("https://c", 70, 20),
		{URL: "https://d", DetailedSummary: "summary only"},
	}}
	p := build(t, recent, overview)

	got := ExtractSourceSummaries(p, 15)
	require.Len(t, got, 4)
	urls := []string{got[0].URL, got[1].URL, got[2].URL, got[3].URL}
	assert.Equal(t, []string{"https://b", "https://a", "https://c", "https://d"}, urls)
	assert.Equal(t, 175.0, got[0].CombinedScore(), "first-seen occurrence under overview wins")
	assert.Equal(t, "q1", got[0].OriginQuery)
	assert.Equal(t, 0.0, got[3].CombinedScore())
	assert.NotNil(t, got[3].KeyFacts)

	assert.Len(t, ExtractSourceSummaries(p, 2), 2)
	assert.Empty(t, ExtractSourceSummaries(p, 0))
}

func TestExtractSourceSummariesStableTies(t *testing.T) {
	r := types.CategorizedSearchResult{Query: "q", Category: types.CategoryOverview, Results: []types.SearchResultItem{
		cleanedItem("https://z", 50, 50),
		cleanedItem("https://y", 50, 50),
		cleanedItem("https://x", 60, 40),
	}}
	got := ExtractSourceSummaries(build(t, r), 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"https://z", "https://y", "https://x"}, []string{got[0].URL, got[1].URL, got[2].URL})
}

func TestExtractSourceSummariesUncleanedPool(t *testing.T) {
	p := build(t, result("q", types.CategoryOverview, "https://a", "https://b"))
	assert.Empty(t, ExtractSourceSummaries(p, 15))
}

func TestEvidence(t *testing.T) {
	r1 := result("q1", types.CategoryOverview, "https://a", "https://b")
	r1.AnswerSummary = "12345"
	r2 := result("q2", types.CategoryRecent, "https://a")
	r2.Results[0].DetailedSummary = "ignored duplicate"

	// 5 answer chars + 2 distinct items of "content" (7 chars each).
	assert.Equal(t, 19, Evidence(build(t, r1, r2)))
}

func TestWalkOrder(t *testing.T) {
	p := build(t,
		result("d", types.CategoryDiscovery),
		result("r", types.CategoryRecent),
		result("x", types.Category("custom")),
		result("o", types.CategoryOverview),
	)
	var order []string
	Walk(p, func(r types.CategorizedSearchResult) { order = append(order, r.Query) })
	assert.Equal(t, []string{"o", "r", "d", "x"}, order)
}
