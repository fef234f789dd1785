// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/pkg/types"
)

// scriptedGenerator returns replies in order and records prompts.
type scriptedGenerator struct {
	replies []string
	errs    []error
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, req.Prompt)
	usage := types.TokenUsage{Input: int64(100 * (i + 1)), Output: 10}
	if i < len(g.errs) && g.errs[i] != nil {
		return llm.Response{Usage: usage}, g.errs[i]
	}
	if i >= len(g.replies) {
		return llm.Response{}, errors.New("unexpected call")
	}
	return llm.Response{Text: g.replies[i], Usage: usage}, nil
}

type panicCleaner struct{}

func (panicCleaner) Clean(context.Context, Input) (Output, error) { panic("boom") }

func rawInput() Input {
	return Input{
		Query:    "Hollow Knight beginner guide",
		Category: types.CategoryOverview,
		Provider: types.ProviderLexical,
		Raw: types.CategorizedSearchResult{
			Query:    "Hollow Knight beginner guide",
			Provider: types.ProviderLexical,
			Category: types.CategoryOverview,
			Results: []types.SearchResultItem{
				{URL: "https://a.example/guide", Title: "Guide", Content: "charms and bosses"},
				{URL: "https://spam.example/", Title: "Buy now", Content: "cheap keys"},
				{URL: "https://b.example/tips", Title: "Tips", Content: "early route"},
			},
		},
	}
}

func TestLLMCleanerPrefilterAndExtract(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`{"scores": [{"index": 0, "relevance": 90}, {"index": 1, "relevance": 5}, {"index": 2, "relevance": 70}]}`,
		"```json\n" + `{"sources": [{"index": 0, "quality": 95, "relevance": 88, "detailed_summary": " Covers charms. ", "key_facts": ["Charm notches start at 3"], "data_points": ["3 notches"]}]}` + "\n```",
	}}
	c := NewLLMCleaner(gen, types.CleaningConfig{MinRelevance: 40}, 1024)

	out, err := c.Clean(context.Background(), rawInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://spam.example/"}, out.Filtered)
	require.Len(t, out.Result.Results, 2)

	first := out.Result.Results[0]
	require.NotNil(t, first.QualityScore)
	assert.Equal(t, 95.0, *first.QualityScore)
	assert.Equal(t, 88.0, *first.RelevanceScore)
	assert.Equal(t, "Covers charms.", first.DetailedSummary)
	assert.True(t, first.Cleaned())

	second := out.Result.Results[1]
	assert.Nil(t, second.QualityScore, "no extraction entry means no quality score")
	require.NotNil(t, second.RelevanceScore)
	assert.Equal(t, 70.0, *second.RelevanceScore)
	assert.False(t, second.Cleaned())

	assert.Equal(t, int64(100), out.Prefilter.Input)
	assert.Equal(t, int64(200), out.Extraction.Input)
	assert.Equal(t, int64(300), out.Usage().Total.Input)

	require.Len(t, gen.prompts, 2)
	assert.NotContains(t, gen.prompts[1], "spam.example", "filtered results are not sent to extraction")
}

func TestLLMCleanerAllFilteredSkipsExtraction(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`{"scores": [{"index": 0, "relevance": 1}, {"index": 1, "relevance": 2}, {"index": 2, "relevance": 3}]}`,
	}}
	out, err := NewLLMCleaner(gen, types.CleaningConfig{}, 0).Clean(context.Background(), rawInput())
	require.NoError(t, err)
	assert.Empty(t, out.Result.Results)
	assert.Len(t, out.Filtered, 3)
	assert.Len(t, gen.prompts, 1)
	assert.True(t, out.Extraction.IsZero())
}

func TestLLMCleanerEmptyResult(t *testing.T) {
	gen := &scriptedGenerator{}
	in := rawInput()
	in.Raw.Results = nil
	out, err := NewLLMCleaner(gen, types.CleaningConfig{}, 0).Clean(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, gen.prompts)
	assert.Empty(t, out.Result.Results)
}

func TestBestEffortNilCleaner(t *testing.T) {
	in := rawInput()
	out, ok := BestEffort(context.Background(), nil, in)
	assert.False(t, ok)
	assert.Equal(t, in.Raw, out.Result)
	assert.True(t, out.Usage().IsZero())
}

func TestBestEffortFallsBackOnError(t *testing.T) {
	gen := &scriptedGenerator{
		replies: []string{`{"scores": []}`},
		errs:    []error{nil, errors.New("overloaded")},
	}
	in := rawInput()
	out, ok := BestEffort(context.Background(), NewLLMCleaner(gen, types.CleaningConfig{}, 0), in)
	assert.False(t, ok)
	assert.Equal(t, in.Raw, out.Result, "raw result survives a failed extraction")
	assert.Equal(t, int64(100), out.Prefilter.Input, "tokens already spent are kept")
	assert.Equal(t, int64(200), out.Extraction.Input)
}

func TestBestEffortRecoversPanic(t *testing.T) {
	in := rawInput()
	out, ok := BestEffort(context.Background(), panicCleaner{}, in)
	assert.False(t, ok)
	assert.Equal(t, in.Raw, out.Result)
}

func TestBestEffortMalformedReply(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"I cannot rate these."}}
	in := rawInput()
	out, ok := BestEffort(context.Background(), NewLLMCleaner(gen, types.CleaningConfig{}, 0), in)
	assert.False(t, ok)
	assert.Equal(t, in.Raw, out.Result)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("  abc ", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.True(t, strings.HasPrefix(truncate(strings.Repeat("é", 10), 3), "ééé"))
}
