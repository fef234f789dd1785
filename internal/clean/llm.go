// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/pkg/types"
)

const (
	prefilterSnippetChars  = 500
	extractionContentChars = 4000
	defaultMinRelevance    = 40
)

var prefilterPromptTmpl = template.Must(template.New("prefilter").Parse(`You are screening web search results for a video game article.

Search query: {{.Query}}
Category: {{.Category}}

Rate each result's relevance to the query from 0 to 100. Results about a
different game, store listings without content, and spam score below 20.

Respond with a JSON object: {"scores": [{"index": 0, "relevance": 85}]}.
Include every index. Do not include any text outside the JSON object.

Results:
{{range .Items}}[{{.Index}}] {{.Title}}
URL: {{.URL}}
{{.Text}}

{{end}}`))

var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are extracting research notes from web pages for a video game article.

Search query: {{.Query}}
Category: {{.Category}}

For each page produce:
- quality: 0-100, how authoritative and substantive the page is
- relevance: 0-100, how well it answers the query
- detailed_summary: 3-5 sentences of what the page says, no speculation
- key_facts: short factual statements taken from the page
- data_points: concrete numbers, dates, names or versions from the page

Respond with a JSON object: {"sources": [{"index": 0, "quality": 90, "relevance": 80, "detailed_summary": "...", "key_facts": ["..."], "data_points": ["..."]}]}.
Do not include any text outside the JSON object.

Pages:
{{range .Items}}[{{.Index}}] {{.Title}}
URL: {{.URL}}
{{.Text}}

{{end}}`))

type promptItem struct {
	Index int
	Title string
	URL   string
	Text  string
}

type promptData struct {
	Query    string
	Category types.Category
	Items    []promptItem
}

type prefilterReply struct {
	Scores []struct {
		Index     int     `json:"index"`
		Relevance float64 `json:"relevance"`
	} `json:"scores"`
}

type extractionReply struct {
	Sources []struct {
		Index           int      `json:"index"`
		Quality         float64  `json:"quality"`
		Relevance       float64  `json:"relevance"`
		DetailedSummary string   `json:"detailed_summary"`
		KeyFacts        []string `json:"key_facts"`
		DataPoints      []string `json:"data_points"`
	} `json:"sources"`
}

// LLMCleaner cleans results with two generation calls: a prefilter that
// rates relevance from snippets and drops weak hits, then an extraction call
// over the survivors.
type LLMCleaner struct {
	Generator llm.Generator
	Config    types.CleaningConfig
	MaxTokens int
}

// NewLLMCleaner returns a cleaner backed by g.
func NewLLMCleaner(g llm.Generator, cfg types.CleaningConfig, maxTokens int) *LLMCleaner {
	return &LLMCleaner{Generator: g, Config: cfg, MaxTokens: maxTokens}
}

// Clean implements Cleaner.
func (c *LLMCleaner) Clean(ctx context.Context, in Input) (Output, error) {
	var out Output
	raw := in.Raw
	if len(raw.Results) == 0 {
		out.Result = raw
		return out, nil
	}

	kept, relevance, filtered, usage, err := c.prefilter(ctx, in)
	out.Prefilter = usage
	if err != nil {
		return out, fmt.Errorf("prefilter: %w", err)
	}
	out.Filtered = filtered

	result := raw
	result.Results = []types.SearchResultItem{}
	if len(kept) == 0 {
		out.Result = result
		return out, nil
	}

	data := promptData{Query: in.Query, Category: in.Category}
	for _, idx := range kept {
		it := raw.Results[idx]
		data.Items = append(data.Items, promptItem{Index: idx, Title: it.Title, URL: it.URL,
			Text: truncate(it.Content, extractionContentChars)})
	}
	prompt, err := render(extractionPromptTmpl, data)
	if err != nil {
		return out, err
	}

	var reply extractionReply
	usage, err = llm.GenerateJSON(ctx, c.Generator, llm.Request{Prompt: prompt, MaxTokens: c.MaxTokens}, &reply)
	out.Extraction = usage
	if err != nil {
		return out, fmt.Errorf("extraction: %w", err)
	}

	byIndex := make(map[int]int, len(reply.Sources))
	for i, s := range reply.Sources {
		byIndex[s.Index] = i
	}
	for _, idx := range kept {
		it := raw.Results[idx]
		if i, ok := byIndex[idx]; ok {
			s := reply.Sources[i]
			q, r := clamp(s.Quality), clamp(s.Relevance)
			it.QualityScore = &q
			it.RelevanceScore = &r
			it.DetailedSummary = strings.TrimSpace(s.DetailedSummary)
			it.KeyFacts = s.KeyFacts
			it.DataPoints = s.DataPoints
		} else if rel, ok := relevance[idx]; ok {
			r := rel
			it.RelevanceScore = &r
		}
		result.Results = append(result.Results, it)
	}
	out.Result = result
	return out, nil
}

// prefilter returns the indexes of results to keep, their prefilter
// relevance, and the URLs dropped. Results the model omits are kept.
func (c *LLMCleaner) prefilter(ctx context.Context, in Input) ([]int, map[int]float64, []string, types.TokenUsage, error) {
	data := promptData{Query: in.Query, Category: in.Category}
	for i, it := range in.Raw.Results {
		data.Items = append(data.Items, promptItem{Index: i, Title: it.Title, URL: it.URL,
			Text: truncate(it.Content, prefilterSnippetChars)})
	}
	prompt, err := render(prefilterPromptTmpl, data)
	if err != nil {
		return nil, nil, nil, types.TokenUsage{}, err
	}

	var reply prefilterReply
	usage, err := llm.GenerateJSON(ctx, c.Generator, llm.Request{Prompt: prompt, MaxTokens: c.MaxTokens}, &reply)
	if err != nil {
		return nil, nil, nil, usage, err
	}

	minRel := c.Config.MinRelevance
	if minRel <= 0 {
		minRel = defaultMinRelevance
	}
	relevance := make(map[int]float64, len(reply.Scores))
	for _, s := range reply.Scores {
		relevance[s.Index] = clamp(s.Relevance)
	}

	var kept []int
	var filtered []string
	for i, it := range in.Raw.Results {
		if rel, ok := relevance[i]; ok && rel < minRel {
			filtered = append(filtered, it.URL)
			continue
		}
		kept = append(kept, i)
	}
	return kept, relevance, filtered, usage, nil
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
