// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"goa.design/clue/log"
	"golang.org/x/time/rate"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests can
// substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// Tavily is the lexical provider.
type Tavily struct {
	Client  *http.Client
	Config  types.LexicalConfig
	limiter *rate.Limiter
}

// NewTavily constructs a Tavily provider from cfg.
func NewTavily(cfg types.LexicalConfig) *Tavily {
	return &Tavily{Client: httpClient(cfg.HTTPConfig), Config: cfg, limiter: newLimiter(cfg.RequestsPerSecond)}
}

// Name returns the provider identifier.
func (t *Tavily) Name() string { return "tavily" }

// Enabled reports whether an API key is configured.
func (t *Tavily) Enabled() bool { return strings.TrimSpace(t.Config.APIKey) != "" }

// Kind reports the provider class.
func (t *Tavily) Kind() types.Provider { return types.ProviderLexical }

type tavilyRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	MaxResults        int      `json:"max_results,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}

// Search posts one query to Tavily. A missing key or a 401/403 response
// yields an empty result.
func (t *Tavily) Search(ctx context.Context, text string, p Params) (RawResult, error) {
	if !t.Enabled() {
		return RawResult{}, nil
	}
	if strings.TrimSpace(text) == "" {
		return RawResult{}, fmt.Errorf("tavily: empty query: %w", httputil.ErrValidation)
	}
	if err := wait(ctx, t.limiter); err != nil {
		return RawResult{}, err
	}

	depth := p.Depth
	if depth == "" {
		depth = t.Config.Depth
	}
	limit := p.ResultLimit
	if limit <= 0 {
		limit = t.Config.MaxResults
	}

	payload, err := json.Marshal(tavilyRequest{
		Query:             text,
		SearchDepth:       depth,
		MaxResults:        limit,
		ExcludeDomains:    p.ExcludeDomains,
		IncludeAnswer:     true,
		IncludeRawContent: p.IncludeRawContent || t.Config.IncludeRawContent,
	})
	if err != nil {
		return RawResult{}, fmt.Errorf("marshaling tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(payload))
	if err != nil {
		return RawResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.Config.APIKey)
	if t.Config.UserAgent != "" {
		req.Header.Set("User-Agent", t.Config.UserAgent)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return RawResult{}, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp, t.Name()); err != nil {
		if unauthorized(err) {
			log.Warn(ctx, log.KV{K: "msg", V: "provider unauthorized, returning no results"},
				log.KV{K: "provider", V: t.Name()}, log.KV{K: "err", V: err.Error()})
			return RawResult{}, nil
		}
		return RawResult{}, err
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return RawResult{}, fmt.Errorf("parsing tavily response: %w", err)
	}

	out := RawResult{Answer: tr.Answer}
	for _, r := range tr.Results {
		content := r.Content
		if r.RawContent != "" {
			content = r.RawContent
		}
		out.Results = append(out.Results, RawItem{Title: r.Title, URL: r.URL, Content: content, Score: r.Score})
	}
	return out, nil
}
