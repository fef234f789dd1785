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

// exaAPIURL is the Exa search endpoint. Declared as a var so tests can
// substitute an httptest server.
var exaAPIURL = "https://api.exa.ai/search"

// Exa is the semantic provider.
type Exa struct {
	Client  *http.Client
	Config  types.SemanticConfig
	limiter *rate.Limiter
}

// NewExa constructs an Exa provider from cfg.
func NewExa(cfg types.SemanticConfig) *Exa {
	return &Exa{Client: httpClient(cfg.HTTPConfig), Config: cfg, limiter: newLimiter(cfg.RequestsPerSecond)}
}

// Name returns the provider identifier.
func (e *Exa) Name() string { return "exa" }

// Enabled reports whether an API key is configured.
func (e *Exa) Enabled() bool { return strings.TrimSpace(e.Config.APIKey) != "" }

// Kind reports the provider class.
func (e *Exa) Kind() types.Provider { return types.ProviderSemantic }

type exaRequest struct {
	Query             string      `json:"query"`
	Type              string      `json:"type,omitempty"`
	NumResults        int         `json:"numResults,omitempty"`
	ExcludeDomains    []string    `json:"excludeDomains,omitempty"`
	AdditionalQueries []string    `json:"additionalQueries,omitempty"`
	Contents          exaContents `json:"contents"`
}

type exaContents struct {
	Text exaText `json:"text"`
}

type exaText struct {
	MaxCharacters int `json:"maxCharacters,omitempty"`
}

type exaResponse struct {
	Results     []exaResult `json:"results"`
	CostDollars *struct {
		Total float64 `json:"total"`
	} `json:"costDollars"`
}

type exaResult struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Search posts one query to Exa. Variants in p are sent as additional
// queries. A missing key or a 401/403 response yields an empty result.
func (e *Exa) Search(ctx context.Context, text string, p Params) (RawResult, error) {
	if !e.Enabled() {
		return RawResult{}, nil
	}
	if strings.TrimSpace(text) == "" {
		return RawResult{}, fmt.Errorf("exa: empty query: %w", httputil.ErrValidation)
	}
	if err := wait(ctx, e.limiter); err != nil {
		return RawResult{}, err
	}

	searchType := p.Depth
	if searchType == "" {
		searchType = e.Config.Type
	}
	limit := p.ResultLimit
	if limit <= 0 {
		limit = e.Config.NumResults
	}

	payload, err := json.Marshal(exaRequest{
		Query:             text,
		Type:              searchType,
		NumResults:        limit,
		ExcludeDomains:    p.ExcludeDomains,
		AdditionalQueries: p.Variants,
		Contents:          exaContents{Text: exaText{MaxCharacters: e.Config.ContentChars}},
	})
	if err != nil {
		return RawResult{}, fmt.Errorf("marshaling exa request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaAPIURL, bytes.NewReader(payload))
	if err != nil {
		return RawResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.Config.APIKey)
	if e.Config.UserAgent != "" {
		req.Header.Set("User-Agent", e.Config.UserAgent)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return RawResult{}, fmt.Errorf("exa request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp, e.Name()); err != nil {
		if unauthorized(err) {
			log.Warn(ctx, log.KV{K: "msg", V: "provider unauthorized, returning no results"},
				log.KV{K: "provider", V: e.Name()}, log.KV{K: "err", V: err.Error()})
			return RawResult{}, nil
		}
		return RawResult{}, err
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return RawResult{}, fmt.Errorf("parsing exa response: %w", err)
	}

	var out RawResult
	for _, r := range er.Results {
		out.Results = append(out.Results, RawItem{Title: r.Title, URL: r.URL, Content: r.Text, Score: r.Score})
	}
	if er.CostDollars != nil {
		c := types.MicroUSD(er.CostDollars.Total)
		out.CostMicroUSD = &c
	}
	return out, nil
}
