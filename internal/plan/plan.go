// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan decides which search queries a run executes. The Planner asks
// a generator for a draft title and queries and falls back to deterministic
// templates when generation is disabled or fails. The Discoverer decides
// whether a discovery query must run before planning.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/pkg/types"
)

// ErrEmptyPlan is returned when no query can be produced, which only happens
// for a subject without a name.
var ErrEmptyPlan = errors.New("query plan is empty")

// Planner produces the QueryPlan of a run.
type Planner struct {
	Generator llm.Generator
	Config    types.ScoutConfig

	// Semantic reports whether a semantic provider is available. Plans that
	// target it when it is not are retargeted to lexical.
	Semantic bool

	// Now returns the current time for date-scoped templates.
	Now func() time.Time
}

type planReply struct {
	DraftTitle string `json:"draft_title"`
	Queries    []struct {
		Text             string   `json:"text"`
		Provider         string   `json:"provider"`
		Category         string   `json:"category"`
		Purpose          string   `json:"purpose"`
		ExpectedFindings []string `json:"expected_findings"`
		Variants         []string `json:"variants"`
	} `json:"queries"`
}

// Plan returns the query plan for subject and intent. When dc is non-empty
// the plan is derived from the discovery findings. Generation failures fall
// back to templates; cancellation is returned as httputil.ErrCancelled.
func (p *Planner) Plan(ctx context.Context, subject types.Subject, intent string, dc *DiscoveryContext) (types.QueryPlan, types.TokenUsage, error) {
	if ctx.Err() != nil {
		return types.QueryPlan{}, types.TokenUsage{}, httputil.ErrCancelled
	}
	if strings.TrimSpace(subject.Name) == "" {
		return types.QueryPlan{}, types.TokenUsage{}, fmt.Errorf("subject has no name: %w", ErrEmptyPlan)
	}
	minQ, maxQ := p.bounds()

	var usage types.TokenUsage
	if p.Generator != nil {
		generated, u, err := p.generate(ctx, subject, intent, dc, minQ, maxQ)
		usage = u
		switch {
		case err == nil:
			return p.pad(generated, subject, intent, dc, minQ), usage, nil
		case ctx.Err() != nil || httputil.IsCancellation(err):
			return types.QueryPlan{}, usage, httputil.ErrCancelled
		case errors.Is(err, llm.ErrNotConfigured):
		default:
			log.Warn(ctx, log.KV{K: "msg", V: "planner generation failed, using templates"},
				log.KV{K: "subject", V: subject.Name}, log.KV{K: "err", V: err.Error()})
		}
	}

	fallback := p.Fallback(subject, intent, dc)
	if len(fallback.Queries) == 0 {
		return types.QueryPlan{}, usage, ErrEmptyPlan
	}
	log.Info(ctx, log.KV{K: "msg", V: "template plan"}, log.KV{K: "subject", V: subject.Name},
		log.KV{K: "queries", V: len(fallback.Queries)})
	return fallback, usage, nil
}

func (p *Planner) generate(ctx context.Context, subject types.Subject, intent string, dc *DiscoveryContext, minQ, maxQ int) (types.QueryPlan, types.TokenUsage, error) {
	data := promptData{Subject: subject, Intent: intent, Min: minQ, Max: maxQ, Semantic: p.Semantic}
	if !dc.Empty() {
		data.Discovery = dc
	}
	prompt, err := render(planPromptTmpl, data)
	if err != nil {
		return types.QueryPlan{}, types.TokenUsage{}, err
	}

	var reply planReply
	usage, err := llm.GenerateJSON(ctx, p.Generator, llm.Request{
		System:    plannerSystem,
		Prompt:    prompt,
		MaxTokens: p.Config.Generation.MaxTokens,
	}, &reply)
	if err != nil {
		return types.QueryPlan{}, usage, err
	}

	plan := types.QueryPlan{DraftTitle: strings.TrimSpace(reply.DraftTitle)}
	for i, q := range reply.Queries {
		pq := types.PlannedQuery{
			Text:             strings.TrimSpace(q.Text),
			Provider:         types.Provider(q.Provider),
			Category:         types.Category(q.Category),
			Purpose:          strings.TrimSpace(q.Purpose),
			ExpectedFindings: q.ExpectedFindings,
			Variants:         q.Variants,
		}
		if !validMainCategory(pq.Category) {
			pq.Category = categoryForPosition(i)
		}
		plan.Queries = append(plan.Queries, pq)
	}
	plan = p.Normalize(plan, maxQ)
	if len(plan.Queries) == 0 {
		return types.QueryPlan{}, usage, errors.New("generated plan has no usable queries")
	}
	if plan.DraftTitle == "" {
		plan.DraftTitle = draftTitle(subject, intent)
	}
	return plan, usage, nil
}

// Normalize drops empty and duplicate query texts, retargets queries for
// unknown or unavailable providers to lexical, and clamps to maxQ queries.
func (p *Planner) Normalize(plan types.QueryPlan, maxQ int) types.QueryPlan {
	seen := make(map[string]bool)
	var out []types.PlannedQuery
	for _, q := range plan.Queries {
		key := strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !q.Provider.Valid() || (q.Provider == types.ProviderSemantic && !p.Semantic) {
			q.Provider = types.ProviderLexical
		}
		if q.Provider != types.ProviderSemantic {
			q.Variants = nil
		}
		out = append(out, q)
		if maxQ > 0 && len(out) == maxQ {
			break
		}
	}
	plan.Queries = out
	return plan
}

// pad tops a generated plan up to minQ queries with template queries.
func (p *Planner) pad(plan types.QueryPlan, subject types.Subject, intent string, dc *DiscoveryContext, minQ int) types.QueryPlan {
	if len(plan.Queries) >= minQ {
		return plan
	}
	combined := append(append([]types.PlannedQuery(nil), plan.Queries...), p.Fallback(subject, intent, dc).Queries...)
	plan.Queries = p.Normalize(types.QueryPlan{Queries: combined}, minQ).Queries
	return plan
}

// Fallback builds a plan by template substitution of the subject name, the
// intent keywords and the category or genre hints. A non-empty discovery
// context qualifies the subject with the top discovery title.
func (p *Planner) Fallback(subject types.Subject, intent string, dc *DiscoveryContext) types.QueryPlan {
	name := strings.TrimSpace(subject.Name)
	if name == "" {
		return types.QueryPlan{}
	}
	_, maxQ := p.bounds()
	kw := keywords(intent)

	anchor := name
	if hint := discoveryHint(dc, name); hint != "" {
		anchor = fmt.Sprintf("%q %s", name, hint)
	}

	topic := "gameplay"
	switch {
	case len(subject.Categories) > 0:
		topic = subject.Categories[0]
	case len(subject.Genres) > 0:
		topic = subject.Genres[0]
	}

	year := strconv.Itoa(p.now().Year())
	queries := []types.PlannedQuery{
		{
			Text:             join(anchor, kw),
			Provider:         types.ProviderLexical,
			Category:         types.CategoryOverview,
			Purpose:          "establish the core facts the article is about",
			ExpectedFindings: []string{"overview", "key mechanics"},
		},
		{
			Text:             join(anchor, topic, kw),
			Provider:         types.ProviderLexical,
			Category:         types.CategorySpecific,
			Purpose:          "cover the " + topic + " angle of the article",
			ExpectedFindings: []string{topic + " details"},
		},
		{
			Text:             join(anchor, "latest news update", year),
			Provider:         types.ProviderLexical,
			Category:         types.CategoryRecent,
			Purpose:          "find recent patches and announcements",
			ExpectedFindings: []string{"patch notes", "release news"},
		},
	}
	if p.Semantic {
		queries = append(queries, types.PlannedQuery{
			Text:             join(anchor, kw, "in-depth analysis"),
			Provider:         types.ProviderSemantic,
			Category:         types.CategorySpecific,
			Purpose:          "find long-form analysis beyond keyword matches",
			ExpectedFindings: []string{"expert opinion", "design analysis"},
			Variants:         variants(name, subject.Genres),
		})
	}

	return p.Normalize(types.QueryPlan{DraftTitle: draftTitle(subject, intent), Queries: queries, Fallback: true}, maxQ)
}

func (p *Planner) bounds() (int, int) {
	minQ, maxQ := p.Config.MinQueries, p.Config.MaxQueries
	if minQ <= 0 {
		minQ = 2
	}
	if maxQ <= 0 {
		maxQ = 4
	}
	if maxQ < minQ {
		maxQ = minQ
	}
	return minQ, maxQ
}

func (p *Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func validMainCategory(c types.Category) bool {
	return c == types.CategoryOverview || c == types.CategorySpecific || c == types.CategoryRecent
}

func categoryForPosition(i int) types.Category {
	switch i {
	case 0:
		return types.CategoryOverview
	case 1:
		return types.CategorySpecific
	default:
		return types.CategoryRecent
	}
}

// discoveryHint returns the first discovery title reduced to the words that
// do not repeat the subject name.
func discoveryHint(dc *DiscoveryContext, name string) string {
	if dc.Empty() || len(dc.Titles) == 0 {
		return ""
	}
	nameWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(name)) {
		nameWords[w] = true
	}
	var words []string
	for _, w := range strings.FieldsFunc(dc.Titles[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if nameWords[strings.ToLower(w)] {
			continue
		}
		words = append(words, w)
		if len(words) == 4 {
			break
		}
	}
	return strings.Join(words, " ")
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "of": true, "to": true,
	"and": true, "or": true, "in": true, "on": true, "about": true, "with": true,
	"write": true, "article": true, "please": true,
}

// keywords lowercases intent and drops stopwords and repeats.
func keywords(intent string) string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(strings.ToLower(intent)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if w == "" || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func variants(name string, genres []string) []string {
	var out []string
	for _, g := range genres {
		out = append(out, fmt.Sprintf("%s %s design", name, g))
		if len(out) == 2 {
			break
		}
	}
	return out
}

func draftTitle(subject types.Subject, intent string) string {
	name := strings.TrimSpace(subject.Name)
	words := strings.Fields(intent)
	if len(words) == 0 {
		return name
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return name + ": " + strings.Join(words, " ")
}

func join(parts ...string) string {
	var out []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}
