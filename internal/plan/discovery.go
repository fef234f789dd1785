// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/pkg/types"
)

// DiscoveryContext is the excerpt of a discovery query fed back into the
// planner.
type DiscoveryContext struct {
	Query   string
	Titles  []string
	Excerpt string
}

// Empty reports whether the context carries no findings.
func (d *DiscoveryContext) Empty() bool {
	return d == nil || strings.TrimSpace(d.Excerpt) == ""
}

// NewDiscoveryContext builds the excerpt from the top results of r, each
// truncated to chars runes.
func NewDiscoveryContext(r types.CategorizedSearchResult, top, chars int) *DiscoveryContext {
	if top <= 0 {
		top = 3
	}
	if chars <= 0 {
		chars = 300
	}
	dc := &DiscoveryContext{Query: r.Query}
	var b strings.Builder
	if s := strings.TrimSpace(r.AnswerSummary); s != "" {
		fmt.Fprintf(&b, "Summary: %s\n", truncate(s, chars))
	}
	for i, it := range r.Results {
		if i >= top {
			break
		}
		title := strings.TrimSpace(it.Title)
		dc.Titles = append(dc.Titles, title)
		fmt.Fprintf(&b, "- %s (%s): %s\n", title, it.URL, truncate(it.Content, chars))
	}
	dc.Excerpt = b.String()
	return dc
}

// Discoverer decides whether a subject needs a discovery query before planning.
type Discoverer struct {
	Generator llm.Generator
	MaxTokens int
}

type discoveryReply struct {
	NeedsDiscovery bool   `json:"needs_discovery"`
	Reason         string `json:"reason"`
	Query          string `json:"query"`
	Provider       string `json:"provider"`
}

// Check asks the generator whether subject is too ambiguous to plan against.
// Any failure other than cancellation yields NeedsDiscovery false. A positive
// check always carries a query and a provider, defaulting to lexical.
func (p *Discoverer) Check(ctx context.Context, subject types.Subject, intent string) (types.DiscoveryCheck, types.TokenUsage, error) {
	if ctx.Err() != nil {
		return types.DiscoveryCheck{}, types.TokenUsage{}, httputil.ErrCancelled
	}
	if p == nil || p.Generator == nil {
		return types.DiscoveryCheck{Reason: "no generator configured"}, types.TokenUsage{}, nil
	}

	prompt, err := render(discoveryPromptTmpl, promptData{Subject: subject, Intent: intent})
	if err != nil {
		return types.DiscoveryCheck{}, types.TokenUsage{}, err
	}

	var reply discoveryReply
	usage, err := llm.GenerateJSON(ctx, p.Generator, llm.Request{System: plannerSystem, Prompt: prompt, MaxTokens: p.MaxTokens}, &reply)
	if err != nil {
		if ctx.Err() != nil || httputil.IsCancellation(err) {
			return types.DiscoveryCheck{}, usage, httputil.ErrCancelled
		}
		if !errors.Is(err, llm.ErrNotConfigured) {
			log.Warn(ctx, log.KV{K: "msg", V: "discovery check failed, planning directly"},
				log.KV{K: "subject", V: subject.Name}, log.KV{K: "err", V: err.Error()})
		}
		return types.DiscoveryCheck{Reason: "discovery check unavailable"}, usage, nil
	}

	check := types.DiscoveryCheck{NeedsDiscovery: reply.NeedsDiscovery, Reason: strings.TrimSpace(reply.Reason)}
	if check.NeedsDiscovery {
		check.Query = strings.TrimSpace(reply.Query)
		if check.Query == "" {
			check.Query = fmt.Sprintf("%q video game", subject.Name)
		}
		check.Provider = types.Provider(reply.Provider)
		if !check.Provider.Valid() {
			check.Provider = types.ProviderLexical
		}
	}
	log.Info(ctx, log.KV{K: "msg", V: "discovery check"}, log.KV{K: "subject", V: subject.Name},
		log.KV{K: "needs_discovery", V: check.NeedsDiscovery}, log.KV{K: "reason", V: check.Reason})
	return check, usage, nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
