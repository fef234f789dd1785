// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scout orchestrates one research run: planning with an optional
// discovery query, the parallel search phase, pooling and deduplication,
// source ranking, confidence scoring, cost accounting and output assembly.
package scout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"goa.design/clue/log"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/game-scout/internal/clean"
	"github.com/pdiddy/game-scout/internal/confidence"
	"github.com/pdiddy/game-scout/internal/cost"
	"github.com/pdiddy/game-scout/internal/exclusion"
	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/internal/plan"
	"github.com/pdiddy/game-scout/internal/pool"
	"github.com/pdiddy/game-scout/internal/search"
	"github.com/pdiddy/game-scout/pkg/types"
)

// Request is the input of one run.
type Request struct {
	Subject types.Subject
	Intent  string
}

// ProgressFunc receives the number of finished main-phase queries and the
// total. It is called from the query goroutines.
type ProgressFunc func(done, total int)

// Engine holds the injected capabilities of a run. Nil Generator, Cleaner
// and Exclusions disable planning by generation, cleaning and dynamic
// exclusions respectively.
type Engine struct {
	Lexical    search.Provider
	Semantic   search.Provider
	Generator  llm.Generator
	Cleaner    clean.Cleaner
	Exclusions exclusion.Source
	Config     types.ScoutConfig
	Progress   ProgressFunc

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Run executes one research invocation. It returns a complete ScoutOutput or
// an error, never both. Cancellation of ctx at any point yields
// httputil.ErrCancelled; a query that fails after retries yields a
// *QueryError.
func (e *Engine) Run(ctx context.Context, req Request) (types.ScoutOutput, error) {
	if ctx.Err() != nil {
		return types.ScoutOutput{}, httputil.ErrCancelled
	}
	started := e.now()

	exec := &search.Executor{
		Lexical:    e.Lexical,
		Semantic:   e.Semantic,
		Exclusions: e.Exclusions,
		Cleaner:    e.Cleaner,
		Config:     e.Config,
	}
	semantic := exec.Resolve(types.ProviderSemantic)
	planner := &plan.Planner{
		Generator: e.Generator,
		Config:    e.Config,
		Semantic:  semantic != nil && semantic.Kind() == types.ProviderSemantic,
		Now:       e.Now,
	}
	discoverer := &plan.Discoverer{Generator: e.Generator, MaxTokens: e.Config.Generation.MaxTokens}

	var ledgers []cost.Ledger

	check, usage, err := discoverer.Check(ctx, req.Subject, req.Intent)
	ledgers = append(ledgers, cost.Generation(usage))
	if err != nil {
		return types.ScoutOutput{}, e.fail(ctx, fmt.Errorf("discovery check: %w", err))
	}

	var outcomes []search.Outcome
	var discovery *types.DiscoveryCheck
	var dc *plan.DiscoveryContext
	if check.NeedsDiscovery {
		discovery = &check
		out, err := e.discover(ctx, exec, check)
		if err != nil {
			return types.ScoutOutput{}, e.fail(ctx, err)
		}
		outcomes = append(outcomes, out)
		dc = plan.NewDiscoveryContext(out.Result, e.Config.DiscoveryTopResults, e.Config.DiscoveryExcerptChars)
		if dc.Empty() {
			log.Info(ctx, log.KV{K: "msg", V: "discovery found nothing, planning without context"},
				log.KV{K: "query", V: check.Query})
			dc = nil
		}
	}

	qp, usage, err := planner.Plan(ctx, req.Subject, req.Intent, dc)
	ledgers = append(ledgers, cost.Generation(usage))
	if err != nil {
		return types.ScoutOutput{}, e.fail(ctx, fmt.Errorf("planning: %w", err))
	}

	results, err := e.searchAll(ctx, exec, qp.Queries)
	if err != nil {
		return types.ScoutOutput{}, e.fail(ctx, err)
	}
	if ctx.Err() != nil {
		return types.ScoutOutput{}, e.fail(ctx, httputil.ErrCancelled)
	}
	outcomes = append(outcomes, results...)

	tracker := pool.NewTracker()
	builder := pool.NewBuilder()
	for _, out := range outcomes {
		tracker.Ingest(out.Result)
		if err := builder.Add(out.Result); err != nil {
			return types.ScoutOutput{}, err
		}
		ledgers = append(ledgers, out.Ledger)
	}
	p := builder.Build()
	ledger := cost.Sum(ledgers...)

	sourceURLs := p.URLList()
	score := confidence.Score(e.Config.Confidence, confidence.Signals{
		Sources:  len(sourceURLs),
		Queries:  len(p.QueryCache),
		Evidence: pool.Evidence(p),
	})

	output := Assemble(Assembly{
		RunID:      e.newID(),
		CreatedAt:  started.UTC(),
		Duration:   e.now().Sub(started),
		Subject:    req.Subject,
		Intent:     req.Intent,
		Plan:       qp,
		Discovery:  discovery,
		Pool:       p,
		SourceURLs: sourceURLs,
		Summaries:  pool.ExtractSourceSummaries(p, e.maxSources()),
		Confidence: score,
		Ledger:     ledger,
		Duplicates: tracker.Duplicates(),
		QueryStats: tracker.QueryStats(),
	})
	log.Info(ctx, log.KV{K: "msg", V: "scout complete"}, log.KV{K: "run_id", V: output.RunID},
		log.KV{K: "subject", V: req.Subject.Name}, log.KV{K: "queries", V: len(outcomes)},
		log.KV{K: "sources", V: len(sourceURLs)}, log.KV{K: "confidence", V: string(score)},
		log.KV{K: "cost", V: types.FormatUSD(output.TotalCostMicroUSD())})
	return output, nil
}

// discover runs the discovery query ahead of planning.
func (e *Engine) discover(ctx context.Context, exec *search.Executor, check types.DiscoveryCheck) (search.Outcome, error) {
	q := types.PlannedQuery{
		Text:     check.Query,
		Provider: check.Provider,
		Category: types.CategoryDiscovery,
		Purpose:  "identify the subject before planning",
	}
	out, err := exec.Execute(ctx, q)
	if err != nil {
		return search.Outcome{}, queryError(q, err)
	}
	if ctx.Err() != nil {
		return search.Outcome{}, httputil.ErrCancelled
	}
	return out, nil
}

// searchAll executes every query concurrently. Each task writes only its own
// slot; the caller merges the slots in plan order after the join.
func (e *Engine) searchAll(ctx context.Context, exec *search.Executor, queries []types.PlannedQuery) ([]search.Outcome, error) {
	total := len(queries)
	outcomes := make([]search.Outcome, total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			defer func() {
				n := done.Add(1)
				if e.Progress != nil {
					e.Progress(int(n), total)
				}
			}()
			out, err := exec.Execute(gctx, q)
			if err != nil {
				return queryError(q, err)
			}
			log.Info(gctx, log.KV{K: "msg", V: "query complete"}, log.KV{K: "query", V: q.Text},
				log.KV{K: "provider", V: string(out.Result.Provider)}, log.KV{K: "results", V: len(out.Result.Results)})
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// fail maps any error observed after ctx is done to httputil.ErrCancelled.
func (e *Engine) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, httputil.ErrCancelled) {
		log.Info(ctx, log.KV{K: "msg", V: "scout cancelled"})
		return httputil.ErrCancelled
	}
	log.Error(ctx, err, log.KV{K: "msg", V: "scout failed"})
	return err
}

func queryError(q types.PlannedQuery, err error) error {
	if errors.Is(err, httputil.ErrCancelled) {
		return err
	}
	return &QueryError{Query: q.Text, Provider: q.Provider, Category: q.Category, Err: err}
}

func (e *Engine) maxSources() int {
	if e.Config.MaxSources <= 0 {
		return types.DefaultScoutConfig().MaxSources
	}
	return e.Config.MaxSources
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}
