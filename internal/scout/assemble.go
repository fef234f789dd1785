// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"time"

	"github.com/pdiddy/game-scout/internal/cost"
	"github.com/pdiddy/game-scout/pkg/types"
)

// Assembly gathers every product of a run before it is packaged.
type Assembly struct {
	RunID     string
	CreatedAt time.Time
	Duration  time.Duration

	Subject types.Subject
	Intent  string
	Plan    types.QueryPlan

	// Discovery is set only when a discovery query ran.
	Discovery *types.DiscoveryCheck

	Pool       types.ResearchPool
	SourceURLs []string
	Summaries  []types.SourceSummary
	Confidence types.Confidence
	Ledger     cost.Ledger
	Duplicates []types.DuplicateURLInfo
	QueryStats []types.SearchQueryStats
}

// Assemble packages a into a ScoutOutput. Discovery, duplicates, query
// stats, source summaries and cleaning usage are set only when non-empty.
func Assemble(a Assembly) types.ScoutOutput {
	out := types.ScoutOutput{
		RunID:       a.RunID,
		CreatedAt:   a.CreatedAt,
		Duration:    a.Duration,
		Subject:     a.Subject,
		Intent:      a.Intent,
		Plan:        a.Plan,
		Pool:        a.Pool,
		SourceURLs:  append([]string{}, a.SourceURLs...),
		Confidence:  a.Confidence,
		SearchCosts: a.Ledger.Search,
		TokenUsage:  a.Ledger.Tokens,
	}
	if a.Discovery != nil && a.Discovery.NeedsDiscovery {
		d := *a.Discovery
		out.Discovery = &d
	}
	if len(a.Summaries) > 0 {
		out.SourceSummaries = append([]types.SourceSummary(nil), a.Summaries...)
	}
	if len(a.Duplicates) > 0 {
		out.Duplicates = append([]types.DuplicateURLInfo(nil), a.Duplicates...)
	}
	if len(a.QueryStats) > 0 {
		out.QueryStats = append([]types.SearchQueryStats(nil), a.QueryStats...)
	}
	if !a.Ledger.Cleaning.IsZero() {
		c := a.Ledger.Cleaning
		out.CleaningUsage = &c
	}
	return out
}
