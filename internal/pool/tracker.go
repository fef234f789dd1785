// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"slices"
	"sort"

	"github.com/pdiddy/game-scout/pkg/types"
)

// Tracker records which queries returned each URL. It never alters the
// results it ingests.
type Tracker struct {
	queries map[string][]string
	stats   []types.SearchQueryStats
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{queries: make(map[string][]string)}
}

// Ingest records every URL of r under r.Query.
func (t *Tracker) Ingest(r types.CategorizedSearchResult) {
	st := types.SearchQueryStats{
		Query:    r.Query,
		Provider: r.Provider,
		Category: r.Category,
		Total:    len(r.Results),
	}
	for _, it := range r.Results {
		qs, seen := t.queries[it.URL]
		if !seen {
			st.Unique++
			t.queries[it.URL] = []string{r.Query}
			continue
		}
		st.Duplicates++
		if !slices.Contains(qs, r.Query) {
			t.queries[it.URL] = append(qs, r.Query)
		}
	}
	t.stats = append(t.stats, st)
}

// Duplicates lists, by URL, every URL returned by two or more distinct
// queries together with those queries in ingest order.
func (t *Tracker) Duplicates() []types.DuplicateURLInfo {
	var out []types.DuplicateURLInfo
	for u, qs := range t.queries {
		if len(qs) < 2 {
			continue
		}
		out = append(out, types.DuplicateURLInfo{
			URL:     u,
			Queries: append([]string(nil), qs...),
			Count:   len(qs),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// QueryStats returns one record per ingested result, in ingest order.
func (t *Tracker) QueryStats() []types.SearchQueryStats {
	return append([]types.SearchQueryStats(nil), t.stats...)
}
