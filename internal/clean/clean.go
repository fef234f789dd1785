// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean enriches raw provider results with quality and relevance
// scores, summaries and extracted facts. Cleaning is optional: every caller
// goes through BestEffort, which falls back to the raw result on any failure.
package clean

import (
	"context"
	"fmt"

	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/pkg/types"
)

// Input is one executed query's raw result handed to a Cleaner.
type Input struct {
	Query    string
	Category types.Category
	Provider types.Provider
	Raw      types.CategorizedSearchResult
}

// Output is a cleaned result plus the token usage of each sub-call.
// Filtered lists the URLs the prefilter dropped.
type Output struct {
	Result     types.CategorizedSearchResult
	Prefilter  types.TokenUsage
	Extraction types.TokenUsage
	Filtered   []string
}

// Usage returns the output's token usage as a CleaningUsage record.
func (o Output) Usage() types.CleaningUsage {
	return types.CleaningUsage{}.Add(types.CleaningUsage{Prefilter: o.Prefilter, Extraction: o.Extraction})
}

// Cleaner rewrites a raw result. Implementations may return a partially
// populated Output alongside an error so spent tokens are still accounted.
type Cleaner interface {
	Clean(ctx context.Context, in Input) (Output, error)
}

// BestEffort runs c over in and never fails. On error or panic it returns the
// raw result with whatever usage c reported, and ok is false. A nil Cleaner
// returns the raw result with zero usage.
func BestEffort(ctx context.Context, c Cleaner, in Input) (out Output, ok bool) {
	raw := Output{Result: in.Raw}
	if c == nil {
		return raw, false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, fmt.Errorf("cleaner panic: %v", r), log.KV{K: "query", V: in.Query})
			out, ok = raw, false
		}
	}()

	cleaned, err := c.Clean(ctx, in)
	if err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "cleaning failed, using raw result"},
			log.KV{K: "query", V: in.Query}, log.KV{K: "err", V: err.Error()})
		raw.Prefilter = cleaned.Prefilter
		raw.Extraction = cleaned.Extraction
		return raw, false
	}
	return cleaned, true
}
