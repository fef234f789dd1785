// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ScoutOutput for people and machines and persists
// runs to YAML files that can be re-rendered later without querying providers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/game-scout/pkg/types"
)

// FormatJSON writes out as indented JSON.
func FormatJSON(w io.Writer, out types.ScoutOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatTable writes a terminal summary of out: the plan, per-query stats,
// ranked sources, duplicates, costs and the confidence level.
func FormatTable(w io.Writer, out types.ScoutOutput) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s  %s  (%s)\n", out.RunID, out.Subject.Name, out.Intent)
	fmt.Fprintf(&b, "Created %s, took %s\n", out.CreatedAt.Format(time.RFC3339), out.Duration.Round(time.Millisecond))
	title := out.Plan.DraftTitle
	if out.Plan.Fallback {
		title += " [fallback plan]"
	}
	fmt.Fprintf(&b, "Plan: %s\n", title)
	if out.Discovery != nil {
		fmt.Fprintf(&b, "Discovery: %s (%s): %s\n", out.Discovery.Query, out.Discovery.Provider, out.Discovery.Reason)
	}

	b.WriteString("\nQueries\n")
	fmt.Fprintf(&b, "%-10s  %-9s  %5s  %6s  %4s  %s\n", "Category", "Provider", "Total", "Unique", "Dups", "Query")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, s := range out.QueryStats {
		fmt.Fprintf(&b, "%-10s  %-9s  %5d  %6d  %4d  %s\n",
			s.Category, s.Provider, s.Total, s.Unique, s.Duplicates, clip(s.Query, 50))
	}

	if len(out.SourceSummaries) > 0 {
		b.WriteString("\nSources\n")
		fmt.Fprintf(&b, "%-4s  %5s  %-40s  %s\n", "Rank", "Score", "Title", "URL")
		b.WriteString(strings.Repeat("-", 90) + "\n")
		for i, s := range out.SourceSummaries {
			fmt.Fprintf(&b, "%-4d  %5.0f  %-40s  %s\n", i+1, s.CombinedScore(), clip(s.Title, 40), s.URL)
		}
	} else {
		fmt.Fprintf(&b, "\nSources (unranked)\n")
		for _, u := range out.SourceURLs {
			fmt.Fprintf(&b, "  %s\n", u)
		}
	}

	if len(out.Duplicates) > 0 {
		fmt.Fprintf(&b, "\n%d URL(s) returned by more than one query\n", len(out.Duplicates))
		for _, d := range out.Duplicates {
			fmt.Fprintf(&b, "  %s (%d queries)\n", d.URL, d.Count)
		}
	}

	b.WriteString("\nCosts\n")
	c := out.SearchCosts
	fmt.Fprintf(&b, "  lexical   %3d queries  %s\n", c.LexicalCount, types.FormatUSD(c.LexicalCostMicroUSD))
	fmt.Fprintf(&b, "  semantic  %3d queries  %s\n", c.SemanticCount, types.FormatUSD(c.SemanticCostMicroUSD))
	fmt.Fprintf(&b, "  planning  %d in / %d out tokens  %s\n",
		out.TokenUsage.Input, out.TokenUsage.Output, types.FormatUSD(out.TokenUsage.CostMicroUSD))
	if u := out.CleaningUsage; u != nil {
		fmt.Fprintf(&b, "  cleaning  %d in / %d out tokens  %s (prefilter %d, extraction %d in)\n",
			u.Total.Input, u.Total.Output, types.FormatUSD(u.Total.CostMicroUSD), u.Prefilter.Input, u.Extraction.Input)
	}
	fmt.Fprintf(&b, "  total     %s\n", types.FormatUSD(out.TotalCostMicroUSD()))

	fmt.Fprintf(&b, "\n%d sources, confidence %s\n", len(out.SourceURLs), out.Confidence)

	_, err := io.WriteString(w, b.String())
	return err
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
