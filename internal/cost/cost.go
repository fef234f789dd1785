// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cost accumulates search spend and LLM token usage for one run.
// A Ledger is a value; Merge is associative and commutative so per-query
// ledgers can be combined in any order after the parallel phase joins.
package cost

import "github.com/pdiddy/game-scout/pkg/types"

// Ledger is the spend attributable to one contribution or to a whole run.
type Ledger struct {
	Search   types.SearchAPICosts
	Tokens   types.TokenUsage
	Cleaning types.CleaningUsage
}

// Merge returns the element-wise sum of l and o.
func (l Ledger) Merge(o Ledger) Ledger {
	return Ledger{
		Search:   l.Search.Add(o.Search),
		Tokens:   l.Tokens.Add(o.Tokens),
		Cleaning: l.Cleaning.Add(o.Cleaning),
	}
}

// Sum merges every ledger in ls.
func Sum(ls ...Ledger) Ledger {
	var total Ledger
	for _, l := range ls {
		total = total.Merge(l)
	}
	return total
}

// TotalMicroUSD is the ledger's combined spend.
func (l Ledger) TotalMicroUSD() int64 {
	return l.Search.TotalMicroUSD() + l.Tokens.CostMicroUSD + l.Cleaning.Total.CostMicroUSD
}

// Query records one executed query against provider costing micros.
func Query(provider types.Provider, micros int64) Ledger {
	var l Ledger
	switch provider {
	case types.ProviderSemantic:
		l.Search.SemanticCount = 1
		l.Search.SemanticCostMicroUSD = micros
	default:
		l.Search.LexicalCount = 1
		l.Search.LexicalCostMicroUSD = micros
	}
	return l
}

// Generation records planner or discovery token usage.
func Generation(u types.TokenUsage) Ledger {
	return Ledger{Tokens: u}
}

// Cleaning records the cleaning sub-calls of one query.
func Cleaning(u types.CleaningUsage) Ledger {
	return Ledger{Cleaning: u}
}

// Estimate returns the static per-query price used when a provider does not
// report its own cost.
func Estimate(cfg types.ScoutConfig, provider types.Provider) int64 {
	if provider == types.ProviderSemantic {
		return types.MicroUSD(cfg.Semantic.CostPerQueryUSD)
	}
	return types.MicroUSD(cfg.Lexical.LexicalCostEstimate())
}

// QueryCost picks the provider-reported cost when present, else the estimate.
func QueryCost(cfg types.ScoutConfig, provider types.Provider, reported *int64) int64 {
	if reported != nil {
		return *reported
	}
	return Estimate(cfg, provider)
}
