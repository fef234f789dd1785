// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Costs are kept in integer micro-dollars so that accumulation is exactly
// associative and commutative regardless of the order results arrive in.

// MicroUSD converts a dollar amount to micro-dollars, rounding to nearest.
func MicroUSD(usd float64) int64 {
	if usd < 0 {
		return -int64(-usd*1e6 + 0.5)
	}
	return int64(usd*1e6 + 0.5)
}

// FormatUSD renders micro-dollars as a dollar string with 4 decimals.
func FormatUSD(micros int64) string {
	return fmt.Sprintf("$%.4f", float64(micros)/1e6)
}

// TokenUsage accumulates LLM token counts and, when known, their cost.
type TokenUsage struct {
	Input        int64 `json:"input" yaml:"input"`
	Output       int64 `json:"output" yaml:"output"`
	CostMicroUSD int64 `json:"cost_micro_usd,omitempty" yaml:"cost_micro_usd,omitempty"`
}

// Add returns the element-wise sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Input:        u.Input + o.Input,
		Output:       u.Output + o.Output,
		CostMicroUSD: u.CostMicroUSD + o.CostMicroUSD,
	}
}

// IsZero reports whether no tokens or cost were recorded.
func (u TokenUsage) IsZero() bool {
	return u.Input == 0 && u.Output == 0 && u.CostMicroUSD == 0
}

// CleaningUsage splits cleaning-adapter token usage into its two sub-calls.
type CleaningUsage struct {
	Prefilter  TokenUsage `json:"prefilter" yaml:"prefilter"`
	Extraction TokenUsage `json:"extraction" yaml:"extraction"`
	Total      TokenUsage `json:"total" yaml:"total"`
}

// Add returns the element-wise sum of c and o, keeping Total consistent.
func (c CleaningUsage) Add(o CleaningUsage) CleaningUsage {
	pre := c.Prefilter.Add(o.Prefilter)
	ext := c.Extraction.Add(o.Extraction)
	return CleaningUsage{Prefilter: pre, Extraction: ext, Total: pre.Add(ext)}
}

// IsZero reports whether no cleaning usage was recorded.
func (c CleaningUsage) IsZero() bool {
	return c.Prefilter.IsZero() && c.Extraction.IsZero()
}

// SearchAPICosts counts executed queries and their spend per provider class.
type SearchAPICosts struct {
	LexicalCount         int   `json:"lexical_count" yaml:"lexical_count"`
	LexicalCostMicroUSD  int64 `json:"lexical_cost_micro_usd" yaml:"lexical_cost_micro_usd"`
	SemanticCount        int   `json:"semantic_count" yaml:"semantic_count"`
	SemanticCostMicroUSD int64 `json:"semantic_cost_micro_usd" yaml:"semantic_cost_micro_usd"`
}

// Add returns the element-wise sum of c and o.
func (c SearchAPICosts) Add(o SearchAPICosts) SearchAPICosts {
	return SearchAPICosts{
		LexicalCount:         c.LexicalCount + o.LexicalCount,
		LexicalCostMicroUSD:  c.LexicalCostMicroUSD + o.LexicalCostMicroUSD,
		SemanticCount:        c.SemanticCount + o.SemanticCount,
		SemanticCostMicroUSD: c.SemanticCostMicroUSD + o.SemanticCostMicroUSD,
	}
}

// TotalMicroUSD is the spend across both providers.
func (c SearchAPICosts) TotalMicroUSD() int64 {
	return c.LexicalCostMicroUSD + c.SemanticCostMicroUSD
}
