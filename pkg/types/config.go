package types

import "time"

// HTTPConfig holds shared HTTP settings used by provider adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "game-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig controls the retry wrapper around every outbound call.
type RetryConfig struct {
	// MaxAttempts counts the initial attempt (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the first backoff delay; it doubles per attempt (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// MaxDelay caps a single backoff delay (default 8s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// LexicalConfig holds settings for the keyword provider (Tavily).
type LexicalConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against Tavily. Empty disables the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Depth is Tavily's search_depth: "basic" or "advanced".
	Depth string `json:"depth" yaml:"depth"`

	// MaxResults is the per-query result count (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// IncludeRawContent asks Tavily for the full page text.
	IncludeRawContent bool `json:"include_raw_content" yaml:"include_raw_content"`

	// RequestsPerSecond limits outbound calls; 0 disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// CostPerQueryUSD is the estimate used when Tavily reports no cost.
	CostPerQueryUSD float64 `json:"cost_per_query_usd" yaml:"cost_per_query_usd"`
}

// SemanticConfig holds settings for the neural provider (Exa).
type SemanticConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against Exa. Empty disables the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Type is Exa's search type: "auto", "neural", "fast", or "deep".
	Type string `json:"type" yaml:"type"`

	// NumResults is the per-query result count (default 5).
	NumResults int `json:"num_results" yaml:"num_results"`

	// ContentChars caps the text returned per result.
	ContentChars int `json:"content_chars" yaml:"content_chars"`

	// RequestsPerSecond limits outbound calls; 0 disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// CostPerQueryUSD is the estimate used when Exa reports no cost.
	CostPerQueryUSD float64 `json:"cost_per_query_usd" yaml:"cost_per_query_usd"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Enabled turns LLM planning, discovery and cleaning on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps each completion (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// InputCostPerMTok and OutputCostPerMTok price token usage in USD per million.
	InputCostPerMTok  float64 `json:"input_cost_per_mtok" yaml:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `json:"output_cost_per_mtok" yaml:"output_cost_per_mtok"`
}

// CleaningConfig holds settings for the optional content-cleaning adapter.
type CleaningConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MinRelevance drops prefiltered results scoring below it (0-100, default 40).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`
}

// ExclusionConfig holds settings for the domain exclusion source.
type ExclusionConfig struct {
	// Static is the deny-list applied to every provider.
	Static []string `json:"static" yaml:"static"`

	// DBPath is the SQLite file of per-domain failure statistics. Empty disables it.
	DBPath string `json:"db_path" yaml:"db_path"`

	// FailureThreshold is the failure count at which a domain is excluded (default 3).
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// RedisAddr enables caching of exclusion lists when set.
	RedisAddr     string        `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string        `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	CacheTTL      time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// ConfidenceConfig holds the medium thresholds of each scoring dimension.
// High thresholds are derived: 2x for counts, 4x for evidence volume.
type ConfidenceConfig struct {
	SourcesMedium  int `json:"sources_medium" yaml:"sources_medium"`
	QueriesMedium  int `json:"queries_medium" yaml:"queries_medium"`
	EvidenceMedium int `json:"evidence_medium" yaml:"evidence_medium"`
}

// ScoutConfig groups every tunable of one research invocation.
type ScoutConfig struct {
	// MaxSources caps the ranked source summaries (default 15).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// MinQueries and MaxQueries bound the size of the query plan (default 2 and 4).
	MinQueries int `json:"min_queries" yaml:"min_queries"`
	MaxQueries int `json:"max_queries" yaml:"max_queries"`

	// DiscoveryTopResults and DiscoveryExcerptChars shape the context excerpt
	// fed back into the planner after a discovery query (default 3 and 300).
	DiscoveryTopResults   int `json:"discovery_top_results" yaml:"discovery_top_results"`
	DiscoveryExcerptChars int `json:"discovery_excerpt_chars" yaml:"discovery_excerpt_chars"`

	Retry      RetryConfig      `json:"retry" yaml:"retry"`
	Lexical    LexicalConfig    `json:"lexical" yaml:"lexical"`
	Semantic   SemanticConfig   `json:"semantic" yaml:"semantic"`
	Generation AIConfig         `json:"generation" yaml:"generation"`
	Cleaning   CleaningConfig   `json:"cleaning" yaml:"cleaning"`
	Exclusions ExclusionConfig  `json:"exclusions" yaml:"exclusions"`
	Confidence ConfidenceConfig `json:"confidence" yaml:"confidence"`
}

// DefaultStaticExclusions are domains that rarely carry usable game coverage.
var DefaultStaticExclusions = []string{
	"pinterest.com",
	"facebook.com",
	"instagram.com",
	"tiktok.com",
	"x.com",
	"twitter.com",
}

// DefaultScoutConfig returns the configuration used when nothing is overridden.
func DefaultScoutConfig() ScoutConfig {
	return ScoutConfig{
		MaxSources:            15,
		MinQueries:            2,
		MaxQueries:            4,
		DiscoveryTopResults:   3,
		DiscoveryExcerptChars: 300,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    8 * time.Second,
		},
		Lexical: LexicalConfig{
			HTTPConfig:        HTTPConfig{Timeout: 30 * time.Second, UserAgent: "game-scout/0.1"},
			Depth:             "basic",
			MaxResults:        5,
			RequestsPerSecond: 5,
			CostPerQueryUSD:   0.008,
		},
		Semantic: SemanticConfig{
			HTTPConfig:        HTTPConfig{Timeout: 30 * time.Second, UserAgent: "game-scout/0.1"},
			Type:              "auto",
			NumResults:        5,
			ContentChars:      2000,
			RequestsPerSecond: 5,
			CostPerQueryUSD:   0.005,
		},
		Generation: AIConfig{
			Model:             "claude-sonnet-4-5-20250929",
			MaxTokens:         2048,
			InputCostPerMTok:  3,
			OutputCostPerMTok: 15,
		},
		Cleaning: CleaningConfig{
			MinRelevance: 40,
		},
		Exclusions: ExclusionConfig{
			Static:           append([]string(nil), DefaultStaticExclusions...),
			FailureThreshold: 3,
			CacheTTL:         10 * time.Minute,
		},
		Confidence: ConfidenceConfig{
			SourcesMedium:  5,
			QueriesMedium:  2,
			EvidenceMedium: 3000,
		},
	}
}

// LexicalCostEstimate returns the per-query estimate for the configured depth.
// Advanced depth consumes two credits.
func (c LexicalConfig) LexicalCostEstimate() float64 {
	if c.Depth == "advanced" {
		return 2 * c.CostPerQueryUSD
	}
	return c.CostPerQueryUSD
}
