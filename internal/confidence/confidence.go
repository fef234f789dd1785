// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package confidence maps source count, query count and evidence volume to a
// coarse adequacy level for the gathered research.
package confidence

import "github.com/pdiddy/game-scout/pkg/types"

// Signals are the quantitative inputs to Score.
type Signals struct {
	Sources  int
	Queries  int
	Evidence int
}

// Score awards each dimension 0, 1 or 2 points against its medium and high
// thresholds and maps the sum: 5 or more is high, 3 or more is medium.
// High thresholds are twice the medium ones for counts and four times for
// evidence volume. Zero thresholds fall back to defaults.
func Score(cfg types.ConfidenceConfig, s Signals) types.Confidence {
	cfg = normalize(cfg)
	points := dimension(s.Sources, cfg.SourcesMedium, 2*cfg.SourcesMedium) +
		dimension(s.Queries, cfg.QueriesMedium, 2*cfg.QueriesMedium) +
		dimension(s.Evidence, cfg.EvidenceMedium, 4*cfg.EvidenceMedium)

	switch {
	case points >= 5:
		return types.ConfidenceHigh
	case points >= 3:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

func dimension(v, medium, high int) int {
	switch {
	case v >= high:
		return 2
	case v >= medium:
		return 1
	default:
		return 0
	}
}

func normalize(cfg types.ConfidenceConfig) types.ConfidenceConfig {
	def := types.DefaultScoutConfig().Confidence
	if cfg.SourcesMedium <= 0 {
		cfg.SourcesMedium = def.SourcesMedium
	}
	if cfg.QueriesMedium <= 0 {
		cfg.QueriesMedium = def.QueriesMedium
	}
	if cfg.EvidenceMedium <= 0 {
		cfg.EvidenceMedium = def.EvidenceMedium
	}
	return cfg
}
