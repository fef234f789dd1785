// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/internal/exclusion"
	"github.com/pdiddy/game-scout/internal/secrets"
	"github.com/pdiddy/game-scout/pkg/types"
)

var defaultExclusionDB = filepath.Join(".game-scout", "exclusions.db")

// scoutConfig overlays the loaded config file on the defaults and fills API
// keys from config, environment or .secrets/, in that order.
func scoutConfig(v *viper.Viper) (types.ScoutConfig, error) {
	cfg := types.DefaultScoutConfig()
	if settings := v.AllSettings(); len(settings) > 0 {
		data, err := yaml.Marshal(settings)
		if err != nil {
			return cfg, fmt.Errorf("encoding config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config: %w", err)
		}
	}

	cfg.Lexical.APIKey = secrets.Lookup(loadedSecrets, secrets.TavilyAPIKey, first(cfg.Lexical.APIKey, os.Getenv("TAVILY_API_KEY")))
	cfg.Semantic.APIKey = secrets.Lookup(loadedSecrets, secrets.ExaAPIKey, first(cfg.Semantic.APIKey, os.Getenv("EXA_API_KEY")))
	cfg.Generation.APIKey = secrets.Lookup(loadedSecrets, secrets.AnthropicAPIKey, first(cfg.Generation.APIKey, os.Getenv("ANTHROPIC_API_KEY")))
	cfg.Exclusions.RedisPassword = secrets.Lookup(loadedSecrets, secrets.RedisPassword, cfg.Exclusions.RedisPassword)

	if !v.IsSet("generation.enabled") && cfg.Generation.APIKey != "" {
		cfg.Generation.Enabled = true
	}
	if cfg.Exclusions.DBPath == "" {
		cfg.Exclusions.DBPath = defaultExclusionDB
	}
	return cfg, nil
}

// exclusionSource opens the statistics store and, when a Redis address is
// configured and reachable, wraps it with the cache. The returned cache is nil
// when Redis is not in use.
func exclusionSource(ctx context.Context, cfg types.ExclusionConfig) (*exclusion.Store, *exclusion.Cache, func(), error) {
	store, err := exclusion.NewStore(cfg.DBPath, cfg.FailureThreshold)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.RedisAddr == "" {
		return store, nil, func() { store.Close() }, nil
	}

	client, err := exclusion.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "exclusion cache unavailable, reading store directly"},
			log.KV{K: "err", V: err.Error()})
		return store, nil, func() { store.Close() }, nil
	}
	cache := exclusion.NewCache(store, client, cfg.CacheTTL)
	return store, cache, func() {
		client.Close()
		store.Close()
	}, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
