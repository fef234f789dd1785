// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the game-scout CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the game-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "game-scout",
	Short: "Research orchestration for video game content",
	Long: `game-scout gathers, deduplicates and ranks web evidence about a video game
for a stated intent (a beginner guide, a patch summary, a boss walkthrough).

It plans a small set of queries, optionally searches for disambiguating context
first, runs the queries in parallel against a keyword and a semantic search
provider, and reports ranked sources, costs and a confidence level.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		format := log.FormatJSON
		if log.IsTerminal() {
			format = log.FormatTerminal
		}
		ctx := log.Context(cmd.Context(), log.WithFormat(format))
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			ctx = log.Context(ctx, log.WithDebug())
			log.Debugf(ctx, "debug logs enabled")
		}
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./game-scout.yaml or ~/.config/game-scout/game-scout.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("game-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "game-scout"))
		}
	}

	viper.SetEnvPrefix("GAME_SCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
