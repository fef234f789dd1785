// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/game-scout/internal/clean"
	"github.com/pdiddy/game-scout/internal/exclusion"
	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/internal/llm"
	"github.com/pdiddy/game-scout/internal/report"
	"github.com/pdiddy/game-scout/internal/scout"
	"github.com/pdiddy/game-scout/internal/search"
	"github.com/pdiddy/game-scout/pkg/types"
)

var scoutCmd = &cobra.Command{
	Use:   "scout [game name]",
	Short: "Research a game for a stated intent",
	Long: `Scout plans queries for the named game and intent, runs them in parallel
against the configured search providers, and prints ranked sources, per-query
statistics, costs and a confidence level.

Use --out to save the run as YAML and --from to re-render a saved run without
querying any provider.`,
	RunE: runScout,
}

func runScout(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		out, err := report.ReadRunFile(from)
		if err != nil {
			return err
		}
		return render(os.Stdout, out, jsonOutput)
	}

	req, err := scoutRequest(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := scoutConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-sources"); n > 0 {
		cfg.MaxSources = n
	}
	if cmd.Flags().Changed("clean") {
		cfg.Cleaning.Enabled, _ = cmd.Flags().GetBool("clean")
	}

	ctx := cmd.Context()
	engine, closeFn, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	engine.Progress = progressPrinter(os.Stderr)

	out, err := engine.Run(ctx, req)
	if err != nil {
		if errors.Is(err, httputil.ErrCancelled) {
			return fmt.Errorf("scout cancelled")
		}
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := report.WriteRunFile(path, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run to %s\n", path)
	}
	return render(os.Stdout, out, jsonOutput)
}

func scoutRequest(cmd *cobra.Command, args []string) (scout.Request, error) {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = strings.Join(args, " ")
	}
	if strings.TrimSpace(name) == "" {
		return scout.Request{}, fmt.Errorf("game name required: pass it as an argument or with --name")
	}
	intent, _ := cmd.Flags().GetString("intent")
	genres, _ := cmd.Flags().GetStringSlice("genre")
	categories, _ := cmd.Flags().GetStringSlice("category")
	instruction, _ := cmd.Flags().GetString("instruction")

	return scout.Request{
		Subject: types.Subject{
			Name:        strings.TrimSpace(name),
			Genres:      genres,
			Categories:  categories,
			Instruction: instruction,
		},
		Intent: intent,
	}, nil
}

// buildEngine wires the providers, the generator, the optional cleaner and the
// exclusion source described by cfg.
func buildEngine(ctx context.Context, cfg types.ScoutConfig) (*scout.Engine, func(), error) {
	gen := llm.WithRetry(llm.NewAnthropic(cfg.Generation), cfg.Retry)

	store, cache, closeFn, err := exclusionSource(ctx, cfg.Exclusions)
	if err != nil {
		return nil, nil, err
	}
	var src exclusion.Source = store
	if cache != nil {
		src = cache
	}

	e := &scout.Engine{
		Lexical:    search.NewTavily(cfg.Lexical),
		Semantic:   search.NewExa(cfg.Semantic),
		Generator:  gen,
		Exclusions: src,
		Config:     cfg,
	}
	if _, off := gen.(llm.Disabled); cfg.Cleaning.Enabled && !off {
		e.Cleaner = clean.NewLLMCleaner(gen, cfg.Cleaning, cfg.Generation.MaxTokens)
	}
	return e, closeFn, nil
}

func progressPrinter(w io.Writer) scout.ProgressFunc {
	var mu sync.Mutex
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\r%d of %d queries complete", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func render(w io.Writer, out types.ScoutOutput, jsonOutput bool) error {
	if jsonOutput {
		return report.FormatJSON(w, out)
	}
	return report.FormatTable(w, out)
}

func init() {
	scoutCmd.Flags().String("name", "", "game name (alternative to the positional argument)")
	scoutCmd.Flags().String("intent", "overview", "what the research is for, e.g. \"beginner guide\"")
	scoutCmd.Flags().StringSlice("genre", nil, "genre hints (repeatable)")
	scoutCmd.Flags().StringSlice("category", nil, "topic hints such as \"boss guide\" (repeatable)")
	scoutCmd.Flags().String("instruction", "", "free-form instruction passed to the planner")
	scoutCmd.Flags().Int("max-sources", 0, "maximum ranked sources (0 = use config)")
	scoutCmd.Flags().Bool("clean", false, "route results through the LLM cleaning adapter")
	scoutCmd.Flags().String("out", "", "save the run to a YAML file")
	scoutCmd.Flags().String("from", "", "render a saved run instead of querying providers")
	scoutCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(scoutCmd)
}
