// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/game-scout/internal/exclusion"
	"github.com/pdiddy/game-scout/pkg/types"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Inspect and manage learned domain exclusions",
	Long: `Exclusions manages the SQLite store of per-domain failure statistics. A
domain whose failures reach the configured threshold, and make up at least half
of its outcomes, is excluded from that provider's searches.`,
}

// --- record subcommand ---

var exclusionsRecordCmd = &cobra.Command{
	Use:   "record <provider> <domain>",
	Short: "Record a failure (or, with --success, a success) for a domain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := parseProvider(args[0])
		if err != nil {
			return err
		}
		success, _ := cmd.Flags().GetBool("success")

		ctx := cmd.Context()
		cfg, err := scoutConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store, cache, closeFn, err := exclusionSource(ctx, cfg.Exclusions)
		if err != nil {
			return err
		}
		defer closeFn()

		var rec exclusion.Recorder = store
		if cache != nil {
			rec = cache
		}
		if success {
			err = rec.RecordSuccess(ctx, provider, args[1])
		} else {
			err = rec.RecordFailure(ctx, provider, args[1])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %s for %s on %s\n", outcome(success), exclusion.Domain(args[1]), provider)
		return nil
	},
}

// --- list subcommand ---

var exclusionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domain statistics and exclusion status",
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := providersFromFlag(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		cfg, err := scoutConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store, err := exclusion.NewStore(cfg.Exclusions.DBPath, cfg.Exclusions.FailureThreshold)
		if err != nil {
			return err
		}
		defer store.Close()

		var stats []exclusion.DomainStat
		for _, p := range providers {
			s, err := store.Stats(ctx, p)
			if err != nil {
				return err
			}
			stats = append(stats, s...)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatStats(os.Stdout, stats, cfg.Exclusions.FailureThreshold, jsonOutput)
	},
}

func formatStats(w io.Writer, stats []exclusion.DomainStat, threshold int, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	if len(stats) == 0 {
		fmt.Fprintln(w, "No domain statistics recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-9s  %-35s  %8s  %9s  %-8s  %s\n",
		"Provider", "Domain", "Failures", "Successes", "Excluded", "Last failure")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, s := range stats {
		excluded := "no"
		if s.Excluded(threshold) {
			excluded = "yes"
		}
		last := ""
		if !s.LastFailure.IsZero() {
			last = s.LastFailure.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-9s  %-35s  %8d  %9d  %-8s  %s\n",
			s.Provider, s.Domain, s.Failures, s.Successes, excluded, last)
	}
	return nil
}

// --- reset subcommand ---

var exclusionsResetCmd = &cobra.Command{
	Use:   "reset <provider> [domain]",
	Short: "Forget the statistics of one domain, or of every domain of a provider",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := parseProvider(args[0])
		if err != nil {
			return err
		}
		domain := ""
		if len(args) == 2 {
			domain = args[1]
		}

		ctx := cmd.Context()
		cfg, err := scoutConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store, cache, closeFn, err := exclusionSource(ctx, cfg.Exclusions)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Reset(ctx, provider, domain); err != nil {
			return err
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, provider); err != nil {
				return err
			}
		}
		if domain == "" {
			fmt.Printf("Reset every domain on %s\n", provider)
		} else {
			fmt.Printf("Reset %s on %s\n", exclusion.Domain(domain), provider)
		}
		return nil
	},
}

// --- shared helpers ---

func parseProvider(s string) (types.Provider, error) {
	p := types.Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q: use lexical or semantic", s)
	}
	return p, nil
}

func providersFromFlag(cmd *cobra.Command) ([]types.Provider, error) {
	name, _ := cmd.Flags().GetString("provider")
	if name == "" {
		return []types.Provider{types.ProviderLexical, types.ProviderSemantic}, nil
	}
	p, err := parseProvider(name)
	if err != nil {
		return nil, err
	}
	return []types.Provider{p}, nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func init() {
	exclusionsRecordCmd.Flags().Bool("success", false, "record a success instead of a failure")

	exclusionsListCmd.Flags().String("provider", "", "only list one provider: lexical or semantic")
	exclusionsListCmd.Flags().Bool("json", false, "output statistics as JSON")

	exclusionsCmd.AddCommand(exclusionsRecordCmd)
	exclusionsCmd.AddCommand(exclusionsListCmd)
	exclusionsCmd.AddCommand(exclusionsResetCmd)

	rootCmd.AddCommand(exclusionsCmd)
}
