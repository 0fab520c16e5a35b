// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trade-mirror/internal/explain"
	"github.com/pdiddy/trade-mirror/internal/ledger"
	"github.com/pdiddy/trade-mirror/internal/mirror"
	"github.com/pdiddy/trade-mirror/pkg/types"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Run mirror matching and explain recorded matches",
}

// --- run subcommand ---

var mirrorRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one mirror-matching pass over the ledger",
	Long: `Run scans hidden-buyer exports that have no recorded match, searches the
import ledger for plausible counterparts, scores candidate pairs, and
records unambiguous best matches. The run summary is printed when the pass
completes.

Every matching parameter can be set in the config file (mirror.* keys), via
TRADE_MIRROR_* environment variables, or overridden with flags. A run over
an already-mirrored ledger is a no-op.`,
	RunE: runMirrorRun,
}

func runMirrorRun(cmd *cobra.Command, args []string) error {
	cfg := mirrorConfigFromViper()
	applyMirrorFlags(cmd, &cfg)

	store, err := ledger.Open(ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := mirror.New(store, cfg).Run(context.Background(), os.Stderr)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := writeSummary(summary, format); err != nil {
		return err
	}

	if summary.HasErrors() {
		cmd.SilenceUsage = true
		return fmt.Errorf("%w: %d export(s) failed", errRunDegraded, len(summary.Errors))
	}
	return nil
}

// errRunDegraded marks a run that finished and emitted its summary but
// recorded per-export errors. main maps it to a distinct exit status.
var errRunDegraded = errors.New("run completed with errors")

func writeSummary(summary *mirror.RunSummary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "yaml", "":
		data, err := yaml.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshaling summary: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

// mirrorConfigFromViper assembles the run configuration from the config
// file and environment, on top of the built-in defaults.
func mirrorConfigFromViper() types.MirrorConfig {
	cfg := types.DefaultMirrorConfig()

	for key, dst := range map[string]*int{
		"mirror.min_score":         &cfg.MinScore,
		"mirror.min_lag_days":      &cfg.MinLagDays,
		"mirror.max_lag_days":      &cfg.MaxLagDays,
		"mirror.score_tie_delta":   &cfg.ScoreTieDelta,
		"mirror.batch_size":        &cfg.BatchSize,
		"mirror.candidate_cap":     &cfg.CandidateCap,
		"mirror.top_routes":        &cfg.TopRoutes,
		"mirror.weights.commodity": &cfg.Weights.Commodity,
		"mirror.weights.quantity":  &cfg.Weights.Quantity,
		"mirror.weights.date_lag":  &cfg.Weights.DateLag,
		"mirror.weights.container": &cfg.Weights.Container,
		"mirror.weights.vessel":    &cfg.Weights.Vessel,
	} {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	if viper.IsSet("mirror.qty_tolerance_pct") {
		cfg.QtyTolerancePct = viper.GetFloat64("mirror.qty_tolerance_pct")
	}
	if viper.IsSet("mirror.country_filters") {
		cfg.CountryFilters = viper.GetStringSlice("mirror.country_filters")
	}

	return cfg
}

// applyMirrorFlags overrides cfg with any flags set explicitly on cmd.
func applyMirrorFlags(cmd *cobra.Command, cfg *types.MirrorConfig) {
	for name, dst := range map[string]*int{
		"min-score":     &cfg.MinScore,
		"min-lag":       &cfg.MinLagDays,
		"max-lag":       &cfg.MaxLagDays,
		"tie-delta":     &cfg.ScoreTieDelta,
		"batch-size":    &cfg.BatchSize,
		"candidate-cap": &cfg.CandidateCap,
		"top-routes":    &cfg.TopRoutes,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetInt(name)
		}
	}
	if cmd.Flags().Changed("qty-tolerance") {
		cfg.QtyTolerancePct, _ = cmd.Flags().GetFloat64("qty-tolerance")
	}
	if cmd.Flags().Changed("country") {
		cfg.CountryFilters, _ = cmd.Flags().GetStringSlice("country")
	}
}

// --- explain subcommand ---

var mirrorExplainCmd = &cobra.Command{
	Use:   "explain [export-transaction-id]",
	Short: "Generate a plain-language explanation of a recorded match",
	Long: `Explain reads the audit row behind one mirrored export, together with
both shipment records it links, and asks the Claude API to explain in plain
language why the match was accepted.

The API key is read from .secrets/anthropic-api-key or the --api-key flag.`,
	Args: cobra.ExactArgs(1),
	RunE: runMirrorExplain,
}

func runMirrorExplain(cmd *cobra.Command, args []string) error {
	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault("anthropic-api-key", apiKey)
	if apiKey == "" {
		return fmt.Errorf("no API key: create .secrets/anthropic-api-key or pass --api-key")
	}
	model, _ := cmd.Flags().GetString("model")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	store, err := ledger.Open(ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	entry, err := store.GetMatchLogEntry(ctx, args[0])
	if err != nil {
		return err
	}
	export, err := store.GetShipment(ctx, entry.ExportTransactionID)
	if err != nil {
		return err
	}
	imp, err := store.GetShipment(ctx, entry.ImportTransactionID)
	if err != nil {
		return err
	}

	backend := &explain.ClaudeBackend{
		Config: types.AIConfig{Model: model, APIKey: apiKey, MaxRetries: maxRetries},
	}
	text, err := explain.New(backend).Explain(ctx, *entry, *export, *imp)
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}

func init() {
	mirrorRunCmd.Flags().Int("min-score", 0, "acceptance threshold (default 70)")
	mirrorRunCmd.Flags().Float64("qty-tolerance", 0, "quantity tolerance in percent (default 5)")
	mirrorRunCmd.Flags().Int("min-lag", 0, "minimum shipping lag in days (default 15)")
	mirrorRunCmd.Flags().Int("max-lag", 0, "maximum shipping lag in days (default 45)")
	mirrorRunCmd.Flags().Int("tie-delta", 0, "top-two score delta treated as ambiguous (default 5)")
	mirrorRunCmd.Flags().Int("batch-size", 0, "eligible exports per batch (default 5000)")
	mirrorRunCmd.Flags().Int("candidate-cap", 0, "maximum candidates per export (default 100)")
	mirrorRunCmd.Flags().Int("top-routes", 0, "route aggregates in the summary (default 10)")
	mirrorRunCmd.Flags().StringSlice("country", nil, "restrict scanning to these reporting countries")
	mirrorRunCmd.Flags().String("format", "yaml", "summary output format: yaml or json")

	mirrorExplainCmd.Flags().String("api-key", "", "Claude API key (overrides .secrets/anthropic-api-key)")
	mirrorExplainCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "Claude model identifier")
	mirrorExplainCmd.Flags().Int("max-retries", 3, "retry attempts for rate-limited API calls")

	mirrorCmd.AddCommand(mirrorRunCmd)
	mirrorCmd.AddCommand(mirrorExplainCmd)

	rootCmd.AddCommand(mirrorCmd)
}
