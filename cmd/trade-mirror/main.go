// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trade-mirror CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trade-mirror/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the trade-mirror CLI.
var rootCmd = &cobra.Command{
	Use:   "trade-mirror",
	Short: "Mirror-matching engine for hidden-buyer trade shipments",
	Long: `trade-mirror maintains a SQLite ledger of customs shipment records and
runs the mirror-matching engine over it: exports whose declared consignee is
a legal placeholder (a bank, "to order" clause, or letter-of-credit
reference) are matched against opposite-direction imports with known buyers,
and the buyer identity of an unambiguous best match is propagated onto the
export.

Use the ledger subcommands to load and inspect shipment records, and the
mirror subcommands to run matching and explain recorded matches.`,
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
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trade-mirror.yaml or ~/.config/trade-mirror/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "ledger database file (default: ledger/trade.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trade-mirror")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trade-mirror"))
		}
	}

	viper.SetEnvPrefix("TRADE_MIRROR")
	// Dots in config keys become underscores in env names, so
	// mirror.min_score reads TRADE_MIRROR_MIRROR_MIN_SCORE.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ledgerPath resolves the database file: the --db flag wins, then the
// ledger.path config key, then the default location.
func ledgerPath() string {
	if path, _ := rootCmd.PersistentFlags().GetString("db"); path != "" {
		return path
	}
	if path := viper.GetString("ledger.path"); path != "" {
		return path
	}
	return filepath.Join("ledger", "trade.db")
}

// exitCode maps an Execute error to the process exit status. A degraded
// run (summary emitted, some exports failed) exits 2 so schedulers can
// tell it from a fatal failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRunDegraded):
		return 2
	default:
		return 1
	}
}

func main() {
	if code := exitCode(rootCmd.Execute()); code != 0 {
		os.Exit(code)
	}
}
