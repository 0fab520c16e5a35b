// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trade-mirror/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Load and inspect the shipment ledger",
}

// --- load subcommand ---

var ledgerLoadCmd = &cobra.Command{
	Use:   "load [files...]",
	Short: "Bulk-load shipment records from CSV or YAML files",
	Long: `Load reads shipment records from one or more CSV or YAML files and
inserts them into the ledger, computing the hidden-buyer flag for each.
Records whose transaction ID already exists are skipped, so re-loading a
file is harmless.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLedgerLoad,
}

func runLedgerLoad(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	total := 0
	failed := 0
	for _, path := range args {
		inserted, err := store.LoadFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "loaded  %s (%d new records)\n", path, inserted)
		total += inserted
	}

	fmt.Fprintf(os.Stdout, "\nloaded %d record(s) from %d file(s)\n", total, len(args)-failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to load", failed)
	}
	return nil
}

// --- stats subcommand ---

var ledgerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts for the ledger",
	RunE:  runLedgerStats,
}

func runLedgerStats(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("exports:        %d\n", stats.Exports)
	fmt.Printf("imports:        %d\n", stats.Imports)
	fmt.Printf("hidden buyers:  %d\n", stats.HiddenBuyers)
	fmt.Printf("mirrored:       %d\n", stats.Mirrored)
	return nil
}

func init() {
	ledgerStatsCmd.Flags().Bool("json", false, "output stats as JSON")

	ledgerCmd.AddCommand(ledgerLoadCmd)
	ledgerCmd.AddCommand(ledgerStatsCmd)

	rootCmd.AddCommand(ledgerCmd)
}
