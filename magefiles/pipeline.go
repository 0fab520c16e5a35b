//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runCLI invokes the built binary with the given arguments.
func runCLI(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}

// Load ingests every shipment file under data/raw into the ledger.
func Load() error {
	mg.Deps(Build, Init)

	entries, err := os.ReadDir("data/raw")
	if err != nil {
		return fmt.Errorf("reading data/raw: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".csv", ".yaml", ".yml":
			files = append(files, filepath.Join("data/raw", e.Name()))
		}
	}
	if len(files) == 0 {
		fmt.Println("No shipment files under data/raw; nothing to load.")
		return nil
	}
	return runCLI(append([]string{"ledger", "load"}, files...)...)
}

// Mirror runs a full matching pass and writes the summary to output/summaries.
func Mirror() error {
	mg.Deps(Build, Init)

	out, err := os.Create(filepath.Join("output/summaries", "latest.yaml"))
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(filepath.Join(binDir, binName), "mirror", "run")
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mirror run: %w", err)
	}
	fmt.Println("Summary written to output/summaries/latest.yaml")
	return nil
}
