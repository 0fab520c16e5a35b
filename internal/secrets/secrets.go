// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files, one
// file per key: the filename is the key name and the trimmed contents are
// the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// knownKeys are the secret files the CLI understands. Other files in the
// directory are reported and left unread rather than pulled into memory.
var knownKeys = map[string]bool{
	"anthropic-api-key": true,
}

// Load reads the known key files in dir and returns a map of key name to
// trimmed value. A missing directory or missing key files are not errors;
// Load returns an empty map. Unreadable or unrecognized files produce a
// warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !knownKeys[name] {
			fmt.Fprintf(os.Stderr, "warning: ignoring unrecognized secret file %s\n", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
