// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// RecordMatch persists an accepted decision as a single transaction: one
// mirror_match_log row keyed by the export transaction ID, plus the buyer
// identity propagated onto the export record. Both guards make re-runs
// harmless: an existing log row is left untouched (INSERT OR IGNORE), and
// the buyer is only written while still unset.
func (s *Store) RecordMatch(ctx context.Context, export types.ShipmentRecord, best types.ScoredCandidate) error {
	imp := best.Candidate.Import
	if imp.BuyerIdentity == nil {
		return fmt.Errorf("candidate %s has no buyer identity to propagate", imp.TransactionID)
	}

	criteriaJSON, err := json.Marshal(best.Criteria)
	if err != nil {
		return fmt.Errorf("marshaling criteria: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO mirror_match_log (
			export_transaction_id, export_partition_year,
			import_transaction_id, import_partition_year,
			score, criteria, matched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		export.TransactionID, export.PartitionYear,
		imp.TransactionID, imp.PartitionYear,
		best.Score, string(criteriaJSON), now,
	); err != nil {
		return fmt.Errorf("inserting match log entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE shipments SET buyer_identity = ?, mirrored_at = ?
		WHERE transaction_id = ? AND partition_year = ? AND buyer_identity IS NULL`,
		*imp.BuyerIdentity, now,
		export.TransactionID, export.PartitionYear,
	); err != nil {
		return fmt.Errorf("propagating buyer identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing match for %s: %w", export.TransactionID, err)
	}
	return nil
}

// GetMatchLogEntry returns the audit row for one mirrored export, or an
// error when the export has never been matched.
func (s *Store) GetMatchLogEntry(ctx context.Context, exportTransactionID string) (*types.MirrorMatchLogEntry, error) {
	var (
		entry        types.MirrorMatchLogEntry
		criteriaJSON string
		matchedAt    string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT export_transaction_id, export_partition_year,
			import_transaction_id, import_partition_year,
			score, criteria, matched_at
		FROM mirror_match_log WHERE export_transaction_id = ?`,
		exportTransactionID,
	).Scan(
		&entry.ExportTransactionID, &entry.ExportPartitionYear,
		&entry.ImportTransactionID, &entry.ImportPartitionYear,
		&entry.Score, &criteriaJSON, &matchedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no mirror match recorded for export %s", exportTransactionID)
		}
		return nil, fmt.Errorf("reading match log entry: %w", err)
	}

	if err := json.Unmarshal([]byte(criteriaJSON), &entry.Criteria); err != nil {
		return nil, fmt.Errorf("parsing criteria for %s: %w", exportTransactionID, err)
	}
	if t, err := time.Parse(time.RFC3339, matchedAt); err == nil {
		entry.MatchedAt = t
	}

	return &entry, nil
}
