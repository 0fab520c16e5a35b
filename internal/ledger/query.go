// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// eligibleWhere appends the eligibility predicate to qb: hidden-buyer
// exports with no mirror match log entry, optionally restricted to a set of
// reporting countries. All values travel as bind parameters.
func eligibleWhere(qb *strings.Builder, args *[]any, countries []string) {
	qb.WriteString(` WHERE direction = 'EXPORT'
		AND hidden_buyer = 1
		AND NOT EXISTS (
			SELECT 1 FROM mirror_match_log m
			WHERE m.export_transaction_id = shipments.transaction_id
		)`)

	if len(countries) > 0 {
		qb.WriteString(` AND reporting_country IN (?` +
			strings.Repeat(", ?", len(countries)-1) + `)`)
		for _, c := range countries {
			*args = append(*args, c)
		}
	}
}

// CountEligibleExports returns the number of exports the scanner would
// visit: hidden-buyer exports not yet present in the match log.
func (s *Store) CountEligibleExports(ctx context.Context, countries []string) (int, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT COUNT(*) FROM shipments`)
	eligibleWhere(&qb, &args, countries)

	var count int
	if err := s.db.QueryRowContext(ctx, qb.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting eligible exports: %w", err)
	}
	return count, nil
}

// EligibleExports returns one page of eligible exports in stable
// transaction-ID order, starting strictly after afterID. Keyset pagination
// keeps batches deterministic and resumable: exports mirrored by an earlier
// batch simply stop matching the predicate without shifting later pages.
func (s *Store) EligibleExports(ctx context.Context, countries []string, afterID string, limit int) ([]types.ShipmentRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(shipmentSelect)
	eligibleWhere(&qb, &args, countries)
	qb.WriteString(` AND transaction_id > ?`)
	args = append(args, afterID)
	qb.WriteString(` ORDER BY transaction_id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("scanning eligible exports: %w", err)
	}
	defer rows.Close()

	var records []types.ShipmentRecord
	for rows.Next() {
		rec, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning export row: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// FindCandidates returns import records that could plausibly be the export's
// opposite-direction counterpart, capped at cfg.CandidateCap. Every filter
// here is hard: a candidate failing any of them is never scored.
//
//   - direction IMPORT, reported by the export's destination economy;
//   - same origin (export's reporting country when its origin is absent);
//   - same 6-digit commodity code;
//   - a resolved buyer identity to propagate;
//   - shipment date inside the configured lag window;
//   - quantity within tolerance, when the export declares a quantity.
//
// The lag and quantity windows are re-checked by the scorer for the audit
// breakdown; here they bound the candidate set.
func (s *Store) FindCandidates(ctx context.Context, export types.ShipmentRecord, cfg types.MirrorConfig) ([]types.ShipmentRecord, error) {
	origin := export.OriginCountry
	if origin == "" {
		origin = export.ReportingCountry
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(shipmentSelect)
	qb.WriteString(` WHERE direction = 'IMPORT'
		AND reporting_country = ?
		AND origin_country = ?
		AND commodity_code = ?
		AND buyer_identity IS NOT NULL
		AND shipment_date BETWEEN ? AND ?`)
	args = append(args,
		export.DestinationCountry,
		origin,
		export.CommodityCode,
		export.ShipmentDate.AddDate(0, 0, cfg.MinLagDays).Format(dateLayout),
		export.ShipmentDate.AddDate(0, 0, cfg.MaxLagDays).Format(dateLayout),
	)

	if export.QuantityKg != nil && *export.QuantityKg > 0 {
		tolerance := *export.QuantityKg * cfg.QtyTolerancePct / 100
		qb.WriteString(` AND quantity_kg BETWEEN ? AND ?`)
		args = append(args, *export.QuantityKg-tolerance, *export.QuantityKg+tolerance)
	}

	qb.WriteString(` ORDER BY transaction_id LIMIT ?`)
	args = append(args, cfg.CandidateCap)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("finding candidates for %s: %w", export.TransactionID, err)
	}
	defer rows.Close()

	var candidates []types.ShipmentRecord
	for rows.Next() {
		rec, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate row: %w", err)
		}
		candidates = append(candidates, *rec)
	}

	return candidates, rows.Err()
}

// TopRoutes aggregates the persisted match log by origin, destination, and
// commodity of the mirrored export, returning the limit busiest routes.
// Read-only rollup; ties break on the route key for a stable order.
func (s *Store) TopRoutes(ctx context.Context, limit int) ([]types.RouteStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(e.origin_country, e.reporting_country),
			COALESCE(e.destination_country, ''),
			e.commodity_code,
			COUNT(*) AS matches
		FROM mirror_match_log m
		JOIN shipments e ON e.transaction_id = m.export_transaction_id
		GROUP BY 1, 2, 3
		ORDER BY matches DESC, 1, 2, 3
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregating routes: %w", err)
	}
	defer rows.Close()

	var routes []types.RouteStat
	for rows.Next() {
		var r types.RouteStat
		if err := rows.Scan(&r.OriginCountry, &r.DestinationCountry, &r.CommodityCode, &r.Matches); err != nil {
			return nil, fmt.Errorf("scanning route row: %w", err)
		}
		routes = append(routes, r)
	}

	return routes, rows.Err()
}

// LedgerStats holds ledger-level counts for operator visibility.
type LedgerStats struct {
	Exports      int `json:"exports" yaml:"exports"`
	Imports      int `json:"imports" yaml:"imports"`
	HiddenBuyers int `json:"hidden_buyers" yaml:"hidden_buyers"`
	Mirrored     int `json:"mirrored" yaml:"mirrored"`
}

// Stats returns record counts by direction, the hidden-buyer export count,
// and the number of match log entries.
func (s *Store) Stats(ctx context.Context) (LedgerStats, error) {
	var stats LedgerStats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM shipments WHERE direction = 'EXPORT'),
		(SELECT COUNT(*) FROM shipments WHERE direction = 'IMPORT'),
		(SELECT COUNT(*) FROM shipments WHERE direction = 'EXPORT' AND hidden_buyer = 1),
		(SELECT COUNT(*) FROM mirror_match_log)`,
	).Scan(&stats.Exports, &stats.Imports, &stats.HiddenBuyers, &stats.Mirrored)
	if err != nil {
		return LedgerStats{}, fmt.Errorf("reading ledger stats: %w", err)
	}
	return stats, nil
}
