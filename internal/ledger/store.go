// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the denormalized shipment fact table and the
// mirror match log in SQLite, and serves the filtered scans the mirror
// engine runs against it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// dateLayout is the day-granularity storage format for shipment dates.
// ISO order keeps lexicographic and chronological comparison equivalent.
const dateLayout = "2006-01-02"

// Store manages the shipment ledger SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating the base
// schema if it does not exist. Derived columns are added separately by
// EnsureDerivedColumns.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shipments (
			transaction_id TEXT PRIMARY KEY,
			partition_year INTEGER NOT NULL,
			direction TEXT NOT NULL CHECK (direction IN ('EXPORT', 'IMPORT')),
			reporting_country TEXT NOT NULL,
			origin_country TEXT,
			destination_country TEXT,
			commodity_code TEXT NOT NULL,
			quantity_kg REAL CHECK (quantity_kg IS NULL OR quantity_kg > 0),
			shipment_date TEXT NOT NULL,
			vessel_name TEXT,
			container_id TEXT,
			declared_buyer_name TEXT,
			buyer_identity TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_mirror
			ON shipments(direction, reporting_country, commodity_code, shipment_date)`,
		`CREATE TABLE IF NOT EXISTS mirror_match_log (
			export_transaction_id TEXT PRIMARY KEY,
			export_partition_year INTEGER NOT NULL,
			import_transaction_id TEXT NOT NULL,
			import_partition_year INTEGER NOT NULL,
			score INTEGER NOT NULL,
			criteria TEXT NOT NULL,
			matched_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// EnsureDerivedColumns adds the hidden_buyer flag and the mirrored_at marker
// to the shipments table if they are missing, then backfills hidden_buyer
// for rows that have never been classified. Idempotent; intended as the
// one-time preparation step of a mirror run.
func (s *Store) EnsureDerivedColumns(ctx context.Context) error {
	for _, col := range []struct{ name, decl string }{
		{"hidden_buyer", "hidden_buyer INTEGER"},
		{"mirrored_at", "mirrored_at TEXT"},
	} {
		exists, err := s.hasColumn(ctx, "shipments", col.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf("ALTER TABLE shipments ADD COLUMN %s", col.decl),
		); err != nil {
			return fmt.Errorf("adding column %s: %w", col.name, err)
		}
	}

	// Classify rows added before the column existed (or loaded by an older
	// writer). Rows already classified keep their value.
	stmt := fmt.Sprintf(
		"UPDATE shipments SET hidden_buyer = %s WHERE hidden_buyer IS NULL",
		hiddenBuyerExpr("declared_buyer_name"),
	)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("backfilling hidden_buyer: %w", err)
	}

	return nil
}

// hasColumn reports whether table has a column named col, via PRAGMA
// table_info introspection.
func (s *Store) hasColumn(ctx context.Context, table, col string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("introspecting %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, fmt.Errorf("scanning table_info row: %w", err)
		}
		if name == col {
			return true, nil
		}
	}

	return false, rows.Err()
}

// InsertShipments bulk-inserts shipment records in one transaction,
// computing the hidden-buyer flag for each. Records whose transaction ID
// already exists are skipped. Returns the number of rows inserted.
func (s *Store) InsertShipments(ctx context.Context, records []types.ShipmentRecord) (int, error) {
	if err := s.EnsureDerivedColumns(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO shipments (
			transaction_id, partition_year, direction, reporting_country,
			origin_country, destination_country, commodity_code, quantity_kg,
			shipment_date, vessel_name, container_id, declared_buyer_name,
			buyer_identity, hidden_buyer
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.TransactionID, rec.PartitionYear, string(rec.Direction),
			rec.ReportingCountry,
			nullString(rec.OriginCountry), nullString(rec.DestinationCountry),
			rec.CommodityCode, nullFloat(rec.QuantityKg),
			rec.ShipmentDate.Format(dateLayout),
			nullStringPtr(rec.VesselName), nullStringPtr(rec.ContainerID),
			nullStringPtr(rec.DeclaredBuyerName), nullStringPtr(rec.BuyerIdentity),
			boolInt(HiddenBuyer(rec.DeclaredBuyerName)),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting shipment %s: %w", rec.TransactionID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insert: %w", err)
	}
	return inserted, nil
}

// GetShipment returns one shipment by transaction ID, or sql.ErrNoRows
// wrapped with context when absent.
func (s *Store) GetShipment(ctx context.Context, transactionID string) (*types.ShipmentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		shipmentSelect+` WHERE transaction_id = ?`, transactionID)

	rec, err := scanShipment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("shipment %s not found", transactionID)
		}
		return nil, fmt.Errorf("reading shipment %s: %w", transactionID, err)
	}
	return rec, nil
}

// --- scan and null helpers ---

// shipmentSelect is the shared column list for shipment reads. Keep in sync
// with scanShipment.
const shipmentSelect = `SELECT transaction_id, partition_year, direction,
	reporting_country, origin_country, destination_country, commodity_code,
	quantity_kg, shipment_date, vessel_name, container_id,
	declared_buyer_name, buyer_identity,
	COALESCE(hidden_buyer, 0)
FROM shipments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*types.ShipmentRecord, error) {
	var (
		rec          types.ShipmentRecord
		direction    string
		origin       sql.NullString
		destination  sql.NullString
		quantity     sql.NullFloat64
		dateStr      string
		vessel       sql.NullString
		container    sql.NullString
		declared     sql.NullString
		buyer        sql.NullString
		hidden       int
	)

	if err := row.Scan(
		&rec.TransactionID, &rec.PartitionYear, &direction,
		&rec.ReportingCountry, &origin, &destination, &rec.CommodityCode,
		&quantity, &dateStr, &vessel, &container, &declared, &buyer, &hidden,
	); err != nil {
		return nil, err
	}

	rec.Direction = types.Direction(direction)
	rec.OriginCountry = origin.String
	rec.DestinationCountry = destination.String
	rec.HiddenBuyer = hidden != 0

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing shipment_date %q: %w", dateStr, err)
	}
	rec.ShipmentDate = date

	if quantity.Valid {
		q := quantity.Float64
		rec.QuantityKg = &q
	}
	for _, pair := range []struct {
		src sql.NullString
		dst **string
	}{
		{vessel, &rec.VesselName},
		{container, &rec.ContainerID},
		{declared, &rec.DeclaredBuyerName},
		{buyer, &rec.BuyerIdentity},
	} {
		if pair.src.Valid {
			v := pair.src.String
			*pair.dst = &v
		}
	}

	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
