// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// LoadFile bulk-loads shipment records from a CSV or YAML file into the
// store, dispatching on the file extension. Returns the number of rows
// inserted; rows whose transaction ID already exists are skipped.
func (s *Store) LoadFile(ctx context.Context, path string) (int, error) {
	var (
		records []types.ShipmentRecord
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = readCSV(path)
	case ".yaml", ".yml":
		records, err = readYAML(path)
	default:
		return 0, fmt.Errorf("unsupported ledger file format %q: use .csv or .yaml", ext)
	}
	if err != nil {
		return 0, err
	}

	return s.InsertShipments(ctx, records)
}

// csvColumns are the required header names of a shipment CSV, matched by
// name so column order does not matter. Optional fields may be empty.
var csvColumns = []string{
	"transaction_id", "partition_year", "direction", "reporting_country",
	"origin_country", "destination_country", "commodity_code", "quantity_kg",
	"shipment_date", "vessel_name", "container_id", "declared_buyer_name",
	"buyer_identity",
}

func readCSV(path string) ([]types.ShipmentRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	field := func(row []string, name string) string {
		return strings.TrimSpace(row[col[name]])
	}

	records := make([]types.ShipmentRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2

		year, err := strconv.Atoi(field(row, "partition_year"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: partition_year: %w", path, line, err)
		}
		date, err := time.Parse(dateLayout, field(row, "shipment_date"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: shipment_date: %w", path, line, err)
		}

		rec := types.ShipmentRecord{
			TransactionID:      field(row, "transaction_id"),
			PartitionYear:      year,
			Direction:          types.Direction(strings.ToUpper(field(row, "direction"))),
			ReportingCountry:   field(row, "reporting_country"),
			OriginCountry:      field(row, "origin_country"),
			DestinationCountry: field(row, "destination_country"),
			CommodityCode:      field(row, "commodity_code"),
			ShipmentDate:       date,
		}

		if v := field(row, "quantity_kg"); v != "" {
			qty, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: quantity_kg: %w", path, line, err)
			}
			rec.QuantityKg = &qty
		}
		for _, opt := range []struct {
			name string
			dst  **string
		}{
			{"vessel_name", &rec.VesselName},
			{"container_id", &rec.ContainerID},
			{"declared_buyer_name", &rec.DeclaredBuyerName},
			{"buyer_identity", &rec.BuyerIdentity},
		} {
			if v := field(row, opt.name); v != "" {
				value := v
				*opt.dst = &value
			}
		}

		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func readYAML(path string) ([]types.ShipmentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []types.ShipmentRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for i, rec := range records {
		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", path, i, err)
		}
	}

	return records, nil
}

func validateRecord(rec types.ShipmentRecord) error {
	switch {
	case rec.TransactionID == "":
		return fmt.Errorf("missing transaction_id")
	case rec.Direction != types.DirectionExport && rec.Direction != types.DirectionImport:
		return fmt.Errorf("invalid direction %q", rec.Direction)
	case rec.ReportingCountry == "":
		return fmt.Errorf("missing reporting_country")
	case rec.CommodityCode == "":
		return fmt.Errorf("missing commodity_code")
	case rec.ShipmentDate.IsZero():
		return fmt.Errorf("missing shipment_date")
	case rec.QuantityKg != nil && *rec.QuantityKg <= 0:
		return fmt.Errorf("quantity_kg must be positive when present")
	}
	return nil
}
