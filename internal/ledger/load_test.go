// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

const shipmentCSV = `transaction_id,partition_year,direction,reporting_country,origin_country,destination_country,commodity_code,quantity_kg,shipment_date,vessel_name,container_id,declared_buyer_name,buyer_identity
E1,2024,EXPORT,VIETNAM,VIETNAM,KENYA,090111,20000,2024-01-10,MSC AURORA,MSCU1234567,TO THE ORDER OF BANK X,
I1,2024,IMPORT,KENYA,VIETNAM,,090111,20400,2024-01-30,MSC AURORA,MSCU1234567,,buyer-42
E2,2023,export,BRAZIL,,GERMANY,090112,,2023-06-01,,,,
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileCSV(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	n, err := store.LoadFile(ctx, writeTemp(t, "shipments.csv", shipmentCSV))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("loaded = %d, want 3", n)
	}

	e1, err := store.GetShipment(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}
	if !e1.HiddenBuyer {
		t.Error("E1 placeholder consignee should be flagged hidden")
	}
	if e1.QuantityKg == nil || *e1.QuantityKg != 20000 {
		t.Errorf("E1 quantity = %v", e1.QuantityKg)
	}

	e2, err := store.GetShipment(ctx, "E2")
	if err != nil {
		t.Fatal(err)
	}
	if e2.Direction != types.DirectionExport {
		t.Errorf("direction should be upper-cased, got %q", e2.Direction)
	}
	if e2.QuantityKg != nil {
		t.Errorf("empty quantity should stay nil, got %v", e2.QuantityKg)
	}
	if !e2.HiddenBuyer {
		t.Error("blank consignee should be flagged hidden")
	}

	i1, err := store.GetShipment(ctx, "I1")
	if err != nil {
		t.Fatal(err)
	}
	if i1.BuyerIdentity == nil || *i1.BuyerIdentity != "buyer-42" {
		t.Errorf("I1 buyer = %v", i1.BuyerIdentity)
	}
}

func TestLoadFileCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			"missing column",
			"transaction_id,direction\nE1,EXPORT\n",
			"missing column",
		},
		{
			"bad date",
			strings.Replace(shipmentCSV, "2024-01-10", "10/01/2024", 1),
			"shipment_date",
		},
		{
			"bad quantity",
			strings.Replace(shipmentCSV, "20400", "lots", 1),
			"quantity_kg",
		},
		{
			"bad direction",
			strings.Replace(shipmentCSV, "IMPORT", "TRANSIT", 1),
			"invalid direction",
		},
		{
			"empty file",
			"",
			"empty file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			_, err := store.LoadFile(context.Background(), writeTemp(t, "bad.csv", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("err = %v, want mention of %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	records := []types.ShipmentRecord{sampleExport("E1"), sampleImport("I1")}
	data, err := yaml.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}

	n, err := store.LoadFile(ctx, writeTemp(t, "shipments.yaml", string(data)))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("loaded = %d, want 2", n)
	}

	e1, err := store.GetShipment(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}
	if !e1.HiddenBuyer {
		t.Error("hidden flag should be computed on YAML load too")
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	store := testStore(t)
	_, err := store.LoadFile(context.Background(), writeTemp(t, "shipments.xml", "<x/>"))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v, want unsupported format", err)
	}
}
