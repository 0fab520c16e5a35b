// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"testing"
	"time"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// --- test helpers ---

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func coffeeExport() types.ShipmentRecord {
	return types.ShipmentRecord{
		TransactionID:      "E1",
		PartitionYear:      2024,
		Direction:          types.DirectionExport,
		ReportingCountry:   "VIETNAM",
		OriginCountry:      "VIETNAM",
		DestinationCountry: "KENYA",
		CommodityCode:      "090111",
		QuantityKg:         ptr(20000.0),
		ShipmentDate:       day("2024-01-10"),
		VesselName:         ptr("MSC AURORA"),
		ContainerID:        ptr("MSCU1234567"),
		DeclaredBuyerName:  ptr("TO THE ORDER OF BANK X"),
		HiddenBuyer:        true,
	}
}

func coffeeImport(id string) types.ShipmentRecord {
	return types.ShipmentRecord{
		TransactionID:    id,
		PartitionYear:    2024,
		Direction:        types.DirectionImport,
		ReportingCountry: "KENYA",
		OriginCountry:    "VIETNAM",
		CommodityCode:    "090111",
		QuantityKg:       ptr(20400.0),
		ShipmentDate:     day("2024-01-30"),
		VesselName:       ptr("MSC AURORA"),
		ContainerID:      ptr("MSCU1234567"),
		BuyerIdentity:    ptr("buyer-42"),
	}
}

func matchedIs(c types.CriterionResult, want bool) bool {
	return c.Matched != nil && *c.Matched == want
}

// --- tests ---

func TestScorePerfectMatch(t *testing.T) {
	cfg := types.DefaultMirrorConfig()
	score, criteria := Score(coffeeExport(), coffeeImport("I1"), cfg)

	if score != 100 {
		t.Fatalf("score = %d, want 100", score)
	}
	for name, c := range map[string]types.CriterionResult{
		"commodity": criteria.Commodity,
		"quantity":  criteria.Quantity,
		"date_lag":  criteria.DateLag,
		"container": criteria.Container,
		"vessel":    criteria.Vessel,
	} {
		if !matchedIs(c, true) {
			t.Errorf("%s: matched = %v, want true", name, c.Matched)
		}
	}

	if criteria.Quantity.Deviation == nil || *criteria.Quantity.Deviation != 2.0 {
		t.Errorf("quantity deviation = %v, want 2%%", criteria.Quantity.Deviation)
	}
	if criteria.DateLag.Deviation == nil || *criteria.DateLag.Deviation != 20 {
		t.Errorf("date lag deviation = %v, want 20 days", criteria.DateLag.Deviation)
	}
}

func TestScoreCommodityOnly(t *testing.T) {
	cfg := types.DefaultMirrorConfig()

	imp := coffeeImport("I2")
	imp.QuantityKg = ptr(30000.0) // +50%, outside tolerance
	imp.ShipmentDate = day("2024-06-01")
	imp.VesselName = ptr("EVER GIVEN")
	imp.ContainerID = ptr("TCLU7654321")

	score, criteria := Score(coffeeExport(), imp, cfg)
	if score != 40 {
		t.Fatalf("score = %d, want 40 (commodity only)", score)
	}
	for name, c := range map[string]types.CriterionResult{
		"quantity":  criteria.Quantity,
		"date_lag":  criteria.DateLag,
		"container": criteria.Container,
		"vessel":    criteria.Vessel,
	} {
		if !matchedIs(c, false) {
			t.Errorf("%s: matched = %v, want false (checked and failed)", name, c.Matched)
		}
	}
}

func TestScoreDimensions(t *testing.T) {
	cfg := types.DefaultMirrorConfig()

	tests := []struct {
		name   string
		mutate func(e, i *types.ShipmentRecord)
		score  int
		check  func(t *testing.T, c types.MatchCriteria)
	}{
		{
			name:   "quantity outside tolerance still scores the rest",
			mutate: func(e, i *types.ShipmentRecord) { i.QuantityKg = ptr(30000.0) },
			score:  75,
			check: func(t *testing.T, c types.MatchCriteria) {
				if !matchedIs(c.Quantity, false) {
					t.Errorf("quantity matched = %v, want false", c.Quantity.Matched)
				}
				if c.Quantity.Deviation == nil || *c.Quantity.Deviation != 50.0 {
					t.Errorf("quantity deviation = %v, want 50%%", c.Quantity.Deviation)
				}
			},
		},
		{
			name:   "missing quantity is skipped, not failed",
			mutate: func(e, i *types.ShipmentRecord) { i.QuantityKg = nil },
			score:  75,
			check: func(t *testing.T, c types.MatchCriteria) {
				if c.Quantity.Matched != nil {
					t.Errorf("quantity matched = %v, want nil (skipped)", c.Quantity.Matched)
				}
			},
		},
		{
			name:   "missing export quantity is skipped",
			mutate: func(e, i *types.ShipmentRecord) { e.QuantityKg = nil },
			score:  75,
			check: func(t *testing.T, c types.MatchCriteria) {
				if c.Quantity.Matched != nil {
					t.Errorf("quantity matched = %v, want nil (skipped)", c.Quantity.Matched)
				}
			},
		},
		{
			name:   "lag outside window fails the date dimension",
			mutate: func(e, i *types.ShipmentRecord) { i.ShipmentDate = day("2024-04-01") },
			score:  80,
			check: func(t *testing.T, c types.MatchCriteria) {
				if !matchedIs(c.DateLag, false) {
					t.Errorf("date lag matched = %v, want false", c.DateLag.Matched)
				}
			},
		},
		{
			name: "container and vessel compare loosely",
			mutate: func(e, i *types.ShipmentRecord) {
				i.ContainerID = ptr("  mscu1234567 ")
				i.VesselName = ptr("msc aurora")
			},
			score: 100,
			check: func(t *testing.T, c types.MatchCriteria) {
				if !matchedIs(c.Container, true) || !matchedIs(c.Vessel, true) {
					t.Error("trimmed case-insensitive identifiers should match")
				}
			},
		},
		{
			name: "missing identifiers are skipped",
			mutate: func(e, i *types.ShipmentRecord) {
				i.ContainerID = nil
				e.VesselName = nil
			},
			score: 85,
			check: func(t *testing.T, c types.MatchCriteria) {
				if c.Container.Matched != nil || c.Vessel.Matched != nil {
					t.Error("absent identifiers should leave dimensions unchecked")
				}
			},
		},
		{
			name:   "commodity mismatch recorded even though filters preclude it",
			mutate: func(e, i *types.ShipmentRecord) { i.CommodityCode = "090112" },
			score:  60,
			check: func(t *testing.T, c types.MatchCriteria) {
				if !matchedIs(c.Commodity, false) {
					t.Errorf("commodity matched = %v, want false", c.Commodity.Matched)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			export := coffeeExport()
			imp := coffeeImport("I1")
			tt.mutate(&export, &imp)

			score, criteria := Score(export, imp, cfg)
			if score != tt.score {
				t.Errorf("score = %d, want %d", score, tt.score)
			}
			tt.check(t, criteria)
		})
	}
}

// TestScoreEqualsSumOfMatchedWeights checks the transparency property: the
// score is exactly the sum of the weights of dimensions marked true.
func TestScoreEqualsSumOfMatchedWeights(t *testing.T) {
	cfg := types.DefaultMirrorConfig()

	variants := []func(e, i *types.ShipmentRecord){
		func(e, i *types.ShipmentRecord) {},
		func(e, i *types.ShipmentRecord) { i.QuantityKg = ptr(31000.0) },
		func(e, i *types.ShipmentRecord) { i.QuantityKg = nil; i.VesselName = nil },
		func(e, i *types.ShipmentRecord) { i.ShipmentDate = day("2024-06-01") },
		func(e, i *types.ShipmentRecord) { e.ContainerID = nil; i.CommodityCode = "999999" },
		func(e, i *types.ShipmentRecord) { e.QuantityKg = nil; e.VesselName = nil; e.ContainerID = nil },
	}

	for n, mutate := range variants {
		export := coffeeExport()
		imp := coffeeImport("I1")
		mutate(&export, &imp)

		score, criteria := Score(export, imp, cfg)
		if score < 0 || score > 100 {
			t.Errorf("variant %d: score %d out of bounds", n, score)
		}

		sum := 0
		for _, dim := range []struct {
			c      types.CriterionResult
			weight int
		}{
			{criteria.Commodity, cfg.Weights.Commodity},
			{criteria.Quantity, cfg.Weights.Quantity},
			{criteria.DateLag, cfg.Weights.DateLag},
			{criteria.Container, cfg.Weights.Container},
			{criteria.Vessel, cfg.Weights.Vessel},
		} {
			if matchedIs(dim.c, true) {
				sum += dim.weight
			}
		}
		if score != sum {
			t.Errorf("variant %d: score %d != matched-weight sum %d", n, score, sum)
		}
	}
}
