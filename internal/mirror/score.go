// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"math"
	"strings"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// Score computes the weighted additive match score for one export/import
// pair plus the per-dimension breakdown. Pure function: no candidate is
// ever filtered here, so callers can log the breakdown for rejected pairs.
//
// A dimension whose inputs are absent is skipped: it contributes no points
// and its Matched field stays nil, which is distinct from checked-and-failed.
func Score(export, imp types.ShipmentRecord, cfg types.MirrorConfig) (int, types.MatchCriteria) {
	var (
		score    int
		criteria types.MatchCriteria
	)

	// Commodity code. Always checkable; equality is a precondition of the
	// candidate filter, but the result is recorded for score transparency.
	commodity := export.CommodityCode == imp.CommodityCode
	criteria.Commodity.Matched = &commodity
	if commodity {
		score += cfg.Weights.Commodity
	}

	// Quantity within tolerance.
	if export.QuantityKg != nil && *export.QuantityKg > 0 && imp.QuantityKg != nil {
		diffPct := math.Abs(*imp.QuantityKg-*export.QuantityKg) / *export.QuantityKg * 100
		matched := diffPct <= cfg.QtyTolerancePct
		criteria.Quantity.Matched = &matched
		criteria.Quantity.Deviation = &diffPct
		if matched {
			score += cfg.Weights.Quantity
		}
	}

	// Shipping lag inside the window.
	if !export.ShipmentDate.IsZero() && !imp.ShipmentDate.IsZero() {
		lagDays := int(imp.ShipmentDate.Sub(export.ShipmentDate).Hours() / 24)
		matched := lagDays >= cfg.MinLagDays && lagDays <= cfg.MaxLagDays
		deviation := float64(lagDays)
		criteria.DateLag.Matched = &matched
		criteria.DateLag.Deviation = &deviation
		if matched {
			score += cfg.Weights.DateLag
		}
	}

	if matched, ok := identifierMatch(export.ContainerID, imp.ContainerID); ok {
		criteria.Container.Matched = &matched
		if matched {
			score += cfg.Weights.Container
		}
	}

	if matched, ok := identifierMatch(export.VesselName, imp.VesselName); ok {
		criteria.Vessel.Matched = &matched
		if matched {
			score += cfg.Weights.Vessel
		}
	}

	return score, criteria
}

// identifierMatch compares two optional logistics identifiers with
// case-insensitive, whitespace-trimmed equality. ok is false when either
// side is absent, meaning the dimension cannot be checked.
func identifierMatch(a, b *string) (matched, ok bool) {
	if a == nil || b == nil {
		return false, false
	}
	left := strings.TrimSpace(*a)
	right := strings.TrimSpace(*b)
	if left == "" || right == "" {
		return false, false
	}
	return strings.EqualFold(left, right), true
}
