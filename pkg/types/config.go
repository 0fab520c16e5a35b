// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trade-mirror engine.
package types

// ScoreWeights holds the per-dimension weights of the match scorer. The
// defaults sum to 100, which keeps scores on a 0-100 scale; each weight is
// independently tunable.
type ScoreWeights struct {
	// Commodity is awarded for an exact 6-digit commodity code match.
	Commodity int `json:"commodity" yaml:"commodity"`

	// Quantity is awarded when quantities agree within the tolerance.
	Quantity int `json:"quantity" yaml:"quantity"`

	// DateLag is awarded when the import trails the export within the lag window.
	DateLag int `json:"date_lag" yaml:"date_lag"`

	// Container is awarded for a container ID match.
	Container int `json:"container" yaml:"container"`

	// Vessel is awarded for a vessel name match.
	Vessel int `json:"vessel" yaml:"vessel"`
}

// Total returns the maximum attainable score under these weights.
func (w ScoreWeights) Total() int {
	return w.Commodity + w.Quantity + w.DateLag + w.Container + w.Vessel
}

// MirrorConfig holds settings for a mirror run. Every parameter is a flat,
// independently overridable knob; none is coupled to another.
type MirrorConfig struct {
	// MinScore is the acceptance threshold (default 70).
	MinScore int `json:"min_score" yaml:"min_score"`

	// QtyTolerancePct is the permitted quantity deviation in percent (default 5).
	QtyTolerancePct float64 `json:"qty_tolerance_pct" yaml:"qty_tolerance_pct"`

	// MinLagDays and MaxLagDays bound the shipping lag window between an
	// export and its candidate import (defaults 15 and 45).
	MinLagDays int `json:"min_lag_days" yaml:"min_lag_days"`
	MaxLagDays int `json:"max_lag_days" yaml:"max_lag_days"`

	// ScoreTieDelta: when the top two candidates score within this delta of
	// each other the decision is ambiguous and no match is made (default 5).
	ScoreTieDelta int `json:"score_tie_delta" yaml:"score_tie_delta"`

	// BatchSize is the number of eligible exports fetched per page (default 5000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// CandidateCap bounds the candidate set per export (default 100).
	CandidateCap int `json:"candidate_cap" yaml:"candidate_cap"`

	// TopRoutes is the number of route aggregates attached to the run
	// summary (default 10).
	TopRoutes int `json:"top_routes" yaml:"top_routes"`

	// CountryFilters restricts eligibility scanning to these reporting
	// countries. Empty means no restriction.
	CountryFilters []string `json:"country_filters,omitempty" yaml:"country_filters,omitempty"`

	// Weights are the scorer weights (defaults 40/25/20/10/5).
	Weights ScoreWeights `json:"weights" yaml:"weights"`
}

// DefaultMirrorConfig returns the standard mirror run parameters.
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		MinScore:        70,
		QtyTolerancePct: 5.0,
		MinLagDays:      15,
		MaxLagDays:      45,
		ScoreTieDelta:   5,
		BatchSize:       5000,
		CandidateCap:    100,
		TopRoutes:       10,
		Weights: ScoreWeights{
			Commodity: 40,
			Quantity:  25,
			DateLag:   20,
			Container: 10,
			Vessel:    5,
		},
	}
}

// AIConfig holds shared settings for calls to a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}
