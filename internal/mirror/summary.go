// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"fmt"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// RunSummary accumulates the outcome of one mirror run. Created at run
// start, folded into per export, and returned at run end; it is never
// persisted itself, only the match log rows are durable.
type RunSummary struct {
	// ExportsEligible is the eligible-export count at run start;
	// ExportsScanned is how many the run actually visited.
	ExportsEligible int `json:"exports_eligible" yaml:"exports_eligible"`
	ExportsScanned  int `json:"exports_scanned" yaml:"exports_scanned"`

	// CandidatesEvaluated counts every (export, candidate) pair scored.
	CandidatesEvaluated int `json:"candidates_evaluated" yaml:"candidates_evaluated"`

	MatchesAccepted      int `json:"matches_accepted" yaml:"matches_accepted"`
	RejectedNoCandidates int `json:"rejected_no_candidates" yaml:"rejected_no_candidates"`
	RejectedLowScore     int `json:"rejected_low_score" yaml:"rejected_low_score"`
	RejectedAmbiguous    int `json:"rejected_ambiguous" yaml:"rejected_ambiguous"`

	// ScoreHistogram buckets every evaluated pair's score in 10-point bands.
	ScoreHistogram map[string]int `json:"score_histogram" yaml:"score_histogram"`

	// TopRoutes is the busiest-routes rollup read from the match log after
	// the last batch.
	TopRoutes []types.RouteStat `json:"top_routes" yaml:"top_routes"`

	// Errors holds per-export failure descriptions. A non-empty list means
	// the run completed degraded, not that it failed.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewRunSummary returns an empty summary ready to accumulate into.
func NewRunSummary() *RunSummary {
	return &RunSummary{ScoreHistogram: make(map[string]int)}
}

// HasErrors reports whether any per-export failure occurred.
func (s *RunSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

// observeScore folds one candidate score into the histogram.
func (s *RunSummary) observeScore(score int) {
	s.ScoreHistogram[scoreBucket(score)]++
}

// observeDecision folds one non-accepted verdict into the rejection
// counters. Accepted matches are counted separately, after the recorder
// succeeds.
func (s *RunSummary) observeDecision(d types.MatchDecision) {
	switch d.Reason {
	case types.RejectNoCandidates:
		s.RejectedNoCandidates++
	case types.RejectLowScore:
		s.RejectedLowScore++
	case types.RejectAmbiguous:
		s.RejectedAmbiguous++
	}
}

// addError appends a per-export failure description.
func (s *RunSummary) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// scoreBucket maps a 0-100 score to its 10-point histogram band. The top
// band absorbs 100 so perfect scores do not get a band of their own.
func scoreBucket(score int) string {
	lo := score / 10 * 10
	if lo >= 90 {
		return "90-100"
	}
	return fmt.Sprintf("%d-%d", lo, lo+9)
}
