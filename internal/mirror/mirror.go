// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror implements the Global Mirror Algorithm: inferring the true
// buyer behind an export whose declared consignee is a legal placeholder,
// by locating the corresponding import in the opposite-direction ledger and
// borrowing its resolved buyer identity. The engine is a single-threaded
// batch pipeline (scan, find, score, decide, record) with concurrency
// safety delegated to the store's idempotency guards.
package mirror

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/trade-mirror/internal/ledger"
	"github.com/pdiddy/trade-mirror/pkg/types"
)

// Engine drives mirror runs against one ledger store. Stateless between
// runs; the store handle and configuration are the only dependencies.
type Engine struct {
	store *ledger.Store
	cfg   types.MirrorConfig
}

// New returns an engine bound to store with the given run parameters.
func New(store *ledger.Store, cfg types.MirrorConfig) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Run executes one full mirror pass and returns its summary. Progress lines
// are written to w as batches complete.
//
// Schema preparation and the eligibility count are fatal on failure; any
// failure scoped to a single export is appended to the summary's error list
// and the run continues. Re-running over an already-mirrored ledger is a
// no-op: mirrored exports carry match log entries and drop out of the
// eligible set.
func (e *Engine) Run(ctx context.Context, w io.Writer) (*RunSummary, error) {
	if err := e.store.EnsureDerivedColumns(ctx); err != nil {
		return nil, fmt.Errorf("preparing schema: %w", err)
	}

	summary := NewRunSummary()

	eligible, err := e.store.CountEligibleExports(ctx, e.cfg.CountryFilters)
	if err != nil {
		return nil, fmt.Errorf("counting eligible exports: %w", err)
	}
	summary.ExportsEligible = eligible
	fmt.Fprintf(w, "eligible exports: %d\n", eligible)
	if eligible == 0 {
		return summary, nil
	}

	afterID := ""
	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		batch, err := e.store.EligibleExports(ctx, e.cfg.CountryFilters, afterID, e.cfg.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("scanning eligible exports: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, export := range batch {
			summary.ExportsScanned++
			e.processExport(ctx, export, summary)
		}

		afterID = batch[len(batch)-1].TransactionID
		fmt.Fprintf(w, "batch done: %d scanned, %d matched, %d errors\n",
			summary.ExportsScanned, summary.MatchesAccepted, len(summary.Errors))

		if len(batch) < e.cfg.BatchSize {
			break
		}
	}

	routes, err := e.store.TopRoutes(ctx, e.cfg.TopRoutes)
	if err != nil {
		summary.addError("aggregating routes: %v", err)
	} else {
		summary.TopRoutes = routes
	}

	fmt.Fprintf(w, "run complete: %d/%d exports matched (%d no candidates, %d low score, %d ambiguous)\n",
		summary.MatchesAccepted, summary.ExportsScanned,
		summary.RejectedNoCandidates, summary.RejectedLowScore, summary.RejectedAmbiguous)

	return summary, nil
}

// processExport runs the find → score → decide → record pipeline for one
// export. Failures stay scoped to this export.
func (e *Engine) processExport(ctx context.Context, export types.ShipmentRecord, summary *RunSummary) {
	candidates, err := e.store.FindCandidates(ctx, export, e.cfg)
	if err != nil {
		summary.addError("export %s: finding candidates: %v", export.TransactionID, err)
		return
	}

	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, imp := range candidates {
		score, criteria := Score(export, imp, e.cfg)
		summary.observeScore(score)
		scored = append(scored, types.ScoredCandidate{
			Candidate: types.MatchCandidate{Export: export, Import: imp},
			Score:     score,
			Criteria:  criteria,
		})
	}
	summary.CandidatesEvaluated += len(scored)

	decision := Decide(scored, e.cfg)
	if !decision.Accepted() {
		summary.observeDecision(decision)
		return
	}

	if err := e.store.RecordMatch(ctx, export, *decision.Best); err != nil {
		summary.addError("export %s: recording match: %v", export.TransactionID, err)
		return
	}
	summary.MatchesAccepted++
}
