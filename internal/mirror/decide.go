// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"sort"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// Decide picks the verdict for one export given its scored candidates.
// Checks run in order: an empty candidate set rejects outright; a best score
// under the threshold rejects as low-score; and with two or more candidates
// a top-two gap at or under the tie delta rejects as ambiguous, even when
// the best score clears the threshold. Mirroring to the wrong buyer is
// worse than not mirroring, so indistinguishable leaders mean no match.
//
// Only the top two candidates enter the tie comparison; a third candidate
// inside the delta does not widen the check.
func Decide(scored []types.ScoredCandidate, cfg types.MirrorConfig) types.MatchDecision {
	if len(scored) == 0 {
		return types.MatchDecision{Reason: types.RejectNoCandidates}
	}

	ranked := make([]types.ScoredCandidate, len(scored))
	copy(ranked, scored)
	// Import transaction ID breaks score ties so a run is deterministic for
	// a fixed ledger snapshot.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Candidate.Import.TransactionID < ranked[j].Candidate.Import.TransactionID
	})

	best := ranked[0]
	if best.Score < cfg.MinScore {
		return types.MatchDecision{Reason: types.RejectLowScore}
	}

	if len(ranked) >= 2 && best.Score-ranked[1].Score <= cfg.ScoreTieDelta {
		return types.MatchDecision{Reason: types.RejectAmbiguous}
	}

	return types.MatchDecision{Best: &best}
}
