package linker

import (
	"sort"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/assoc"
)

// Fork is a duplicate association resolved by minting a new trajectory
// identity: Traj is a full copy of the contested trajectory's history under a
// fresh id, and Match is the competing continuation the fork absorbs.
type Fork struct {
	Traj  *alert.Trajectory
	Match assoc.Match
}

// ResolveDuplicates reconciles matches that claim the same left-hand
// trajectory. Matches are ordered by (trajectory id, candidate id) — the
// documented deterministic tie-break — and the first match per trajectory
// keeps the original id; every later one becomes a Fork. The fork carries the
// original's complete observation history, re-stamped under the new id, with
// orbital elements reset since its membership diverges. Both sides of every
// conflict survive as independent hypotheses for the acceleration filter to
// adjudicate later.
func ResolveDuplicates(matches []assoc.Match, trajs alert.Table, alloc *IDAllocator) (kept []assoc.Match, forks []Fork) {
	if len(matches) == 0 {
		return nil, nil
	}

	ordered := make([]assoc.Match, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TrajID != ordered[j].TrajID {
			return ordered[i].TrajID < ordered[j].TrajID
		}
		return ordered[i].Cand.CandID < ordered[j].Cand.CandID
	})

	claimed := make(map[int64]bool)
	for _, m := range ordered {
		if !claimed[m.TrajID] {
			claimed[m.TrajID] = true
			kept = append(kept, m)
			continue
		}
		original, ok := trajs[m.TrajID]
		if !ok {
			// Left side vanished mid-pass; nothing to fork from.
			continue
		}
		fork := original.Clone(alloc.Next())
		fork.NotUpdated = false
		forks = append(forks, Fork{Traj: fork, Match: m})
	}
	return kept, forks
}
