package linker

import (
	"testing"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/assoc"
	"github.com/skytrack-data/linkage.report/internal/testutil"
)

func match(trajID, candID int64, jd float64) assoc.Match {
	o := testutil.Obs(20, 0, 6, jd)
	o.CandID = candID
	return assoc.Match{TrajID: trajID, Cand: o, TmpID: alert.NoTrajID}
}

func TestResolveDuplicates_NoConflict(t *testing.T) {
	trajs := alert.NewTable(
		testutil.Traj(1, testutil.Obs(10, 0, 5, 2459005.1)),
		testutil.Traj(2, testutil.Obs(11, 0, 5, 2459005.2)),
	)
	alloc := NewIDAllocator(trajs)
	kept, forks := ResolveDuplicates([]assoc.Match{match(1, 900, 2459006.1), match(2, 901, 2459006.1)}, trajs, &alloc)
	if len(kept) != 2 || len(forks) != 0 {
		t.Fatalf("kept=%d forks=%d, want 2/0", len(kept), len(forks))
	}
}

func TestResolveDuplicates_KForksForKPlusOneMatches(t *testing.T) {
	// One trajectory contested by four candidates: 1 kept + 3 forks.
	trajs := alert.NewTable(testutil.Traj(5, testutil.Obs(10, 0, 5, 2459005.1), testutil.Obs(10.1, 0, 5, 2459005.2)))
	alloc := NewIDAllocator(trajs)
	matches := []assoc.Match{
		match(5, 903, 2459006.1),
		match(5, 901, 2459006.1),
		match(5, 902, 2459006.1),
		match(5, 900, 2459006.1),
	}
	kept, forks := ResolveDuplicates(matches, trajs, &alloc)
	if len(kept) != 1 || len(forks) != 3 {
		t.Fatalf("kept=%d forks=%d, want 1/3", len(kept), len(forks))
	}
	// Deterministic tie-break: the lowest candidate id stays on the original.
	if kept[0].Cand.CandID != 900 {
		t.Errorf("original keeps candidate %d, want 900", kept[0].Cand.CandID)
	}
	seen := map[int64]bool{5: true}
	for _, f := range forks {
		if seen[f.Traj.ID] {
			t.Fatalf("fork id %d reused", f.Traj.ID)
		}
		seen[f.Traj.ID] = true
		if f.Traj.Len() != trajs[5].Len() {
			t.Errorf("fork carries %d observations, want full history of %d", f.Traj.Len(), trajs[5].Len())
		}
		if f.Traj.Elements.Computed {
			t.Error("fork elements must be reset")
		}
		if f.Traj.NotUpdated {
			t.Error("fork must be marked updated")
		}
		for _, o := range f.Traj.Obs {
			if o.TrajID != f.Traj.ID {
				t.Errorf("fork observation stamped %d, want %d", o.TrajID, f.Traj.ID)
			}
		}
	}
}

func TestResolveDuplicates_DeterministicUnderReordering(t *testing.T) {
	trajs := alert.NewTable(testutil.Traj(5, testutil.Obs(10, 0, 5, 2459005.1)))
	run := func(ms []assoc.Match) (int64, []int64) {
		alloc := NewIDAllocator(trajs)
		kept, forks := ResolveDuplicates(ms, trajs, &alloc)
		var forkIDs []int64
		for _, f := range forks {
			forkIDs = append(forkIDs, f.Traj.ID)
		}
		return kept[0].Cand.CandID, forkIDs
	}
	a1, af := run([]assoc.Match{match(5, 902, 1), match(5, 901, 1)})
	b1, bf := run([]assoc.Match{match(5, 901, 1), match(5, 902, 1)})
	if a1 != b1 {
		t.Errorf("kept candidate differs: %d vs %d", a1, b1)
	}
	if len(af) != len(bf) || af[0] != bf[0] {
		t.Errorf("fork ids differ: %v vs %v", af, bf)
	}
}
