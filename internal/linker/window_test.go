package linker

import (
	"testing"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/testutil"
)

func TestPartitionWindow_ArchivesStaleTrajectories(t *testing.T) {
	trajs := alert.NewTable(
		testutil.Traj(1, testutil.Obs(10, 0, 2, 2459002.1)),  // 8 nights stale
		testutil.Traj(2, testutil.Obs(10, 0, 8, 2459008.1)),  // 2 nights stale
		testutil.Traj(3, testutil.Obs(10, 0, 5, 2459005.1)),  // exactly at horizon
	)
	active, archived, _, _ := PartitionWindow(trajs, nil, 10, 5, 5)

	if _, ok := archived[1]; !ok {
		t.Error("trajectory 1 should be archived")
	}
	if _, ok := active[2]; !ok {
		t.Error("trajectory 2 should stay active")
	}
	// Gap of exactly the horizon stays active; only strictly older archives.
	if _, ok := active[3]; !ok {
		t.Error("trajectory at the horizon boundary should stay active")
	}
	if active.Len()+archived.Len() != 3 {
		t.Errorf("partition lost trajectories: %d + %d", active.Len(), archived.Len())
	}
}

func TestPartitionWindow_DropsStaleObservations(t *testing.T) {
	obs := alert.ObsSet{
		testutil.Obs(10, 0, 2, 2459002.1),
		testutil.Obs(11, 0, 9, 2459009.1),
	}
	_, _, kept, dropped := PartitionWindow(alert.NewTable(), obs, 10, 5, 5)
	if len(kept) != 1 || kept[0].Nid != 9 {
		t.Errorf("kept = %+v, want only nid 9", kept)
	}
	if len(dropped) != 1 || dropped[0].Nid != 2 {
		t.Errorf("dropped = %+v, want only nid 2", dropped)
	}
}
