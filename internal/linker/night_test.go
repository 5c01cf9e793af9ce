package linker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/config"
	"github.com/skytrack-data/linkage.report/internal/orbit"
	"github.com/skytrack-data/linkage.report/internal/testutil"
)

func newTestLinker() *Linker {
	return New(&orbit.Stub{}, &config.TuningConfig{})
}

func emptyState() State {
	return State{Trajectories: alert.NewTable()}
}

// eastward returns an observation of a mover travelling east along the
// equator at a steady 0.1 deg/day, offset by off degrees along its track.
func eastward(nid int, off float64) alert.Observation {
	jd := 2459000.0 + float64(nid) + off*10
	return testutil.Obs(10.0+0.1*float64(nid)+off, 0, nid, jd)
}

func TestProcessNight_FirstNightBuildsTracklets(t *testing.T) {
	l := newTestLinker()
	night := alert.ObsSet{
		eastward(1, 0),
		eastward(1, 0.008),
		testutil.Obs(80.0, 40, 1, 2459001.5), // isolated singleton
	}
	st, rep, err := l.ProcessNight(context.Background(), emptyState(), night, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, st.Trajectories.Len(), "the pair should form one tracklet trajectory")
	assert.Len(t, st.Observations, 1, "the singleton goes to pending")
	assert.Equal(t, 1, st.LastNid)
	assert.Equal(t, 1, rep.Nid)
	assert.NotEmpty(t, rep.RunID)
	assert.Len(t, rep.Passes, 4)

	for _, tr := range st.Trajectories {
		assert.True(t, tr.NotUpdated, "flags must be reset after the night")
	}
}

func TestProcessNight_TrajectoryAbsorbsTracklet(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(1, 0), eastward(2, 0)))
	st.LastNid = 2

	night := alert.ObsSet{eastward(3, 0), eastward(3, 0.008)}
	next, rep, err := l.ProcessNight(context.Background(), st, night, 3)
	require.NoError(t, err)

	require.Equal(t, 1, next.Trajectories.Len())
	tr := next.Trajectories[1]
	require.NotNil(t, tr, "the extended trajectory keeps its id")
	assert.Equal(t, 4, tr.Len())
	assert.True(t, tr.Elements.Computed, "4 points crosses the orbit limit")
	assert.Greater(t, rep.OrbitFits, 0)
	assert.Empty(t, next.Observations)
}

func TestProcessNight_ScaledCriteriaBridgeNightGaps(t *testing.T) {
	// Tail at nid 10, next night 13: criteria widen by a factor of 3, so a
	// 0.5 degree jump still matches.
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(9, 0), eastward(10, 0)))
	st.LastNid = 10

	night := alert.ObsSet{testutil.Obs(11.0+0.5, 0, 13, 2459013.0)}
	next, _, err := l.ProcessNight(context.Background(), st, night, 13)
	require.NoError(t, err)

	tr := next.Trajectories[1]
	require.NotNil(t, tr)
	assert.Equal(t, 3, tr.Len(), "gap-scaled criteria should accept the continuation")
}

func TestProcessNight_UnscaledGapRejects(t *testing.T) {
	// The same 0.5 degree jump one night later must not match.
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(9, 0), eastward(10, 0)))
	st.LastNid = 10

	night := alert.ObsSet{testutil.Obs(11.0+0.5, 0, 11, 2459011.0)}
	next, _, err := l.ProcessNight(context.Background(), st, night, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Trajectories[1].Len(), "0.5 degrees in one night exceeds the criterion")
}

func TestProcessNight_DuplicateForksBothSurvive(t *testing.T) {
	// Two tracklets both continue trajectory 1: the first keeps the id,
	// the second forks with the full history cloned.
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, testutil.Obs(10.0, 0, 1, 2459001.0), testutil.Obs(10.1, 0, 2, 2459002.0)))
	st.LastNid = 2

	night := alert.ObsSet{
		testutil.Obs(10.25, 0, 3, 2459003.00),
		testutil.Obs(10.258, 0, 3, 2459003.05),
		testutil.Obs(10.32, 0, 3, 2459003.01),
		testutil.Obs(10.328, 0, 3, 2459003.06),
	}
	next, _, err := l.ProcessNight(context.Background(), st, night, 3)
	require.NoError(t, err)

	require.Equal(t, 2, next.Trajectories.Len(), "want original plus fork")
	orig := next.Trajectories[1]
	require.NotNil(t, orig, "original id survives")
	assert.Equal(t, 4, orig.Len())

	var fork *alert.Trajectory
	for id, tr := range next.Trajectories {
		if id != 1 {
			fork = tr
		}
	}
	require.NotNil(t, fork)
	assert.Equal(t, 4, fork.Len(), "fork carries the cloned history plus its tracklet")
	assert.Greater(t, fork.ID, int64(1), "fork gets a fresh id")

	// No observation may be shared between the two hypotheses except the
	// cloned pre-fork history.
	require.NoError(t, next.Trajectories.Validate())
}

func TestProcessNight_PairsOldAndNewObservations(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Observations = alert.ObsSet{testutil.Obs(10.0, 0, 2, 2459002.0)}
	st.LastNid = 2

	night := alert.ObsSet{testutil.Obs(10.1, 0, 3, 2459003.0)}
	next, _, err := l.ProcessNight(context.Background(), st, night, 3)
	require.NoError(t, err)

	require.Equal(t, 1, next.Trajectories.Len(), "old+new pair should seed a trajectory")
	for _, tr := range next.Trajectories {
		assert.Equal(t, 2, tr.Len())
		assert.False(t, tr.Elements.Computed, "2 points is below the orbit limit")
	}
	assert.Empty(t, next.Observations)
}

func TestProcessNight_ComputedTrajectoriesAreFrozen(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	tr := testutil.Traj(1, eastward(1, 0), eastward(2, 0))
	tr.Elements = alert.Elements{A: 2.3, Computed: true}
	st.Trajectories.Insert(tr)
	st.LastNid = 2

	night := alert.ObsSet{eastward(3, 0)}
	next, _, err := l.ProcessNight(context.Background(), st, night, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, next.Trajectories[1].Len(), "fitted trajectories are not extended")
	assert.Len(t, next.Observations, 1, "the unclaimed observation goes to pending")
}

func TestProcessNight_EmptyNightIsANoOp(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(1, 0), eastward(2, 0)))
	st.LastNid = 2

	next, rep, err := l.ProcessNight(context.Background(), st, nil, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Trajectories.Len())
	assert.Equal(t, 2, next.Trajectories[1].Len())
	assert.Equal(t, 3, next.LastNid, "the night still advances the clock")
	assert.Zero(t, rep.Tracklets.Candidates)
	assert.Equal(t, [3]int{}, rep.OrbitBatches)
	for _, p := range rep.Passes {
		assert.Zero(t, p.Matches)
	}
}

func TestProcessNight_StaleNightRejected(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(1, 0)))
	st.LastNid = 5

	_, _, err := l.ProcessNight(context.Background(), st, alert.ObsSet{eastward(5, 0)}, 5)
	require.ErrorIs(t, err, ErrStaleNight)
}

func TestProcessNight_MalformedTableRejected(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Trajectories[7] = testutil.Traj(1, eastward(1, 0)) // key/id mismatch

	_, _, err := l.ProcessNight(context.Background(), st, alert.ObsSet{eastward(2, 0)}, 2)
	require.ErrorIs(t, err, alert.ErrMalformedTable)
}

func TestProcessNight_OrbitFailureLeavesStateUntouched(t *testing.T) {
	boom := errors.New("orbfit crashed")
	l := New(&orbit.Stub{Err: boom}, &config.TuningConfig{})

	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(1, 0), eastward(2, 0)))
	st.LastNid = 2

	night := alert.ObsSet{eastward(3, 0), eastward(3, 0.008)}
	got, rep, err := l.ProcessNight(context.Background(), st, night, 3)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, rep)

	// The caller's state survives the failed night byte for byte.
	assert.Equal(t, 2, got.LastNid)
	require.Equal(t, 1, got.Trajectories.Len())
	assert.Equal(t, 2, got.Trajectories[1].Len())
	assert.True(t, got.Trajectories[1].NotUpdated)
}

func TestProcessNight_ConservesObservations(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	st.Trajectories.Insert(testutil.Traj(1, eastward(1, 0), eastward(2, 0)))
	st.Observations = alert.ObsSet{testutil.Obs(40.0, 10, 2, 2459002.3)}
	st.LastNid = 2

	night := alert.ObsSet{
		eastward(3, 0),
		testutil.Obs(40.1, 10, 3, 2459003.3),
		testutil.Obs(70.0, -20, 3, 2459003.5),
	}
	next, rep, err := l.ProcessNight(context.Background(), st, night, 3)
	require.NoError(t, err)

	inCount := st.Trajectories.Observations().Len() + st.Observations.Len() + night.Len()
	outCount := next.Trajectories.Observations().Len() + next.Observations.Len()
	// Nothing left the 5-night window and nothing was acceleration
	// filtered, so every observation must be accounted for.
	require.Empty(t, rep.AccelDropped)
	assert.Equal(t, inCount, outCount)
}

func TestProcessNight_IDsNeverReused(t *testing.T) {
	l := newTestLinker()
	st := emptyState()
	ctx := context.Background()

	seen := make(map[int64]bool)
	for nid := 1; nid <= 4; nid++ {
		night := alert.ObsSet{
			eastward(nid, 0),
			eastward(nid, 0.008),
			testutil.Obs(40.0+float64(nid), 10, nid, 2459000.3+float64(nid)),
		}
		var err error
		st, _, err = l.ProcessNight(ctx, st, night, nid)
		require.NoError(t, err)
		for _, id := range st.Trajectories.IDs() {
			seen[id] = true
		}
	}
	// Every id ever observed must still map to at most one trajectory and
	// the allocator must never have gone backwards.
	require.NoError(t, st.Trajectories.Validate())
	max := st.Trajectories.MaxID()
	for id := range seen {
		assert.LessOrEqual(t, id, max)
	}
}
