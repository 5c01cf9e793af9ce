package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/assoc"
	"github.com/skytrack-data/linkage.report/internal/config"
	"github.com/skytrack-data/linkage.report/internal/monitoring"
	"github.com/skytrack-data/linkage.report/internal/orbit"
	"github.com/skytrack-data/linkage.report/internal/sphere"
)

// ErrStaleNight is returned when a night is submitted out of order.
var ErrStaleNight = errors.New("night id not after current state")

// State is the linkage state carried from night to night: the trajectory
// table, the old observations still waiting for a partner, and the id of the
// last processed night.
type State struct {
	Trajectories alert.Table
	Observations alert.ObsSet
	LastNid      int
}

// Linker runs the night cycle. All four collaborators must be set.
type Linker struct {
	Matcher assoc.Matcher
	Builder assoc.TrackletBuilder
	Orbit   orbit.Service
	Config  *config.TuningConfig
}

// New returns a Linker with the reference matcher and tracklet builder.
func New(svc orbit.Service, cfg *config.TuningConfig) *Linker {
	return &Linker{
		Matcher: assoc.ConeMatcher{},
		Builder: assoc.IntraNightBuilder{},
		Orbit:   svc,
		Config:  cfg,
	}
}

type orbitResult struct {
	trajs alert.Table
	err   error
}

// spawnFit starts a background orbit fit for the batch. The result lands on
// results exactly once, error or not, so the caller can join by counting
// receives.
func (l *Linker) spawnFit(ctx context.Context, batch alert.Table, results chan<- orbitResult) {
	go func() {
		fitted, err := l.Orbit.Fit(ctx, batch, l.Config.GetScratchDir())
		results <- orbitResult{trajs: fitted, err: err}
	}()
}

// takeOrbitReady moves out of t every trajectory accepted by pred that has at
// least limit observations and no fitted orbit yet.
func takeOrbitReady(t alert.Table, limit int, pred func(int64) bool) alert.Table {
	batch := alert.NewTable()
	for _, id := range t.IDs() {
		tr := t[id]
		if pred(id) && !tr.Elements.Computed && tr.Len() >= limit {
			batch.Insert(tr)
			t.Remove(id)
		}
	}
	return batch
}

// ProcessNight folds one night of observations into the linkage state. It
// runs the intra-night tracklet builder, the four inter-night matching passes
// with three background orbit fits interleaved, and the acceleration filter,
// then returns the new state and a report. On error the input state is
// returned unchanged.
func (l *Linker) ProcessNight(ctx context.Context, st State, night alert.ObsSet, nid int) (State, *NightReport, error) {
	started := time.Now()
	if st.LastNid != 0 && nid <= st.LastNid {
		return st, nil, fmt.Errorf("%w: got %d after %d", ErrStaleNight, nid, st.LastNid)
	}
	if err := st.Trajectories.Validate(); err != nil {
		return st, nil, err
	}

	rep := &NightReport{
		RunID:   uuid.NewString(),
		Nid:     nid,
		Started: started,
	}

	// All mutation happens on copies so a failed night leaves the caller's
	// state intact.
	work := st.Trajectories.Clone()
	oldObs := st.Observations.Clone()
	alloc := NewIDAllocator(work)

	trajHorizon := l.Config.GetTrajectoryWindow()
	obsHorizon := l.Config.GetObservationWindow()
	work, archived, oldObs, _ := PartitionWindow(work, oldObs, nid, trajHorizon, obsHorizon)
	rep.Archived = archived.Len()

	intraCrit := assoc.Criteria{
		SepDeg:     l.Config.GetIntraSepArcsec() * sphere.DegPerArcsec,
		MagSameFid: l.Config.GetIntraMagSameFid(),
		MagDiffFid: l.Config.GetIntraMagDiffFid(),
	}
	tracklets, leftovers, trackRep := l.Builder.Build(night, alloc.Peek(), intraCrit)
	alloc.Bump(tracklets.MaxID())
	rep.Tracklets = trackRep

	crit := assoc.Criteria{
		SepDeg:     l.Config.GetSepCriterionDeg(),
		MagSameFid: l.Config.GetMagSameFid(),
		MagDiffFid: l.Config.GetMagDiffFid(),
		AngleDeg:   l.Config.GetAngleCriterionDeg(),
	}
	limit := l.Config.GetOrbfitLimit()
	touched := make(map[int64]bool)

	fitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan orbitResult, 3)

	// Pass 1: trajectories against tracklets. Trajectories that reach the
	// orbit limit, and unmatched tracklets already long enough, go to the
	// first background fit.
	p1 := l.passTrajectoriesTracklets(work, tracklets, nid, crit, &alloc, touched)
	batch1 := takeOrbitReady(work, limit, func(id int64) bool { return touched[id] })
	batch1.Merge(takeOrbitReady(tracklets, limit, func(int64) bool { return true }))
	for _, id := range batch1.IDs() {
		touched[id] = true
	}
	rep.OrbitBatches[0] = batch1.Len()
	l.spawnFit(fitCtx, batch1, results)

	// Pass 2: trajectories against the night's leftover observations.
	var p2 PassReport
	leftovers, p2 = l.passTrajectoriesObservations(work, leftovers, nid, crit, &alloc, touched)
	batch2 := takeOrbitReady(work, limit, func(id int64) bool { return touched[id] })
	rep.OrbitBatches[1] = batch2.Len()
	l.spawnFit(fitCtx, batch2, results)

	// Pass 3: tracklets backwards against old observations.
	var p3 PassReport
	oldObs, p3 = l.passTrackletsOldObservations(tracklets, oldObs, nid, crit, &alloc, touched)
	batch3 := takeOrbitReady(tracklets, limit, func(int64) bool { return true })
	for _, id := range batch3.IDs() {
		touched[id] = true
	}
	rep.OrbitBatches[2] = batch3.Len()
	l.spawnFit(fitCtx, batch3, results)

	// Pass 4: pair the remaining old and new observations into fresh
	// two-point trajectories.
	created, oldObs, leftovers, p4 := l.passObservationPairs(oldObs, leftovers, nid, crit, &alloc, touched)
	rep.Passes = []PassReport{p1, p2, p3, p4}

	// Join the three fits. Every spawn answers exactly once.
	var fitted []alert.Table
	var fitErr error
	for i := 0; i < 3; i++ {
		res := <-results
		if res.err != nil {
			cancel()
			if fitErr == nil {
				fitErr = res.err
			}
			continue
		}
		fitted = append(fitted, res.trajs)
	}
	if fitErr != nil {
		monitoring.Logf("linker: night %d aborted: orbit fit failed: %v", nid, fitErr)
		return st, nil, fmt.Errorf("orbit fit: %w", fitErr)
	}

	// Assemble the next state: surviving working set, fitted batches,
	// tracklets that never reached orbit, the new pairs, and the archive.
	next := alert.NewTable()
	next.Merge(work)
	for _, f := range fitted {
		for _, id := range f.IDs() {
			if f[id].Elements.Computed {
				rep.OrbitFits++
			}
		}
		next.Merge(f)
	}
	for _, id := range tracklets.IDs() {
		touched[id] = true
	}
	next.Merge(tracklets)
	next.Merge(created)

	rep.AccelDropped = FilterByAcceleration(next, touched, l.Config.GetAccelThreshold())

	next.Merge(archived)
	next.ResetNotUpdated()
	if err := next.Validate(); err != nil {
		return st, nil, err
	}

	pending := oldObs
	pending = append(pending, leftovers...)
	pending.SortByJD()

	rep.Trajectories = next.Len()
	rep.PendingObservations = pending.Len()
	rep.Elapsed = time.Since(started).Seconds()

	return State{Trajectories: next, Observations: pending, LastNid: nid}, rep, nil
}
