package linker

import (
	"sort"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/assoc"
)

// The four inter-night passes share one cascade shape: anchors are grouped by
// a night id, groups run most recent first, and the association criteria widen
// with the night gap between the current night and the group. The angle
// criterion is never scaled.

// tailForward builds a forward anchor from a trajectory's two most recent
// observations.
func tailForward(tr *alert.Trajectory) assoc.Tail {
	obs := tr.Tail(2)
	return assoc.Tail{TrajID: tr.ID, Prev: obs[0], Last: obs[len(obs)-1]}
}

// tailBackward builds a backward anchor from a trajectory's two earliest
// observations, oriented so the motion direction points into the past.
func tailBackward(tr *alert.Trajectory) assoc.Tail {
	obs := tr.Head(2)
	return assoc.Tail{TrajID: tr.ID, Prev: obs[len(obs)-1], Last: obs[0]}
}

// anchorEligible reports whether a trajectory may be extended this night: it
// has not gained an observation yet and carries no fitted orbit.
func anchorEligible(tr *alert.Trajectory) bool {
	return tr.NotUpdated && !tr.Elements.Computed
}

// trackletHeads returns the first observation of every tracklet, stamped with
// the tracklet's provisional id so a match can be traced back to it.
func trackletHeads(tracklets alert.Table) alert.ObsSet {
	var heads alert.ObsSet
	for _, id := range tracklets.IDs() {
		heads = append(heads, tracklets[id].Obs[0])
	}
	return heads
}

// dominantLabel returns the most frequent non-empty ground-truth name in the
// set, or "" when unlabeled.
func dominantLabel(obs alert.ObsSet) string {
	counts := make(map[string]int)
	for _, o := range obs {
		if o.SSName != "" {
			counts[o.SSName]++
		}
	}
	best, n := "", 0
	for name, c := range counts {
		if c > n || (c == n && name < best) {
			best, n = name, c
		}
	}
	return best
}

// matchAccuracy is the fraction of matches whose anchor label agrees with the
// candidate label, over the matches where both sides are labeled.
func matchAccuracy(matches []assoc.Match, labelOf func(int64) string) float64 {
	ok, total := 0, 0
	for _, m := range matches {
		anchor := labelOf(m.TrajID)
		if anchor == "" || m.Cand.SSName == "" {
			continue
		}
		total++
		if anchor == m.Cand.SSName {
			ok++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// groupByNid buckets trajectory ids by the night id key returns, sorted inside
// each bucket, and returns the distinct night ids most recent first.
func groupByNid(t alert.Table, ids []int64, key func(*alert.Trajectory) int) (map[int][]int64, []int) {
	groups := make(map[int][]int64)
	for _, id := range ids {
		nid := key(t[id])
		groups[nid] = append(groups[nid], id)
	}
	var nids []int
	for nid := range groups {
		sort.Slice(groups[nid], func(i, j int) bool { return groups[nid][i] < groups[nid][j] })
		nids = append(nids, nid)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nids)))
	return groups, nids
}

// passTrajectoriesTracklets extends trajectories with whole tracklets. A match
// against a tracklet's first observation consumes the tracklet; its
// observations are appended to the trajectory (or to a fork when the
// trajectory already claimed another tracklet).
func (l *Linker) passTrajectoriesTracklets(work, tracklets alert.Table, nextNid int, crit assoc.Criteria, alloc *IDAllocator, touched map[int64]bool) PassReport {
	rep := PassReport{Name: "trajectories-tracklets"}
	var anchors []int64
	for _, id := range work.IDs() {
		if anchorEligible(work[id]) {
			anchors = append(anchors, id)
		}
	}
	if len(anchors) == 0 || tracklets.Len() == 0 {
		return rep
	}

	groups, nids := groupByNid(work, anchors, (*alert.Trajectory).LastNid)
	metrics := l.Config.GetRunMetrics()
	for _, nid := range nids {
		if tracklets.Len() == 0 {
			break
		}
		var tails []assoc.Tail
		for _, id := range groups[nid] {
			tails = append(tails, tailForward(work[id]))
		}
		scaled := crit.Scale(float64(nextNid - nid))
		matches, mrep := l.Matcher.MatchTails(tails, trackletHeads(tracklets), scaled)
		kept, forks := ResolveDuplicates(matches, work, alloc)

		nrep := NidReport{
			OldNid:        nid,
			Candidates:    mrep.Candidates,
			Matches:       len(kept),
			Duplicates:    len(forks),
			AngleFiltered: mrep.AngleFiltered,
		}
		if metrics {
			nrep.Accuracy = matchAccuracy(matches, func(id int64) string { return dominantLabel(work[id].Obs) })
		}

		for _, m := range kept {
			tk := tracklets[m.TmpID]
			work[m.TrajID].Add(tk.Obs...)
			tracklets.Remove(m.TmpID)
			touched[m.TrajID] = true
		}
		for _, f := range forks {
			tk := tracklets[f.Match.TmpID]
			f.Traj.Add(tk.Obs...)
			tracklets.Remove(f.Match.TmpID)
			work.Insert(f.Traj)
			touched[f.Traj.ID] = true
		}
		rep.add(nrep)
	}
	return rep
}

// passTrajectoriesObservations extends trajectories with single observations
// of the current night. Returns the observations left unclaimed.
func (l *Linker) passTrajectoriesObservations(work alert.Table, cands alert.ObsSet, nextNid int, crit assoc.Criteria, alloc *IDAllocator, touched map[int64]bool) (alert.ObsSet, PassReport) {
	rep := PassReport{Name: "trajectories-observations"}
	var anchors []int64
	for _, id := range work.IDs() {
		if anchorEligible(work[id]) {
			anchors = append(anchors, id)
		}
	}
	if len(anchors) == 0 || len(cands) == 0 {
		return cands, rep
	}

	groups, nids := groupByNid(work, anchors, (*alert.Trajectory).LastNid)
	metrics := l.Config.GetRunMetrics()
	for _, nid := range nids {
		if len(cands) == 0 {
			break
		}
		var tails []assoc.Tail
		for _, id := range groups[nid] {
			tails = append(tails, tailForward(work[id]))
		}
		scaled := crit.Scale(float64(nextNid - nid))
		matches, mrep := l.Matcher.MatchTails(tails, cands, scaled)
		kept, forks := ResolveDuplicates(matches, work, alloc)

		nrep := NidReport{
			OldNid:        nid,
			Candidates:    mrep.Candidates,
			Matches:       len(kept),
			Duplicates:    len(forks),
			AngleFiltered: mrep.AngleFiltered,
		}
		if metrics {
			nrep.Accuracy = matchAccuracy(matches, func(id int64) string { return dominantLabel(work[id].Obs) })
		}

		consumed := make(map[int64]bool)
		for _, m := range kept {
			work[m.TrajID].Add(m.Cand)
			consumed[m.Cand.CandID] = true
			touched[m.TrajID] = true
		}
		for _, f := range forks {
			f.Traj.Add(f.Match.Cand)
			consumed[f.Match.Cand.CandID] = true
			work.Insert(f.Traj)
			touched[f.Traj.ID] = true
		}
		cands = cands.Remove(consumed)
		rep.add(nrep)
	}
	return cands, rep
}

// passTrackletsOldObservations extends tracklets backwards in time with old
// unassociated observations. The cascade runs over the old observations' night
// ids; a tracklet that gains a point keeps competing in later, older steps
// with its new head. Returns the old observations left unclaimed.
func (l *Linker) passTrackletsOldObservations(tracklets alert.Table, oldObs alert.ObsSet, nextNid int, crit assoc.Criteria, alloc *IDAllocator, touched map[int64]bool) (alert.ObsSet, PassReport) {
	rep := PassReport{Name: "tracklets-old-observations"}
	if tracklets.Len() == 0 || len(oldObs) == 0 {
		return oldObs, rep
	}

	metrics := l.Config.GetRunMetrics()
	for _, nid := range oldObs.Nids() {
		if tracklets.Len() == 0 {
			break
		}
		night := oldObs.ByNid(nid)
		if len(night) == 0 {
			continue
		}
		var tails []assoc.Tail
		for _, id := range tracklets.IDs() {
			tails = append(tails, tailBackward(tracklets[id]))
		}
		scaled := crit.Scale(float64(nextNid - nid))
		matches, mrep := l.Matcher.MatchTails(tails, night, scaled)
		kept, forks := ResolveDuplicates(matches, tracklets, alloc)

		nrep := NidReport{
			OldNid:        nid,
			Candidates:    mrep.Candidates,
			Matches:       len(kept),
			Duplicates:    len(forks),
			AngleFiltered: mrep.AngleFiltered,
		}
		if metrics {
			nrep.Accuracy = matchAccuracy(matches, func(id int64) string { return dominantLabel(tracklets[id].Obs) })
		}

		consumed := make(map[int64]bool)
		for _, m := range kept {
			tracklets[m.TrajID].Add(m.Cand)
			consumed[m.Cand.CandID] = true
			touched[m.TrajID] = true
		}
		for _, f := range forks {
			f.Traj.Add(f.Match.Cand)
			consumed[f.Match.Cand.CandID] = true
			tracklets.Insert(f.Traj)
			touched[f.Traj.ID] = true
		}
		oldObs = oldObs.Remove(consumed)
		rep.add(nrep)
	}
	return oldObs, rep
}

// passObservationPairs seeds new two-point trajectories from pairs of one old
// and one new unassociated observation. Old observations act as single-point
// anchors keyed by candidate id; only an anchor's first accepted pairing is
// kept, so every observation ends up in at most one new trajectory. Returns
// the new trajectories and the observations left unclaimed on both sides.
func (l *Linker) passObservationPairs(oldObs, newObs alert.ObsSet, nextNid int, crit assoc.Criteria, alloc *IDAllocator, touched map[int64]bool) (alert.Table, alert.ObsSet, alert.ObsSet, PassReport) {
	rep := PassReport{Name: "observation-pairs"}
	created := alert.NewTable()
	if len(oldObs) == 0 || len(newObs) == 0 {
		return created, oldObs, newObs, rep
	}

	metrics := l.Config.GetRunMetrics()
	for _, nid := range oldObs.Nids() {
		if len(newObs) == 0 {
			break
		}
		night := oldObs.ByNid(nid)
		if len(night) == 0 {
			continue
		}
		byAnchor := make(map[int64]alert.Observation, len(night))
		tails := make([]assoc.Tail, 0, len(night))
		for _, o := range night {
			byAnchor[o.CandID] = o
			tails = append(tails, assoc.Tail{TrajID: o.CandID, Prev: o, Last: o})
		}
		scaled := crit.Scale(float64(nextNid - nid))
		matches, mrep := l.Matcher.MatchTails(tails, newObs, scaled)

		// One pairing per anchor: order by (anchor, candidate id) and
		// keep the first. Rejected pairings stay in the pools for older
		// cascade steps.
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].TrajID != matches[j].TrajID {
				return matches[i].TrajID < matches[j].TrajID
			}
			return matches[i].Cand.CandID < matches[j].Cand.CandID
		})
		paired := make(map[int64]bool)
		consumedOld := make(map[int64]bool)
		consumedNew := make(map[int64]bool)
		var kept []assoc.Match
		for _, m := range matches {
			if paired[m.TrajID] {
				continue
			}
			paired[m.TrajID] = true
			kept = append(kept, m)
			anchor := byAnchor[m.TrajID]
			tr := alert.NewTrajectory(alloc.Next(), anchor, m.Cand)
			created.Insert(tr)
			touched[tr.ID] = true
			consumedOld[anchor.CandID] = true
			consumedNew[m.Cand.CandID] = true
		}

		nrep := NidReport{
			OldNid:        nid,
			Candidates:    mrep.Candidates,
			Matches:       len(kept),
			AngleFiltered: mrep.AngleFiltered,
		}
		if metrics {
			nrep.Accuracy = matchAccuracy(kept, func(id int64) string { return byAnchor[id].SSName })
		}

		oldObs = oldObs.Remove(consumedOld)
		newObs = newObs.Remove(consumedNew)
		rep.add(nrep)
	}
	return created, oldObs, newObs, rep
}
