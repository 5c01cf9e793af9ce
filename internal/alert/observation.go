// Package alert defines the observation and trajectory data model shared by
// the night-to-night linkage pipeline.
package alert

import "sort"

// NoTrajID marks an observation that has not been assigned to a trajectory.
const NoTrajID int64 = -1

// Observation is a single point-source alert. Immutable after ingest except
// for trajectory-id assignment.
type Observation struct {
	RA     float64 `json:"ra"`  // right ascension, degrees
	Dec    float64 `json:"dec"` // declination, degrees
	Mag    float64 `json:"dcmag"`
	Fid    int     `json:"fid"` // filter id
	Nid    int     `json:"nid"` // night id
	JD     float64 `json:"jd"`  // Julian date
	CandID int64   `json:"candid"`
	TrajID int64   `json:"trajectory_id"`

	// SSName is an optional ground-truth label used only when accuracy
	// metrics are requested. Empty when unlabeled.
	SSName string `json:"ssnamenr,omitempty"`
}

// ObsSet is an ordered set of observations.
type ObsSet []Observation

// Len returns the number of observations in the set.
func (s ObsSet) Len() int { return len(s) }

// Nids returns the distinct night ids present in the set, most recent first.
func (s ObsSet) Nids() []int {
	seen := make(map[int]bool)
	var nids []int
	for _, o := range s {
		if !seen[o.Nid] {
			seen[o.Nid] = true
			nids = append(nids, o.Nid)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nids)))
	return nids
}

// ByNid returns the subset of observations taken on the given night.
func (s ObsSet) ByNid(nid int) ObsSet {
	var out ObsSet
	for _, o := range s {
		if o.Nid == nid {
			out = append(out, o)
		}
	}
	return out
}

// Remove returns the set without the observations whose candidate ids appear
// in candids.
func (s ObsSet) Remove(candids map[int64]bool) ObsSet {
	if len(candids) == 0 {
		return s
	}
	out := make(ObsSet, 0, len(s))
	for _, o := range s {
		if !candids[o.CandID] {
			out = append(out, o)
		}
	}
	return out
}

// CandIDs returns the candidate ids of every observation in the set.
func (s ObsSet) CandIDs() map[int64]bool {
	ids := make(map[int64]bool, len(s))
	for _, o := range s {
		ids[o.CandID] = true
	}
	return ids
}

// SortByJD sorts the set in place by timestamp, candidate id as tie-break.
func (s ObsSet) SortByJD() {
	sort.Slice(s, func(i, j int) bool {
		if s[i].JD != s[j].JD {
			return s[i].JD < s[j].JD
		}
		return s[i].CandID < s[j].CandID
	})
}

// SortByCandID sorts the set in place by candidate id. Used to make greedy
// matching deterministic under input reordering.
func (s ObsSet) SortByCandID() {
	sort.Slice(s, func(i, j int) bool { return s[i].CandID < s[j].CandID })
}

// Clone returns a copy of the set.
func (s ObsSet) Clone() ObsSet {
	out := make(ObsSet, len(s))
	copy(out, s)
	return out
}
