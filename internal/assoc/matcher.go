package assoc

import (
	"sort"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/sphere"
)

// Tail is the matching anchor for one trajectory: its two most recent
// observations (or two earliest, when matching backwards in time). Prev and
// Last coincide for single-point anchors, in which case no cone-angle test is
// possible and only separation and magnitude gate the match.
type Tail struct {
	TrajID int64
	Prev   alert.Observation
	Last   alert.Observation
}

// Match pairs one trajectory anchor with one continuation candidate.
type Match struct {
	TrajID int64
	Cand   alert.Observation
	// TmpID is the provisional trajectory id of the candidate when it
	// belongs to a tracklet, alert.NoTrajID for a bare observation.
	TmpID int64
}

// Report counts the outcomes of a single matching call.
type Report struct {
	Candidates    int `json:"candidates"`
	Matches       int `json:"matches"`
	AngleFiltered int `json:"angle_filtered"`
}

// Matcher is the stateless pairwise association test. Implementations must be
// deterministic for fixed inputs.
type Matcher interface {
	// MatchTails associates trajectory anchors with candidate
	// observations under the given criteria. A candidate is consumed by
	// at most one anchor; an anchor may claim several candidates, which
	// the caller resolves as duplicates.
	MatchTails(tails []Tail, cands alert.ObsSet, crit Criteria) ([]Match, Report)
}

// ConeMatcher is the reference Matcher: separation gate around the anchor's
// last position, magnitude gate by filter pair, and a cone-search test that
// the candidate continues the anchor's direction of motion within the angle
// tolerance.
type ConeMatcher struct{}

var _ Matcher = ConeMatcher{}

// MatchTails implements Matcher. Anchors are processed in trajectory-id order
// and candidates in candidate-id order, so results do not depend on input
// ordering. Each candidate is claimed once, by the first anchor that accepts
// it.
func (ConeMatcher) MatchTails(tails []Tail, cands alert.ObsSet, crit Criteria) ([]Match, Report) {
	var rep Report
	if len(tails) == 0 || len(cands) == 0 {
		return nil, rep
	}
	rep.Candidates = len(cands)

	ordered := make([]Tail, len(tails))
	copy(ordered, tails)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TrajID < ordered[j].TrajID })

	pool := cands.Clone()
	pool.SortByCandID()
	claimed := make(map[int64]bool, len(pool))

	var matches []Match
	for _, tail := range ordered {
		for _, cand := range pool {
			if claimed[cand.CandID] {
				continue
			}
			if sphere.Separation(tail.Last.RA, tail.Last.Dec, cand.RA, cand.Dec) > crit.SepDeg {
				continue
			}
			if !magnitudeOK(tail.Last, cand, crit) {
				continue
			}
			if !coneOK(tail, cand, crit.AngleDeg) {
				rep.AngleFiltered++
				continue
			}
			claimed[cand.CandID] = true
			matches = append(matches, Match{TrajID: tail.TrajID, Cand: cand, TmpID: cand.TrajID})
		}
	}
	rep.Matches = len(matches)
	return matches, rep
}

func magnitudeOK(last, cand alert.Observation, crit Criteria) bool {
	diff := last.Mag - cand.Mag
	if diff < 0 {
		diff = -diff
	}
	if last.Fid == cand.Fid {
		return diff <= crit.MagSameFid
	}
	return diff <= crit.MagDiffFid
}

// coneOK checks that the candidate lies within the angle tolerance of the
// anchor's motion direction. Single-point anchors carry no direction and pass
// unconditionally.
func coneOK(tail Tail, cand alert.Observation, angleDeg float64) bool {
	if tail.Prev.CandID == tail.Last.CandID {
		return true
	}
	motion := sphere.PositionAngle(tail.Prev.RA, tail.Prev.Dec, tail.Last.RA, tail.Last.Dec)
	toCand := sphere.PositionAngle(tail.Last.RA, tail.Last.Dec, cand.RA, cand.Dec)
	return sphere.AngleBetween(motion, toCand) <= angleDeg
}
