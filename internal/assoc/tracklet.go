package assoc

import (
	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/sphere"
)

// TrackletBuilder groups one night's observations into short provisional
// trajectories (tracklets).
type TrackletBuilder interface {
	// Build forms tracklets from the night's observations, assigning
	// provisional trajectory ids from nextID upward. It returns the
	// tracklets, the observations it could not group, and a report.
	Build(night alert.ObsSet, nextID int64, crit Criteria) (alert.Table, alert.ObsSet, Report)
}

// IntraNightBuilder is the reference TrackletBuilder: greedy chaining of
// observations whose pairwise separation and magnitude difference pass the
// intra-night criteria. Chains follow increasing timestamp; each observation
// joins at most one tracklet.
type IntraNightBuilder struct{}

var _ TrackletBuilder = IntraNightBuilder{}

// Build implements TrackletBuilder. Observations are scanned in timestamp
// order (candidate id tie-break) so the grouping is deterministic.
func (IntraNightBuilder) Build(night alert.ObsSet, nextID int64, crit Criteria) (alert.Table, alert.ObsSet, Report) {
	var rep Report
	tracklets := alert.NewTable()
	if len(night) == 0 {
		return tracklets, night, rep
	}
	rep.Candidates = len(night)

	pool := night.Clone()
	pool.SortByJD()
	used := make([]bool, len(pool))

	id := nextID
	for i := range pool {
		if used[i] {
			continue
		}
		chain := alert.ObsSet{pool[i]}
		used[i] = true
		last := pool[i]
		for j := i + 1; j < len(pool); j++ {
			if used[j] || pool[j].JD <= last.JD {
				continue
			}
			if pairOK(last, pool[j], crit) {
				used[j] = true
				chain = append(chain, pool[j])
				last = pool[j]
			}
		}
		// Singletons fall through to the leftover set.
		if len(chain) >= 2 {
			tracklets.Insert(alert.NewTrajectory(id, chain...))
			rep.Matches += len(chain)
			id++
		}
	}

	var leftovers alert.ObsSet
	grouped := tracklets.Observations().CandIDs()
	for _, o := range night {
		if !grouped[o.CandID] {
			leftovers = append(leftovers, o)
		}
	}
	return tracklets, leftovers, rep
}

func pairOK(a, b alert.Observation, crit Criteria) bool {
	if sphere.Separation(a.RA, a.Dec, b.RA, b.Dec) > crit.SepDeg {
		return false
	}
	return magnitudeOK(a, b, crit)
}
