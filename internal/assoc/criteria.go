// Package assoc provides the stateless pairwise association primitives used
// by the night-to-night linkage cascade: the cone-search matcher and the
// intra-night tracklet builder. All matching here is pure; trajectory
// bookkeeping lives in the linker package.
package assoc

// Criteria are the numeric tolerances for a single matching call. The linker
// scales them by the night-id gap before each cascade step: observations more
// nights apart get proportionally looser criteria.
type Criteria struct {
	SepDeg     float64 // maximum angular separation, degrees
	MagSameFid float64 // magnitude tolerance when both filters match
	MagDiffFid float64 // magnitude tolerance across filters
	AngleDeg   float64 // cone-search angle tolerance, degrees
}

// Scale returns the criteria with the separation and magnitude tolerances
// multiplied by factor. The angle criterion is not scaled: the cone half-angle
// bounds direction change, which does not widen with elapsed nights.
func (c Criteria) Scale(factor float64) Criteria {
	return Criteria{
		SepDeg:     c.SepDeg * factor,
		MagSameFid: c.MagSameFid * factor,
		MagDiffFid: c.MagDiffFid * factor,
		AngleDeg:   c.AngleDeg,
	}
}
