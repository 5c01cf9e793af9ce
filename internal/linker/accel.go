package linker

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/sphere"
)

// angularRates returns the apparent angular velocity of each consecutive
// observation pair, in degrees per day. Pairs with no time separation are
// skipped.
func angularRates(obs alert.ObsSet) []float64 {
	var rates []float64
	for i := 1; i < len(obs); i++ {
		dt := obs[i].JD - obs[i-1].JD
		if dt <= 0 {
			continue
		}
		sep := sphere.Separation(obs[i-1].RA, obs[i-1].Dec, obs[i].RA, obs[i].Dec)
		rates = append(rates, sep/dt)
	}
	return rates
}

// meanAbsAcceleration is the mean absolute finite-difference acceleration of
// the trajectory's apparent motion, in degrees per day squared. It returns
// NaN when fewer than two velocity samples exist.
func meanAbsAcceleration(obs alert.ObsSet) float64 {
	rates := angularRates(obs)
	if len(rates) < 2 {
		return math.NaN()
	}
	accels := make([]float64, 0, len(rates)-1)
	for i := 1; i < len(rates); i++ {
		dt := obs[i+1].JD - obs[i-1].JD
		if dt <= 0 {
			continue
		}
		accels = append(accels, math.Abs((rates[i]-rates[i-1])/dt))
	}
	if len(accels) == 0 {
		return math.NaN()
	}
	return stat.Mean(accels, nil)
}

// FilterByAcceleration removes from the table every touched trajectory whose
// mean absolute acceleration exceeds threshold. Trajectories with fewer than
// three observations carry no acceleration estimate and are always kept, as
// are trajectories untouched this night. Returns the removed ids in ascending
// order.
func FilterByAcceleration(trajs alert.Table, touched map[int64]bool, threshold float64) []int64 {
	var dropped []int64
	for _, id := range trajs.IDs() {
		if !touched[id] {
			continue
		}
		tr := trajs[id]
		if tr.Len() < 3 {
			continue
		}
		mean := meanAbsAcceleration(tr.Obs)
		if !math.IsNaN(mean) && mean > threshold {
			dropped = append(dropped, id)
			trajs.Remove(id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })
	return dropped
}
