package orbit

import (
	"context"
	"fmt"
	"math"

	"github.com/skytrack-data/linkage.report/internal/alert"
)

// Stub is a deterministic in-process Service for tests and dry runs. Elements
// are derived from the trajectory's own observations, so repeated fits of the
// same trajectory always agree.
type Stub struct {
	// Err, when set, is returned from every Fit call. Used to exercise
	// the orchestrator's fatal-batch path.
	Err error
}

var _ Service = (*Stub)(nil)

// Fit implements Service.
func (s *Stub) Fit(_ context.Context, trajs alert.Table, _ string) (alert.Table, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	todo, done := SplitComputed(trajs)
	result := done.Clone()
	for _, id := range todo.IDs() {
		tr := todo[id].Clone(id)
		tr.NotUpdated = todo[id].NotUpdated
		tr.Elements = syntheticElements(id, todo[id].Obs)
		result.Insert(tr)
	}
	return result, nil
}

func syntheticElements(id int64, obs alert.ObsSet) alert.Elements {
	arc := 0.0
	if len(obs) > 1 {
		arc = obs[len(obs)-1].JD - obs[0].JD
	}
	return alert.Elements{
		Designation:    fmt.Sprintf("K%05d", id),
		A:              2.0 + math.Mod(float64(id)*0.137, 3.0),
		E:              math.Mod(arc*0.01, 0.5),
		I:              math.Mod(float64(id)*1.7, 30.0),
		Node:           math.Mod(float64(id)*11.0, 360.0),
		Peric:          math.Mod(float64(id)*23.0, 360.0),
		MeanAnomaly:    math.Mod(arc*3.0, 360.0),
		RMSA:           0.01,
		RMSE:           0.01,
		RMSI:           0.05,
		RMSNode:        0.05,
		RMSPeric:       0.05,
		RMSMeanAnomaly: 0.05,
		Computed:       true,
	}
}
