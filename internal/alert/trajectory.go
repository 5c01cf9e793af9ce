package alert

// Elements holds the orbital elements of a trajectory. The zero value means
// "not yet computed"; Computed is only set once every element and RMS is
// populated together.
type Elements struct {
	Designation string  `json:"provisional_designation,omitempty"`
	A           float64 `json:"a"`
	E           float64 `json:"e"`
	I           float64 `json:"i"`
	Node        float64 `json:"long_node"`
	Peric       float64 `json:"arg_peric"`
	MeanAnomaly float64 `json:"mean_anomaly"`

	RMSA           float64 `json:"rms_a"`
	RMSE           float64 `json:"rms_e"`
	RMSI           float64 `json:"rms_i"`
	RMSNode        float64 `json:"rms_long_node"`
	RMSPeric       float64 `json:"rms_arg_peric"`
	RMSMeanAnomaly float64 `json:"rms_mean_anomaly"`

	Computed bool `json:"computed"`
}

// Trajectory is a time-ordered collection of observations sharing one
// trajectory id, plus orbital elements once computed.
type Trajectory struct {
	ID       int64
	Obs      ObsSet // sorted by JD
	Elements Elements

	// NotUpdated is true while no pass has attached a new observation to
	// the trajectory this night. It is reset to true for every trajectory
	// at the end of a night's processing.
	NotUpdated bool
}

// NewTrajectory creates a trajectory from observations, stamping each with
// the trajectory id and sorting by timestamp.
func NewTrajectory(id int64, obs ...Observation) *Trajectory {
	t := &Trajectory{ID: id, NotUpdated: true}
	for _, o := range obs {
		o.TrajID = id
		t.Obs = append(t.Obs, o)
	}
	t.Obs.SortByJD()
	return t
}

// Add attaches observations to the trajectory, stamping the trajectory id and
// clearing the not-updated flag.
func (t *Trajectory) Add(obs ...Observation) {
	for _, o := range obs {
		o.TrajID = t.ID
		t.Obs = append(t.Obs, o)
	}
	t.Obs.SortByJD()
	t.NotUpdated = false
}

// Len returns the number of observations.
func (t *Trajectory) Len() int { return len(t.Obs) }

// Tail returns the up-to-n most recent observations, oldest first.
func (t *Trajectory) Tail(n int) ObsSet {
	if n >= len(t.Obs) {
		return t.Obs.Clone()
	}
	return t.Obs[len(t.Obs)-n:].Clone()
}

// Head returns the up-to-n earliest observations, oldest first.
func (t *Trajectory) Head(n int) ObsSet {
	if n >= len(t.Obs) {
		return t.Obs.Clone()
	}
	return t.Obs[:n].Clone()
}

// LastNid returns the night id of the most recent observation.
func (t *Trajectory) LastNid() int {
	if len(t.Obs) == 0 {
		return 0
	}
	return t.Obs[len(t.Obs)-1].Nid
}

// FirstNid returns the night id of the earliest observation.
func (t *Trajectory) FirstNid() int {
	if len(t.Obs) == 0 {
		return 0
	}
	return t.Obs[0].Nid
}

// Clone returns a deep copy of the trajectory under a new id. The copy's
// observations are re-stamped with the new id and its elements are reset to
// uncomputed, since a forked membership invalidates a fitted orbit.
func (t *Trajectory) Clone(newID int64) *Trajectory {
	c := &Trajectory{ID: newID, NotUpdated: t.NotUpdated}
	c.Obs = make(ObsSet, len(t.Obs))
	copy(c.Obs, t.Obs)
	for i := range c.Obs {
		c.Obs[i].TrajID = newID
	}
	return c
}
