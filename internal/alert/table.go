package alert

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedTable is returned when a trajectory table fails validation
// before a night's processing begins.
var ErrMalformedTable = errors.New("malformed trajectory table")

// Table is a collection of trajectories keyed by trajectory id. Iterate via
// IDs() for deterministic order.
type Table map[int64]*Trajectory

// NewTable builds a table from trajectories.
func NewTable(trajs ...*Trajectory) Table {
	t := make(Table, len(trajs))
	for _, tr := range trajs {
		t[tr.ID] = tr
	}
	return t
}

// IDs returns all trajectory ids in ascending order.
func (t Table) IDs() []int64 {
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MaxID returns the largest trajectory id, or -1 for an empty table.
func (t Table) MaxID() int64 {
	max := int64(-1)
	for id := range t {
		if id > max {
			max = id
		}
	}
	return max
}

// Len returns the number of trajectories.
func (t Table) Len() int { return len(t) }

// Insert adds a trajectory, replacing any existing entry with the same id.
func (t Table) Insert(tr *Trajectory) { t[tr.ID] = tr }

// Remove deletes a trajectory by id.
func (t Table) Remove(id int64) { delete(t, id) }

// Filter returns a new table holding the trajectories for which keep returns
// true. The trajectories themselves are shared, not copied.
func (t Table) Filter(keep func(*Trajectory) bool) Table {
	out := make(Table)
	for id, tr := range t {
		if keep(tr) {
			out[id] = tr
		}
	}
	return out
}

// Merge copies every trajectory of other into t. Duplicate ids are a
// programming error upstream; the incoming entry wins.
func (t Table) Merge(other Table) {
	for id, tr := range other {
		t[id] = tr
	}
}

// Clone returns a deep copy of the table (trajectories copied, ids kept).
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, tr := range t {
		c := &Trajectory{ID: tr.ID, Elements: tr.Elements, NotUpdated: tr.NotUpdated}
		c.Obs = tr.Obs.Clone()
		out[id] = c
	}
	return out
}

// Observations returns every observation in the table, ordered by trajectory
// id then timestamp.
func (t Table) Observations() ObsSet {
	var out ObsSet
	for _, id := range t.IDs() {
		out = append(out, t[id].Obs...)
	}
	return out
}

// ResetNotUpdated marks every trajectory as untouched, ready for the next
// night's processing.
func (t Table) ResetNotUpdated() {
	for _, tr := range t {
		tr.NotUpdated = true
	}
}

// Validate checks the table's structural invariants: non-empty membership,
// key/id agreement, observation stamping, temporal order, and no candidate
// appearing twice in one trajectory. Candids may legitimately appear in
// several trajectories: forked hypotheses share their pre-fork history.
// Violations are fatal precondition errors.
func (t Table) Validate() error {
	for id, tr := range t {
		if tr == nil || len(tr.Obs) == 0 {
			return fmt.Errorf("%w: trajectory %d has no observations", ErrMalformedTable, id)
		}
		if tr.ID != id {
			return fmt.Errorf("%w: trajectory keyed %d carries id %d", ErrMalformedTable, id, tr.ID)
		}
		seen := make(map[int64]bool, len(tr.Obs))
		for i, o := range tr.Obs {
			if o.TrajID != id {
				return fmt.Errorf("%w: trajectory %d holds observation %d stamped %d", ErrMalformedTable, id, o.CandID, o.TrajID)
			}
			if i > 0 && o.JD < tr.Obs[i-1].JD {
				return fmt.Errorf("%w: trajectory %d observations out of order at candid %d", ErrMalformedTable, id, o.CandID)
			}
			if seen[o.CandID] {
				return fmt.Errorf("%w: trajectory %d holds candid %d twice", ErrMalformedTable, id, o.CandID)
			}
			seen[o.CandID] = true
		}
	}
	return nil
}
