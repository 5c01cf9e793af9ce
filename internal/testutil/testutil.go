// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/skytrack-data/linkage.report/internal/alert"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Obs builds a labeled observation fixture. JD doubles as the candid seed so
// fixtures stay unique without bookkeeping in the test body.
func Obs(ra, dec float64, nid int, jd float64) alert.Observation {
	return alert.Observation{
		RA:     ra,
		Dec:    dec,
		Mag:    18.0,
		Fid:    1,
		Nid:    nid,
		JD:     jd,
		CandID: int64(jd * 1e6),
		TrajID: alert.NoTrajID,
	}
}

// Named returns a copy of o carrying a ground-truth label.
func Named(o alert.Observation, name string) alert.Observation {
	o.SSName = name
	return o
}

// Traj builds a trajectory fixture from observations.
func Traj(id int64, obs ...alert.Observation) *alert.Trajectory {
	return alert.NewTrajectory(id, obs...)
}
