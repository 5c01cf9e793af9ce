// Package orbit defines the orbit-determination collaborator boundary. The
// linkage core only depends on Service; the exec Runner and the test Stub are
// the two shipped implementations.
package orbit

import (
	"context"

	"github.com/skytrack-data/linkage.report/internal/alert"
)

// Service computes orbital elements for trajectories. Implementations must be
// idempotent: trajectories whose elements are already computed pass through
// untouched, so re-submitting a table is a no-op for those rows.
type Service interface {
	// Fit returns the table with elements populated for every trajectory
	// that lacked them. scratchDir is a working directory for temporary
	// files; implementations that need no scratch space ignore it.
	Fit(ctx context.Context, trajs alert.Table, scratchDir string) (alert.Table, error)
}

// SplitComputed partitions a table into trajectories that still need an orbit
// fit and those that already carry elements.
func SplitComputed(trajs alert.Table) (todo, done alert.Table) {
	todo = trajs.Filter(func(t *alert.Trajectory) bool { return !t.Elements.Computed })
	done = trajs.Filter(func(t *alert.Trajectory) bool { return t.Elements.Computed })
	return todo, done
}
