// Package linker implements the night-to-night association core: window
// management, the four-pass matching cascade, identifier lifecycle, duplicate
// resolution, background orbit-fit scheduling, and the acceleration filter.
package linker

import "github.com/skytrack-data/linkage.report/internal/alert"

// IDAllocator hands out trajectory ids. It is a plain value threaded through
// the night cycle and returned with the results, so id allocation stays
// deterministic and replayable. Ids are never reused: a trajectory discarded
// later keeps its id burned.
type IDAllocator struct {
	next int64
}

// NewIDAllocator seeds an allocator from the existing corpus:
// max(existing id)+1, or 0 when the table is empty.
func NewIDAllocator(trajs alert.Table) IDAllocator {
	return IDAllocator{next: trajs.MaxID() + 1}
}

// Next mints the next trajectory id.
func (a *IDAllocator) Next() int64 {
	id := a.next
	a.next++
	return id
}

// Peek returns the id Next would mint, without consuming it.
func (a *IDAllocator) Peek() int64 { return a.next }

// Bump advances the allocator past maxID. Used after the tracklet builder
// assigns provisional ids from Peek() upward.
func (a *IDAllocator) Bump(maxID int64) {
	if maxID+1 > a.next {
		a.next = maxID + 1
	}
}
