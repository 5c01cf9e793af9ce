package linker

import "github.com/skytrack-data/linkage.report/internal/alert"

// PartitionWindow splits the corpus into the actively-evolving recent window
// and the frozen archive. A trajectory is archived when its most recent
// observation is more than trajHorizon nights older than nextNid; a pending
// observation is dropped when more than obsHorizon nights older. Archived
// partitions are never touched again during the cycle.
func PartitionWindow(trajs alert.Table, obs alert.ObsSet, nextNid, trajHorizon, obsHorizon int) (active, archived alert.Table, kept, dropped alert.ObsSet) {
	active = make(alert.Table)
	archived = make(alert.Table)
	for id, tr := range trajs {
		if nextNid-tr.LastNid() > trajHorizon {
			archived[id] = tr
		} else {
			active[id] = tr
		}
	}

	for _, o := range obs {
		if nextNid-o.Nid > obsHorizon {
			dropped = append(dropped, o)
		} else {
			kept = append(kept, o)
		}
	}
	return active, archived, kept, dropped
}
