package linker

import (
	"time"

	"github.com/skytrack-data/linkage.report/internal/assoc"
)

// NidReport counts the outcome of one cascade step of a matching pass, i.e.
// one group of anchors (or old observations) sharing a night id.
type NidReport struct {
	OldNid        int     `json:"old_nid"`
	Candidates    int     `json:"candidates"`
	Matches       int     `json:"matches"`
	Duplicates    int     `json:"duplicates"`
	AngleFiltered int     `json:"angle_filtered"`
	Accuracy      float64 `json:"accuracy,omitempty"`
}

// PassReport aggregates the cascade steps of one matching pass.
type PassReport struct {
	Name    string      `json:"name"`
	Nights  []NidReport `json:"nights,omitempty"`
	Matches int         `json:"matches"`
	Forks   int         `json:"forks"`
}

func (p *PassReport) add(n NidReport) {
	p.Nights = append(p.Nights, n)
	p.Matches += n.Matches
	p.Forks += n.Duplicates
}

// NightReport summarizes one night's processing.
type NightReport struct {
	RunID   string    `json:"run_id"`
	Nid     int       `json:"nid"`
	Started time.Time `json:"started"`
	Elapsed float64   `json:"elapsed_sec"`

	Tracklets assoc.Report `json:"tracklets"`
	Passes    []PassReport `json:"passes"`

	// OrbitBatches holds the size of each of the three background fit
	// batches, in spawn order.
	OrbitBatches [3]int  `json:"orbit_batches"`
	OrbitFits    int     `json:"orbit_fits"`
	AccelDropped []int64 `json:"accel_dropped,omitempty"`

	Trajectories        int `json:"trajectories"`
	Archived            int `json:"archived"`
	PendingObservations int `json:"pending_observations"`
}
