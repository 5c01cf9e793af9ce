// Package reportviz renders night reports as self-contained HTML charts using
// go-echarts.
package reportviz

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/skytrack-data/linkage.report/internal/linker"
)

// RenderNightActivity writes a bar chart of per-night association activity:
// matches, forks, and angle-filtered candidates, one bar group per processed
// night.
func RenderNightActivity(w io.Writer, reports []linker.NightReport) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to render")
	}

	ordered := make([]linker.NightReport, len(reports))
	copy(ordered, reports)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Nid < ordered[j].Nid })

	nights := make([]string, 0, len(ordered))
	matches := make([]opts.BarData, 0, len(ordered))
	forks := make([]opts.BarData, 0, len(ordered))
	filtered := make([]opts.BarData, 0, len(ordered))
	for _, rep := range ordered {
		var m, f, af int
		for _, p := range rep.Passes {
			m += p.Matches
			f += p.Forks
			for _, n := range p.Nights {
				af += n.AngleFiltered
			}
		}
		nights = append(nights, fmt.Sprintf("nid %d", rep.Nid))
		matches = append(matches, opts.BarData{Value: m})
		forks = append(forks, opts.BarData{Value: f})
		filtered = append(filtered, opts.BarData{Value: af})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Linkage Activity", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Night-to-night linkage activity", Subtitle: fmt.Sprintf("%d nights", len(ordered))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "night"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	bar.SetXAxis(nights).
		AddSeries("matches", matches).
		AddSeries("forks", forks).
		AddSeries("angle filtered", filtered)

	return bar.Render(w)
}

// RenderTrajectoryGrowth writes a line chart of the trajectory table size and
// pending observation backlog after each night.
func RenderTrajectoryGrowth(w io.Writer, reports []linker.NightReport) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to render")
	}

	ordered := make([]linker.NightReport, len(reports))
	copy(ordered, reports)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Nid < ordered[j].Nid })

	nights := make([]string, 0, len(ordered))
	trajs := make([]opts.LineData, 0, len(ordered))
	pending := make([]opts.LineData, 0, len(ordered))
	fits := make([]opts.LineData, 0, len(ordered))
	for _, rep := range ordered {
		nights = append(nights, fmt.Sprintf("nid %d", rep.Nid))
		trajs = append(trajs, opts.LineData{Value: rep.Trajectories})
		pending = append(pending, opts.LineData{Value: rep.PendingObservations})
		fits = append(fits, opts.LineData{Value: rep.OrbitFits})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Linkage Growth", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Trajectory table growth"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "night"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	line.SetXAxis(nights).
		AddSeries("trajectories", trajs).
		AddSeries("pending observations", pending).
		AddSeries("orbit fits", fits)

	return line.Render(w)
}
