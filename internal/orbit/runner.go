package orbit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/monitoring"
)

// Runner executes an external orbit-determination program. The program is
// invoked once per batch with two arguments: an input JSON file of
// observations grouped by trajectory id, and the path where it must write an
// output JSON file of elements keyed by trajectory id.
type Runner struct {
	// Program is the path to the orbit-fit executable.
	Program string
	// Args are prepended to the input/output file arguments.
	Args []string
}

var _ Service = (*Runner)(nil)

type runnerInput struct {
	Trajectories map[int64]alert.ObsSet `json:"trajectories"`
}

type runnerOutput struct {
	Elements map[int64]alert.Elements `json:"elements"`
}

// Fit implements Service. Each invocation works in its own subdirectory of
// scratchDir, removed on return. Trajectories with computed elements are not
// re-submitted.
func (r *Runner) Fit(ctx context.Context, trajs alert.Table, scratchDir string) (alert.Table, error) {
	todo, done := SplitComputed(trajs)
	if todo.Len() == 0 {
		return trajs, nil
	}

	workDir, err := os.MkdirTemp(scratchDir, "orbfit-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	in := runnerInput{Trajectories: make(map[int64]alert.ObsSet, todo.Len())}
	for _, id := range todo.IDs() {
		in.Trajectories[id] = todo[id].Obs
	}
	inPath := filepath.Join(workDir, "observations.json")
	outPath := filepath.Join(workDir, "elements.json")

	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode orbit input: %w", err)
	}
	if err := os.WriteFile(inPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write orbit input: %w", err)
	}

	args := append(append([]string{}, r.Args...), inPath, outPath)
	cmd := exec.CommandContext(ctx, r.Program, args...)
	cmd.Dir = workDir
	if out, err := cmd.CombinedOutput(); err != nil {
		monitoring.Logf("orbit fit failed: %v: %s", err, out)
		return nil, fmt.Errorf("run %s: %w", r.Program, err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read orbit output: %w", err)
	}
	var out runnerOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode orbit output: %w", err)
	}

	result := done.Clone()
	for _, id := range todo.IDs() {
		tr := todo[id].Clone(id)
		tr.NotUpdated = todo[id].NotUpdated
		if elem, ok := out.Elements[id]; ok {
			elem.Computed = true
			tr.Elements = elem
		}
		result.Insert(tr)
	}
	return result, nil
}
