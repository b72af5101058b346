// Package runs turns a run count into the ordered run descriptors of a batch.
package runs

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

// Setting keys the enumerator fills in for every run.
const (
	RunNumberKey  = "run_num"
	OutputFileKey = "outfile"
)

// Layout derives per-run file names inside a workspace.
type Layout struct {
	MacroDir  string
	OutputDir string
	LogDir    string
	// Extension of the simulation output file, without the dot.
	OutputSuffix string
}

// RunName is the name shared by all files of a run, e.g. Run_12.
func RunName(index string) string {
	return "Run_" + index
}

func (l Layout) MacroPath(index string) string {
	return filepath.Join(l.MacroDir, RunName(index)+".mac")
}

func (l Layout) LogPath(index string) string {
	return filepath.Join(l.LogDir, RunName(index)+".txt")
}

func (l Layout) OutputPath(index string) string {
	return filepath.Join(l.OutputDir, RunName(index)+"."+l.OutputSuffix)
}

// Descriptor is everything needed to render and run one member of a batch.
type Descriptor struct {
	Index      int
	Settings   map[string]interface{}
	MacroPath  string
	OutputPath string
	LogPath    string
}

// Enumerator produces the descriptors of a batch.
type Enumerator struct {
	// First run index; 0 for local execution, 1 for cluster array jobs.
	Base int
	// Setting that receives the swept value. Ignored if Sweep is empty.
	SweepKey string
	// Optional per-run values, one per run, assigned by position.
	Sweep  []float64
	Layout Layout
}

// Enumerate returns the descriptors for positions skipBefore..runCount-1 of a batch of runCount runs.
// Skipped positions still consume an index, so a resumed batch keeps the numbering of the original one:
// the first descriptor returned has index Base+skipBefore.
//
// Each descriptor gets its own copy of settings, with the run number, the output file and
// the swept value (if any) added.
func (e *Enumerator) Enumerate(runCount, skipBefore int, settings map[string]interface{}) ([]Descriptor, error) {
	if runCount < 0 {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "runs",
			Value:   runCount,
			Message: "must not be negative",
		})
	}
	if len(e.Sweep) > 0 && len(e.Sweep) != runCount {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "sweep",
			Value:   len(e.Sweep),
			Message: fmt.Sprintf("sweep has %d values but the batch has %d runs", len(e.Sweep), runCount),
		})
	}
	if skipBefore < 0 || skipBefore > runCount {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "skip",
			Value:   skipBefore,
			Message: fmt.Sprintf("must be between 0 and %d", runCount),
		})
	}

	rv := make([]Descriptor, 0, runCount-skipBefore)
	for position := 0; position < runCount; position++ {
		index := e.Base + position
		if position < skipBefore {
			continue
		}
		name := strconv.Itoa(index)

		resolved := make(map[string]interface{}, len(settings)+3)
		for k, v := range settings {
			resolved[k] = v
		}
		resolved[RunNumberKey] = index
		resolved[OutputFileKey] = e.Layout.OutputPath(name)
		if len(e.Sweep) > 0 {
			resolved[e.SweepKey] = e.Sweep[position]
		}

		rv = append(rv, Descriptor{
			Index:      index,
			Settings:   resolved,
			MacroPath:  e.Layout.MacroPath(name),
			OutputPath: e.Layout.OutputPath(name),
			LogPath:    e.Layout.LogPath(name),
		})
	}
	return rv, nil
}
