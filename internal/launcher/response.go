package launcher

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pg4sim/pg4launch/internal/backend"
	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/workspace"
)

// ResponseSuffix is appended to the simulation name to name the backend of a response batch.
const ResponseSuffix = "_Response"

// ResponseCalculator is the analysis program run on each output file, relative to MPM_P2X_ANALYSIS.
const ResponseCalculator = "Examples/CalcDetectorResponse"

var simulationOutput = regexp.MustCompile(`^Run_(\d+)\.h5$`)

// ResponseLauncher runs the detector response calculation over the HDF5 outputs of a finished batch.
type ResponseLauncher struct {
	SimName string
	// Extra arguments passed to the response calculator.
	XArgs   string
	Backend backend.Backend
	Env     workspace.Environment
	Fs      afero.Fs
}

func NewResponseLauncher(simName string, env workspace.Environment, b backend.Backend) (*ResponseLauncher, error) {
	if err := env.RequireResponse(); err != nil {
		return nil, err
	}
	if err := workspace.ValidateName(simName); err != nil {
		return nil, err
	}
	return &ResponseLauncher{
		SimName: simName,
		Backend: b,
		Env:     env,
		Fs:      afero.NewOsFs(),
	}, nil
}

// OutputDir is the directory holding the simulation outputs.
func (r *ResponseLauncher) OutputDir() string {
	return filepath.Join(r.Env.OutputRoot, r.SimName)
}

// LatestRun returns the highest run number among the simulation outputs.
// Files produced by the response calculation itself (Run_<n>_DetSim.h5) don't match.
// found is false if there are no outputs.
func (r *ResponseLauncher) LatestRun() (latest int, found bool, err error) {
	dir := r.OutputDir()
	if exists, err := afero.DirExists(r.Fs, dir); err != nil || !exists {
		return 0, false, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "simulation",
			Value:   r.SimName,
			Message: fmt.Sprintf("no output directory %s", dir),
		})
	}
	matches, err := afero.Glob(r.Fs, filepath.Join(dir, "Run_*.h5"))
	if err != nil {
		return 0, false, errors.Wrapf(err, "error listing outputs in %s", dir)
	}
	for _, path := range matches {
		match := simulationOutput.FindStringSubmatch(filepath.Base(path))
		if match == nil {
			continue
		}
		if info, err := r.Fs.Stat(path); err != nil || info.IsDir() {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if !found || n > latest {
			latest, found = n, true
		}
	}
	return latest, found, nil
}

// Command is the job run for every output file. Runs whose output has no .h5.xml description are skipped.
func (r *ResponseLauncher) Command() (backend.CommandTemplate, error) {
	dir := r.OutputDir()
	output := filepath.Join(dir, "Run_"+backend.RunIndexToken+".h5")
	command := fmt.Sprintf("if test -f %s.xml; then %s %s",
		output, filepath.Join(r.Env.P2XAnalysis, ResponseCalculator), output)
	if r.XArgs != "" {
		command += " " + r.XArgs
	}
	return backend.NewCommandTemplate(command + "; fi")
}

// Launch submits one response job per run index up to the latest simulation output.
func (r *ResponseLauncher) Launch(ctx context.Context) error {
	logger := log.WithFields(log.Fields{"batch": r.SimName, "backend": r.Backend.Name()})

	latest, found, err := r.LatestRun()
	if err != nil {
		return err
	}
	if !found {
		logger.Infof("No simulation outputs in %s; nothing to do", r.OutputDir())
		return nil
	}
	command, err := r.Command()
	if err != nil {
		return err
	}

	// Positions map to indices StartIndex()..latest.
	last := latest + 1 - r.Backend.StartIndex()
	if last <= 0 {
		logger.Infof("No runs numbered from %d in %s", r.Backend.StartIndex(), r.OutputDir())
		return nil
	}
	logger.Infof("Submitting detector response for runs %d-%d", r.Backend.StartIndex(), latest)
	return r.Backend.Submit(ctx, command, 0, last)
}
