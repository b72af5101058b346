package launcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/pg4sim/pg4launch/internal/backend"
	commonconfig "github.com/pg4sim/pg4launch/internal/common/config"
	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/launcher/build"
	"github.com/pg4sim/pg4launch/internal/launcher/configuration"
	"github.com/pg4sim/pg4launch/internal/workspace"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// Filesystem for templates, workspaces and scratch files.
	Fs afero.Fs
	// NewFactory builds the backend factory for a backend configuration.
	// Tests replace it to avoid probing the host and spawning processes.
	NewFactory func(config backend.Config) *backend.Factory
	Killer     *backend.ProcessKiller
	// Source of randomness for shuffled sweeps without a seed.
	Random *rand.Rand
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Config configuration.LauncherConfiguration
	Env    workspace.Environment
}

// NewApp instantiates an App with default parameters, including standard output
// and a time-seeded random source.
func NewApp() *App {
	return &App{
		Params: &Params{
			Config: configuration.LauncherConfiguration{Backend: backend.DefaultConfig()},
			Env:    workspace.EnvironmentFromOS(),
		},
		Out:        os.Stdout,
		Fs:         afero.NewOsFs(),
		NewFactory: backend.NewFactory,
		Killer:     backend.NewProcessKiller(),
		Random:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LaunchOptions are the per-invocation overrides of the launch command.
type LaunchOptions struct {
	// Number of runs; negative means the batch's own run count.
	Runs int
	// Runs before this position are neither rendered nor submitted.
	Skip int
	// Overrides both the configured and the per-batch backend kind.
	Backend backend.Kind
}

// ResponseOptions are the options of the response command.
type ResponseOptions struct {
	// Run locally even if a cluster is available.
	ForceParallel bool
	XArgs         string
}

// Batches validates the configuration and returns the batches it defines, presets included.
func (a *App) Batches() (map[string]configuration.BatchConfig, error) {
	if err := a.Params.Config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return nil, err
	}
	return configuration.ResolveBatches(a.Params.Config.Batches)
}

func (a *App) batch(name string) (configuration.BatchConfig, error) {
	batches, err := a.Batches()
	if err != nil {
		return configuration.BatchConfig{}, err
	}
	batch, ok := batches[name]
	if !ok {
		return configuration.BatchConfig{}, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "batch",
			Value:   name,
			Message: fmt.Sprintf("unknown batch; known batches are %v", configuration.BatchNames(batches)),
		})
	}
	return batch, nil
}

func (a *App) factory() *backend.Factory {
	f := a.NewFactory(a.Params.Config.Backend)
	if a.Fs != nil {
		f.Fs = a.Fs
	}
	return f
}

// Launch launches the named batches one after the other.
// All batches are checked before the first one is launched, so a typo in the last name doesn't
// leave the first batches running.
func (a *App) Launch(ctx context.Context, names []string, opts LaunchOptions) error {
	if len(names) == 0 {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "batch",
			Value:   names,
			Message: "no batch given",
		})
	}
	batches, err := a.Batches()
	if err != nil {
		return err
	}

	type launch struct {
		launcher *Launcher
		runs     int
	}
	launches := make([]launch, 0, len(names))
	for _, name := range names {
		batch, ok := batches[name]
		if !ok {
			return errors.WithStack(&launcherrors.ErrInvalidArgument{
				Name:    "batch",
				Value:   name,
				Message: fmt.Sprintf("unknown batch; known batches are %v", configuration.BatchNames(batches)),
			})
		}
		f := a.factory()
		switch {
		case opts.Backend != "":
			f.Config.Kind = opts.Backend
		case batch.Backend != "":
			f.Config.Kind = batch.Backend
		}
		b, err := f.New(batch.Name, false)
		if err != nil {
			return err
		}
		l, err := New(batch, a.Params.Env, b, WithFs(a.Fs), WithRand(a.Random))
		if err != nil {
			return err
		}
		runs := batch.Runs
		if opts.Runs >= 0 {
			runs = opts.Runs
		}
		launches = append(launches, launch{launcher: l, runs: runs})
	}

	for _, p := range launches {
		if err := p.launcher.Launch(ctx, p.runs, opts.Skip); err != nil {
			return err
		}
	}
	return nil
}

// Response launches the detector response calculation for the outputs of simulation simName.
func (a *App) Response(ctx context.Context, simName string, opts ResponseOptions) error {
	if err := a.Params.Env.RequireResponse(); err != nil {
		return err
	}
	b, err := a.factory().New(simName+ResponseSuffix, opts.ForceParallel)
	if err != nil {
		return err
	}
	r, err := NewResponseLauncher(simName, a.Params.Env, b)
	if err != nil {
		return err
	}
	r.XArgs = opts.XArgs
	r.Fs = a.Fs
	return r.Launch(ctx)
}

// Kill stops every running pool tool process, which stops all local jobs started through it.
func (a *App) Kill() error {
	tool := filepath.Base(a.Params.Config.Backend.PoolTool)
	if tool == "." || tool == "" {
		tool = backend.DefaultPoolTool
	}
	n, err := a.Killer.KillByName(tool)
	if err != nil {
		return err
	}
	log.Infof("Killed %d %s process(es)", n, tool)
	return nil
}

// List prints a table of the known batches.
func (a *App) List() error {
	batches, err := a.Batches()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEVENTS\tRUNS\tTEMPLATE\tOUTPUT")
	for _, name := range configuration.BatchNames(batches) {
		b := batches[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", b.Name, b.Events, b.Runs, b.Template, b.OutputSuffix)
	}
	return w.Flush()
}

// Describe prints the fully resolved definition of a batch as YAML.
func (a *App) Describe(name string) error {
	batch, err := a.batch(name)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(batch)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = a.Out.Write(out)
	return errors.WithStack(err)
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return w.Flush()
}
