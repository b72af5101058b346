// Package launcher turns a batch definition into rendered macros and hands the runs to a backend.
package launcher

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"

	"github.com/pg4sim/pg4launch/internal/backend"
	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/launcher/configuration"
	"github.com/pg4sim/pg4launch/internal/render"
	"github.com/pg4sim/pg4launch/internal/runs"
	"github.com/pg4sim/pg4launch/internal/workspace"
)

// Settings every template can refer to, in addition to runs.RunNumberKey and runs.OutputFileKey.
const (
	EventCountKey   = "nevents"
	SimNameKey      = "simName"
	PreinitKey      = "preinit"
	RecLevelKey     = "reclevel"
	OutputSuffixKey = "out_sfx"
)

// Launcher launches one batch through one backend.
// The backend is fixed when the Launcher is created and used for every launch.
type Launcher struct {
	batch   configuration.BatchConfig
	env     workspace.Environment
	backend backend.Backend
	fs      afero.Fs
	rng     *rand.Rand
}

type Option func(*Launcher)

// WithFs makes the launcher read templates and write workspaces through fs.
func WithFs(fs afero.Fs) Option {
	return func(l *Launcher) {
		l.fs = fs
	}
}

// WithRand sets the source used to shuffle sweeps that don't configure a seed.
func WithRand(rng *rand.Rand) Option {
	return func(l *Launcher) {
		l.rng = rng
	}
}

// New validates batch and returns a Launcher for it. The Launcher keeps its own copy of batch.
func New(batch configuration.BatchConfig, env workspace.Environment, b backend.Backend, opts ...Option) (*Launcher, error) {
	if b == nil {
		return nil, errors.New("no backend given")
	}
	batch = batch.Copy().WithDefaults()
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if err := env.RequireSimulation(); err != nil {
		return nil, err
	}
	l := &Launcher{
		batch:   batch,
		env:     env,
		backend: b,
		fs:      afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return l, nil
}

// Batch returns the launcher's copy of its batch, with defaults applied.
func (l *Launcher) Batch() configuration.BatchConfig {
	return l.batch.Copy()
}

func (l *Launcher) Backend() backend.Backend {
	return l.backend
}

// Launch renders a macro for every run from skipBefore up to runCount and submits those runs.
// Runs before skipBefore keep their index but are neither rendered nor submitted,
// which allows resuming a batch that was interrupted.
//
// Everything that can be checked without touching the filesystem is checked first,
// and all macros are rendered before any is written, so a configuration error leaves no files behind.
func (l *Launcher) Launch(ctx context.Context, runCount, skipBefore int) error {
	name := l.batch.Name
	logger := log.WithFields(log.Fields{"batch": name, "backend": l.backend.Name()})

	sweep, err := l.resolveSweep(runCount)
	if err != nil {
		return err
	}

	templatePath, err := homedir.Expand(l.batch.Template)
	if err != nil {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "template",
			Value:   l.batch.Template,
			Message: err.Error(),
		})
	}
	renderer, err := render.Load(l.fs, templatePath)
	if err != nil {
		return err
	}

	manager := workspace.NewManager(l.fs, l.env)
	ws, err := manager.Paths(name)
	if err != nil {
		return err
	}
	enumerator := &runs.Enumerator{
		Base:     l.backend.StartIndex(),
		SweepKey: l.batch.Sweep.SweepKey(),
		Sweep:    sweep,
		Layout: runs.Layout{
			MacroDir:     ws.MacroDir,
			OutputDir:    ws.OutputDir,
			LogDir:       ws.LogDir,
			OutputSuffix: l.batch.OutputSuffix,
		},
	}
	descriptors, err := enumerator.Enumerate(runCount, skipBefore, l.settings())
	if err != nil {
		return err
	}

	macros := make([]string, len(descriptors))
	for i, d := range descriptors {
		if macros[i], err = renderer.Render(d.Settings); err != nil {
			return err
		}
	}

	if _, err := manager.Prepare(name); err != nil {
		return err
	}
	for i, d := range descriptors {
		if err := render.WriteArtifact(l.fs, d.MacroPath, macros[i]); err != nil {
			return errors.WithStack(&launcherrors.ErrDirectory{Path: ws.MacroDir, Cause: err})
		}
	}
	if len(descriptors) > 0 {
		logger.WithField("macros", len(descriptors)).Infof(
			"Rendered %s to %s through %s",
			enumerator.Layout.MacroPath(fmt.Sprint(descriptors[0].Index)),
			enumerator.Layout.MacroPath(fmt.Sprint(descriptors[len(descriptors)-1].Index)),
			templatePath,
		)
	}

	command, err := backend.NewCommandTemplate(fmt.Sprintf(
		"%s %s > %s 2>&1",
		l.env.Binary,
		enumerator.Layout.MacroPath(backend.RunIndexToken),
		enumerator.Layout.LogPath(backend.RunIndexToken),
	))
	if err != nil {
		return err
	}

	logger.WithFields(log.Fields{"first": skipBefore, "last": runCount}).Infof("Submitting %d runs", runCount-skipBefore)
	return l.backend.Submit(ctx, command, skipBefore, runCount)
}

// settings returns the values every run of the batch shares.
// Configured settings take precedence over the built-in ones, whose keys they match
// regardless of case: a "simname" setting read from a config file replaces simName.
func (l *Launcher) settings() map[string]interface{} {
	rv := map[string]interface{}{
		EventCountKey:   l.batch.Events,
		SimNameKey:      l.batch.Name,
		PreinitKey:      l.batch.Preinit,
		RecLevelKey:     *l.batch.RecLevel,
		OutputSuffixKey: l.batch.OutputSuffix,
	}
	builtins := maps.Keys(rv)
	for k, v := range l.batch.Settings {
		for _, builtin := range builtins {
			if builtin != k && strings.EqualFold(builtin, k) {
				delete(rv, builtin)
			}
		}
		rv[k] = v
	}
	return rv
}

// resolveSweep returns one value per run, or nil if the batch has no sweep.
func (l *Launcher) resolveSweep(runCount int) ([]float64, error) {
	s := l.batch.Sweep
	if s == nil {
		return nil, nil
	}
	if s.Len() != runCount {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "sweep",
			Value:   s.Len(),
			Message: fmt.Sprintf("sweep has %d values but %d runs were requested", s.Len(), runCount),
		})
	}
	var values []float64
	if s.LogRange != nil {
		var err error
		values, err = runs.LogRange(s.LogRange.Count, s.LogRange.From, s.LogRange.To)
		if err != nil {
			return nil, err
		}
	} else {
		values = append([]float64(nil), s.Values...)
	}
	if s.Shuffle {
		rng := l.rng
		if s.Seed != 0 {
			rng = rand.New(rand.NewSource(s.Seed))
		}
		values = runs.Shuffle(values, rng)
	}
	return values, nil
}
