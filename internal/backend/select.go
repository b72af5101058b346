package backend

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	commonslices "github.com/pg4sim/pg4launch/internal/common/slices"
)

// Kind names a backend variant.
type Kind string

const (
	// KindAuto probes for a cluster client, then a pool tool, then falls back to Sequential.
	KindAuto       Kind = "auto"
	KindCluster    Kind = "cluster"
	KindParallel   Kind = "parallel"
	KindPool       Kind = "pool"
	KindSequential Kind = "sequential"
)

var validKinds = []Kind{KindAuto, KindCluster, KindParallel, KindPool, KindSequential}

// ParseKind parses a backend kind; the empty string means KindAuto.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindAuto, nil
	}
	for _, k := range validKinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", errors.WithStack(&launcherrors.ErrInvalidArgument{
		Name:    "backend",
		Value:   s,
		Message: "valid backends are " + strings.Join(commonslices.Map(validKinds, func(k Kind) string { return string(k) }), ", "),
	})
}

const (
	DefaultClusterClient = "qsub"
	DefaultPoolTool      = "parallel"
	DefaultQueue         = "exclusive"
	DefaultPriority      = -500
	DefaultWorkers       = 4
	DefaultNiceness      = 15
)

// Config holds the options of all backends.
type Config struct {
	Kind Kind `yaml:"kind"`
	// Cluster array jobs.
	ClusterClient string   `yaml:"clusterClient"`
	Queue         string   `yaml:"queue"`
	Priority      int      `yaml:"priority"`
	Exports       []string `yaml:"exports"`
	// Local pools.
	PoolTool string `yaml:"poolTool"`
	Workers  int    `yaml:"workers" validate:"gte=0"`
	Niceness int    `yaml:"niceness" validate:"gte=0,lte=19"`
	// Directory for job lists and submission documents.
	ScratchDir string `yaml:"scratchDir"`
}

// DefaultConfig matches what the launcher does without a config file.
func DefaultConfig() Config {
	return Config{
		Kind:          KindAuto,
		ClusterClient: DefaultClusterClient,
		Queue:         DefaultQueue,
		Priority:      DefaultPriority,
		Exports:       []string{"PG4_BIN", "PG4_OUTDIR", "PG4_AUXOUT", "G4WORKDIR"},
		PoolTool:      DefaultPoolTool,
		Workers:       DefaultWorkers,
		Niceness:      DefaultNiceness,
		ScratchDir:    ".",
	}
}

// Factory builds backends from a Config.
type Factory struct {
	Config   Config
	Fs       afero.Fs
	Executor Executor
	// Overridable for tests.
	LookPath  func(string) (string, error)
	LookupEnv func(string) (string, bool)
}

func NewFactory(config Config) *Factory {
	return &Factory{
		Config:    config,
		Fs:        afero.NewOsFs(),
		Executor:  NewProcessExecutor(),
		LookPath:  exec.LookPath,
		LookupEnv: os.LookupEnv,
	}
}

// New returns the backend for a batch called name. With KindAuto the choice is made here, once,
// by probing for the cluster client and then the pool tool. skipCluster leaves the cluster out of
// the probe, for work that should stay on the local host.
func (f *Factory) New(name string, skipCluster bool) (Backend, error) {
	kind := f.Config.Kind
	if kind == "" || kind == KindAuto {
		kind = f.probe(skipCluster)
	}
	var b Backend
	switch kind {
	case KindCluster:
		b = f.cluster(name)
	case KindParallel:
		b = NewParallel(name, f.Fs, f.Config.ScratchDir, &GNUParallel{
			Tool:     orDefault(f.Config.PoolTool, DefaultPoolTool),
			Workers:  f.Config.Workers,
			Niceness: f.Config.Niceness,
			Executor: f.Executor,
		})
	case KindPool:
		b = NewParallel(name, f.Fs, f.Config.ScratchDir, &ProcessPool{
			Fs:       f.Fs,
			Workers:  f.Config.Workers,
			Niceness: f.Config.Niceness,
			Executor: f.Executor,
		})
	case KindSequential:
		b = NewSequential(name, f.Executor)
	default:
		_, err := ParseKind(string(kind))
		return nil, err
	}
	log.WithField("backend", name).Debugf("Using %s backend", kind)
	return b, nil
}

func (f *Factory) probe(skipCluster bool) Kind {
	if !skipCluster && f.available(orDefault(f.Config.ClusterClient, DefaultClusterClient)) {
		return KindCluster
	}
	if f.available(orDefault(f.Config.PoolTool, DefaultPoolTool)) {
		return KindParallel
	}
	return KindSequential
}

func (f *Factory) available(tool string) bool {
	lookPath := f.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(tool)
	return err == nil
}

func (f *Factory) cluster(name string) *Cluster {
	c := NewCluster(name, f.Fs, f.Executor)
	c.Client = orDefault(f.Config.ClusterClient, DefaultClusterClient)
	c.Queue = f.Config.Queue
	c.Priority = f.Config.Priority
	c.Exports = f.Config.Exports
	c.ScratchDir = f.Config.ScratchDir
	if f.LookupEnv != nil {
		c.LookupEnv = f.LookupEnv
	}
	return c
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
