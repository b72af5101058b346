// Package workspace derives and creates the directories a batch writes into.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

// Environment variables read by the launcher.
const (
	OutputRootVariable  = "PG4_OUTDIR"
	AuxRootVariable     = "PG4_AUXOUT"
	BinaryVariable      = "PG4_BIN"
	P2XAnalysisVariable = "MPM_P2X_ANALYSIS"
)

// Environment holds the process-wide locations the launcher works with.
type Environment struct {
	// Root of the simulation output tree.
	OutputRoot string
	// Root of the rendered macro and log trees.
	AuxRoot string
	// Simulation executable.
	Binary string
	// Analysis tree containing Examples/CalcDetectorResponse.
	P2XAnalysis string
}

// EnvironmentFromViper reads the environment through v, so that values can also come from a config file.
func EnvironmentFromViper(v *viper.Viper) Environment {
	bind := func(key, variable string) string {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, variable)
		return v.GetString(key)
	}
	return Environment{
		OutputRoot:  bind("environment.outputRoot", OutputRootVariable),
		AuxRoot:     bind("environment.auxRoot", AuxRootVariable),
		Binary:      bind("environment.binary", BinaryVariable),
		P2XAnalysis: bind("environment.p2xAnalysis", P2XAnalysisVariable),
	}
}

// EnvironmentFromOS reads the environment straight from the process environment.
func EnvironmentFromOS() Environment {
	return Environment{
		OutputRoot:  os.Getenv(OutputRootVariable),
		AuxRoot:     os.Getenv(AuxRootVariable),
		Binary:      os.Getenv(BinaryVariable),
		P2XAnalysis: os.Getenv(P2XAnalysisVariable),
	}
}

// RequireSimulation checks the values needed to launch simulations.
func (e Environment) RequireSimulation() error {
	return requireSet(map[string]string{
		OutputRootVariable: e.OutputRoot,
		AuxRootVariable:    e.AuxRoot,
		BinaryVariable:     e.Binary,
	})
}

// RequireResponse checks the values needed to launch the detector response stage.
func (e Environment) RequireResponse() error {
	return requireSet(map[string]string{
		OutputRootVariable:  e.OutputRoot,
		P2XAnalysisVariable: e.P2XAnalysis,
	})
}

func requireSet(values map[string]string) error {
	// Report in a fixed order so the first missing variable is stable.
	for _, variable := range []string{OutputRootVariable, AuxRootVariable, BinaryVariable, P2XAnalysisVariable} {
		value, needed := values[variable]
		if needed && value == "" {
			return errors.WithStack(&launcherrors.ErrMissingEnvironment{Variable: variable})
		}
	}
	return nil
}

// Workspace is the directory triple of one batch.
type Workspace struct {
	OutputDir string
	MacroDir  string
	LogDir    string
}

func (w Workspace) dirs() []string {
	return []string{w.OutputDir, w.MacroDir, w.LogDir}
}

// Manager creates workspaces under the configured roots.
type Manager struct {
	Fs         afero.Fs
	OutputRoot string
	AuxRoot    string
}

func NewManager(fs afero.Fs, env Environment) *Manager {
	return &Manager{Fs: fs, OutputRoot: env.OutputRoot, AuxRoot: env.AuxRoot}
}

// ValidateName checks that batchName can be used as a directory name.
func ValidateName(batchName string) error {
	if batchName == "" || strings.ContainsRune(batchName, filepath.Separator) || batchName == "." || batchName == ".." {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "name",
			Value:   batchName,
			Message: "batch name must be a single non-empty path segment",
		})
	}
	return nil
}

// Paths returns the workspace of batchName without touching the filesystem.
func (m *Manager) Paths(batchName string) (Workspace, error) {
	if err := ValidateName(batchName); err != nil {
		return Workspace{}, err
	}
	if m.OutputRoot == "" {
		return Workspace{}, errors.WithStack(&launcherrors.ErrMissingEnvironment{Variable: OutputRootVariable})
	}
	if m.AuxRoot == "" {
		return Workspace{}, errors.WithStack(&launcherrors.ErrMissingEnvironment{Variable: AuxRootVariable})
	}
	return Workspace{
		OutputDir: filepath.Join(m.OutputRoot, batchName),
		MacroDir:  filepath.Join(m.AuxRoot, "mac", batchName),
		LogDir:    filepath.Join(m.AuxRoot, "log", batchName),
	}, nil
}

// Prepare returns the workspace of batchName, creating any of its directories that don't exist yet.
// Calling it again for the same batch is harmless.
func (m *Manager) Prepare(batchName string) (Workspace, error) {
	w, err := m.Paths(batchName)
	if err != nil {
		return Workspace{}, err
	}
	for _, dir := range w.dirs() {
		if err := m.Fs.MkdirAll(dir, 0o755); err != nil {
			return Workspace{}, errors.WithStack(&launcherrors.ErrDirectory{Path: dir, Cause: err})
		}
	}
	log.WithField("batch", batchName).Debugf("Prepared workspace %s, %s, %s", w.OutputDir, w.MacroDir, w.LogDir)
	return w, nil
}
