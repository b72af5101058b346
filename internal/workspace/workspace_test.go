package workspace

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

func testEnvironment() Environment {
	return Environment{OutputRoot: "/data/pg4", AuxRoot: "/scratch/aux", Binary: "/opt/pg4/PROSPECT-G4"}
}

func TestPrepare(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManager(fs, testEnvironment())

	w, err := m.Prepare("P2k_IBD")
	require.NoError(t, err)
	assert.Equal(t, Workspace{
		OutputDir: "/data/pg4/P2k_IBD",
		MacroDir:  "/scratch/aux/mac/P2k_IBD",
		LogDir:    "/scratch/aux/log/P2k_IBD",
	}, w)

	for _, dir := range []string{w.OutputDir, w.MacroDir, w.LogDir} {
		exists, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}
}

func TestPrepare_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManager(fs, testEnvironment())

	first, err := m.Prepare("DIMA-Co60")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, first.MacroDir+"/Run_0.mac", []byte("keep"), 0o644))

	second, err := m.Prepare("DIMA-Co60")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	contents, err := afero.ReadFile(fs, first.MacroDir+"/Run_0.mac")
	require.NoError(t, err)
	assert.Equal(t, "keep", string(contents))
}

func TestPrepare_BlockedCreation(t *testing.T) {
	m := NewManager(afero.NewReadOnlyFs(afero.NewMemMapFs()), testEnvironment())

	_, err := m.Prepare("P2k_IBD")
	require.Error(t, err)
	assert.Equal(t, launcherrors.KindDirectory, launcherrors.KindFromError(err))
}

func TestPaths_InvalidName(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), testEnvironment())
	for _, name := range []string{"", "a/b", "..", "."} {
		_, err := m.Paths(name)
		assert.True(t, launcherrors.IsConfiguration(err), name)
	}
}

func TestPaths_MissingRoots(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), Environment{AuxRoot: "/aux"})
	_, err := m.Paths("P2k_IBD")
	var missing *launcherrors.ErrMissingEnvironment
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, OutputRootVariable, missing.Variable)

	m = NewManager(afero.NewMemMapFs(), Environment{OutputRoot: "/out"})
	_, err = m.Paths("P2k_IBD")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, AuxRootVariable, missing.Variable)
}

func TestEnvironment_Require(t *testing.T) {
	assert.NoError(t, testEnvironment().RequireSimulation())

	err := Environment{OutputRoot: "/out", AuxRoot: "/aux"}.RequireSimulation()
	var missing *launcherrors.ErrMissingEnvironment
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, BinaryVariable, missing.Variable)

	err = testEnvironment().RequireResponse()
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, P2XAnalysisVariable, missing.Variable)
}

func TestEnvironmentFromViper(t *testing.T) {
	t.Setenv(OutputRootVariable, "/env/out")
	t.Setenv(AuxRootVariable, "/env/aux")
	t.Setenv(BinaryVariable, "")

	v := viper.New()
	v.Set("environment.binary", "/from/config/PROSPECT-G4")

	env := EnvironmentFromViper(v)
	assert.Equal(t, "/env/out", env.OutputRoot)
	assert.Equal(t, "/env/aux", env.AuxRoot)
	assert.Equal(t, "/from/config/PROSPECT-G4", env.Binary)
}
