package launcher

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/workspace"
)

var responseEnv = workspace.Environment{
	OutputRoot:  "/out",
	P2XAnalysis: "/opt/p2x",
}

func responseFs(t *testing.T, files ...string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out/P2k_IBD", 0o755))
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, "/out/P2k_IBD/"+f, nil, 0o644))
	}
	return fs
}

func testResponseLauncher(t *testing.T, fs afero.Fs, b *fakeBackend) *ResponseLauncher {
	r, err := NewResponseLauncher("P2k_IBD", responseEnv, b)
	require.NoError(t, err)
	r.Fs = fs
	return r
}

func TestResponseLauncher_LatestRun(t *testing.T) {
	fs := responseFs(t,
		"Run_0.h5", "Run_0.h5.xml",
		"Run_7.h5", "Run_7.h5.xml",
		"Run_12_DetSim.h5",
		"Run_30.root",
		"Run_x.h5",
		"Other_40.h5",
	)
	require.NoError(t, fs.MkdirAll("/out/P2k_IBD/Run_50.h5", 0o755))
	r := testResponseLauncher(t, fs, &fakeBackend{name: "P2k_IBD_Response"})

	latest, found, err := r.LatestRun()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, latest)
}

func TestResponseLauncher_LatestRun_OnlyResponseOutputs(t *testing.T) {
	fs := responseFs(t, "Run_3_DetSim.h5", "Run_4_DetSim.h5", "Run_5.h5.xml")
	r := testResponseLauncher(t, fs, &fakeBackend{name: "P2k_IBD_Response"})

	_, found, err := r.LatestRun()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResponseLauncher_Command(t *testing.T) {
	r := testResponseLauncher(t, afero.NewMemMapFs(), &fakeBackend{})

	command, err := r.Command()
	require.NoError(t, err)
	assert.Equal(t,
		"if test -f /out/P2k_IBD/Run_{i}.h5.xml; then /opt/p2x/Examples/CalcDetectorResponse /out/P2k_IBD/Run_{i}.h5; fi",
		string(command))

	r.XArgs = "--verbose 2"
	command, err = r.Command()
	require.NoError(t, err)
	assert.Equal(t, "/opt/p2x/Examples/CalcDetectorResponse /out/P2k_IBD/Run_5.h5 --verbose 2; fi",
		command.Expand("5")[len("if test -f /out/P2k_IBD/Run_5.h5.xml; then "):])
}

func TestResponseLauncher_Launch(t *testing.T) {
	tests := map[string]struct {
		start         int
		lastExclusive int
	}{
		"local numbering":   {start: 0, lastExclusive: 8},
		"cluster numbering": {start: 1, lastExclusive: 7},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b := &fakeBackend{name: "P2k_IBD_Response", start: tc.start}
			r := testResponseLauncher(t, responseFs(t, "Run_3.h5", "Run_7.h5", "Run_7_DetSim.h5"), b)

			require.NoError(t, r.Launch(context.Background()))
			require.Len(t, b.submissions, 1)
			assert.Equal(t, 0, b.submissions[0].first)
			assert.Equal(t, tc.lastExclusive, b.submissions[0].lastExclusive)
		})
	}
}

func TestResponseLauncher_NothingToDo(t *testing.T) {
	b := &fakeBackend{name: "P2k_IBD_Response"}
	r := testResponseLauncher(t, responseFs(t, "Run_3_DetSim.h5"), b)
	require.NoError(t, r.Launch(context.Background()))
	assert.Empty(t, b.submissions)

	// Only run 0 exists, which has no array task when numbering starts at 1.
	b = &fakeBackend{name: "P2k_IBD_Response", start: 1}
	r = testResponseLauncher(t, responseFs(t, "Run_0.h5"), b)
	require.NoError(t, r.Launch(context.Background()))
	assert.Empty(t, b.submissions)
}

func TestResponseLauncher_MissingOutputDir(t *testing.T) {
	b := &fakeBackend{name: "P2k_IBD_Response"}
	r := testResponseLauncher(t, afero.NewMemMapFs(), b)
	err := r.Launch(context.Background())
	assert.True(t, launcherrors.IsConfiguration(err))
	assert.Empty(t, b.submissions)
}

func TestNewResponseLauncher(t *testing.T) {
	_, err := NewResponseLauncher("P2k_IBD", workspace.Environment{OutputRoot: "/out"}, &fakeBackend{})
	var missing *launcherrors.ErrMissingEnvironment
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, workspace.P2XAnalysisVariable, missing.Variable)

	_, err = NewResponseLauncher("../P2k_IBD", responseEnv, &fakeBackend{})
	assert.True(t, launcherrors.IsConfiguration(err))
}
