package runs

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

var testLayout = Layout{
	MacroDir:     "/aux/mac/Test",
	OutputDir:    "/out/Test",
	LogDir:       "/aux/log/Test",
	OutputSuffix: "h5",
}

func TestEnumerate_CountAndContiguousIndices(t *testing.T) {
	for _, base := range []int{0, 1} {
		for n := 0; n <= 6; n++ {
			for s := 0; s <= n; s++ {
				e := &Enumerator{Base: base, Layout: testLayout}
				descriptors, err := e.Enumerate(n, s, nil)
				require.NoError(t, err)
				require.Len(t, descriptors, n-s, "base=%d n=%d s=%d", base, n, s)
				for i, d := range descriptors {
					assert.Equal(t, base+s+i, d.Index, "base=%d n=%d s=%d", base, n, s)
				}
			}
		}
	}
}

func TestEnumerate_SweepAssignedByPosition(t *testing.T) {
	e := &Enumerator{Base: 0, SweepKey: "gun_energy", Sweep: []float64{1, 2, 3}, Layout: testLayout}
	descriptors, err := e.Enumerate(3, 0, map[string]interface{}{"nevents": 100})
	require.NoError(t, err)

	var indices []int
	var values []interface{}
	for _, d := range descriptors {
		indices = append(indices, d.Index)
		values = append(values, d.Settings["gun_energy"])
	}
	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, values)
}

func TestEnumerate_SkipKeepsNumberingAndSweepPosition(t *testing.T) {
	e := &Enumerator{Base: 1, SweepKey: "gun_energy", Sweep: []float64{10, 20, 30, 40}, Layout: testLayout}
	descriptors, err := e.Enumerate(4, 2, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, 3, descriptors[0].Index)
	assert.Equal(t, 30.0, descriptors[0].Settings["gun_energy"])
	assert.Equal(t, 4, descriptors[1].Index)
	assert.Equal(t, 40.0, descriptors[1].Settings["gun_energy"])
}

func TestEnumerate_Paths(t *testing.T) {
	e := &Enumerator{Base: 1, Layout: testLayout}
	descriptors, err := e.Enumerate(1, 0, map[string]interface{}{"simName": "Test"})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, "/aux/mac/Test/Run_1.mac", d.MacroPath)
	assert.Equal(t, "/aux/log/Test/Run_1.txt", d.LogPath)
	assert.Equal(t, "/out/Test/Run_1.h5", d.OutputPath)
	assert.Equal(t, map[string]interface{}{
		"simName": "Test",
		"run_num": 1,
		"outfile": "/out/Test/Run_1.h5",
	}, d.Settings)
}

func TestEnumerate_DoesNotShareSettings(t *testing.T) {
	base := map[string]interface{}{"nevents": 10}
	e := &Enumerator{Layout: testLayout}
	descriptors, err := e.Enumerate(2, 0, base)
	require.NoError(t, err)

	descriptors[0].Settings["nevents"] = 99
	assert.Equal(t, 10, descriptors[1].Settings["nevents"])
	assert.Equal(t, map[string]interface{}{"nevents": 10}, base)
}

func TestEnumerate_Errors(t *testing.T) {
	tests := map[string]struct {
		sweep []float64
		runs  int
		skip  int
	}{
		"sweep too short":  {[]float64{1, 2}, 3, 0},
		"sweep too long":   {[]float64{1, 2, 3, 4}, 3, 0},
		"negative skip":    {nil, 3, -1},
		"skip beyond runs": {nil, 3, 4},
		"negative runs":    {nil, -1, 0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := &Enumerator{SweepKey: "gun_energy", Sweep: tc.sweep, Layout: testLayout}
			_, err := e.Enumerate(tc.runs, tc.skip, nil)
			require.Error(t, err)
			assert.True(t, launcherrors.IsConfiguration(err))
		})
	}
}

func TestLogRange(t *testing.T) {
	for n := 2; n <= 20; n++ {
		values, err := LogRange(n, 0.01, 100)
		require.NoError(t, err)
		require.Len(t, values, n)
		assert.InDelta(t, 0.01, values[0], 1e-12)
		assert.InDelta(t, 100, values[n-1], 1e-9)
		for i := 1; i < n; i++ {
			assert.Greater(t, values[i], values[i-1])
		}
	}
}

func TestLogRange_GeometricSpacing(t *testing.T) {
	values, err := LogRange(5, 1, 10000)
	require.NoError(t, err)
	for i, want := range []float64{1, 10, 100, 1000, 10000} {
		assert.InEpsilon(t, want, values[i], 1e-9)
	}
}

func TestLogRange_Decreasing(t *testing.T) {
	values, err := LogRange(4, 8, 1)
	require.NoError(t, err)
	for i := 1; i < len(values); i++ {
		assert.Less(t, values[i], values[i-1])
	}
}

func TestLogRange_SingleValue(t *testing.T) {
	values, err := LogRange(1, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, values)
}

func TestLogRange_Errors(t *testing.T) {
	_, err := LogRange(0, 1, 2)
	assert.True(t, launcherrors.IsConfiguration(err))
	_, err = LogRange(3, 0, 2)
	assert.True(t, launcherrors.IsConfiguration(err))
	_, err = LogRange(3, 1, -2)
	assert.True(t, launcherrors.IsConfiguration(err))
}

func TestShuffle(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	shuffled := Shuffle(values, rand.New(rand.NewSource(1)))

	// The input is left alone.
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, values)

	sorted := append([]float64(nil), shuffled...)
	sort.Float64s(sorted)
	assert.Equal(t, values, sorted)

	again := Shuffle(values, rand.New(rand.NewSource(1)))
	assert.Equal(t, shuffled, again)
}
