package backend

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProc(t *testing.T, processes map[int]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for pid, comm := range processes {
		path := filepath.Join("/proc", strconv.Itoa(pid), "comm")
		require.NoError(t, afero.WriteFile(fs, path, []byte(comm+"\n"), 0o444))
	}
	require.NoError(t, afero.WriteFile(fs, "/proc/uptime", []byte("1.0 1.0\n"), 0o444))
	require.NoError(t, fs.MkdirAll("/proc/sys", 0o555))
	return fs
}

func TestProcessKiller_KillByName(t *testing.T) {
	fs := fakeProc(t, map[int]string{
		900010:      "bash",
		900011:      "parallel",
		900012:      "parallel",
		900013:      "PROSPECT-G4",
		os.Getpid(): "parallel",
	})
	var killed []int
	k := &ProcessKiller{Fs: fs, ProcRoot: "/proc", Kill: func(pid int) error {
		killed = append(killed, pid)
		return nil
	}}

	n, err := k.KillByName("parallel")
	require.NoError(t, err)
	sort.Ints(killed)
	assert.Equal(t, []int{900011, 900012}, killed)
	assert.Equal(t, 2, n)
}

func TestProcessKiller_SkipsExitedProcesses(t *testing.T) {
	fs := fakeProc(t, map[int]string{21: "parallel", 22: "parallel"})
	k := &ProcessKiller{Fs: fs, ProcRoot: "/proc", Kill: func(pid int) error {
		if pid == 21 {
			return syscall.ESRCH
		}
		return nil
	}}

	n, err := k.KillByName("parallel")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessKiller_KillFailure(t *testing.T) {
	fs := fakeProc(t, map[int]string{31: "parallel"})
	k := &ProcessKiller{Fs: fs, ProcRoot: "/proc", Kill: func(int) error {
		return errors.WithStack(syscall.EPERM)
	}}

	n, err := k.KillByName("parallel")
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestProcessKiller_NoProcRoot(t *testing.T) {
	k := &ProcessKiller{Fs: afero.NewMemMapFs(), ProcRoot: "/proc", Kill: func(int) error { return nil }}
	_, err := k.KillByName("parallel")
	assert.Error(t, err)
}
