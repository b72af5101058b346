package backend

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ProcessKiller finds processes by command name through a procfs tree and kills them.
// This is the only way to stop pool jobs: there is no per-job cancellation.
type ProcessKiller struct {
	Fs       afero.Fs
	ProcRoot string
	// Sends the signal; defaults to syscall.Kill with SIGKILL.
	Kill func(pid int) error
}

func NewProcessKiller() *ProcessKiller {
	return &ProcessKiller{
		Fs:       afero.NewOsFs(),
		ProcRoot: "/proc",
		Kill: func(pid int) error {
			return syscall.Kill(pid, syscall.SIGKILL)
		},
	}
}

// KillByName kills every process whose command name is name, other than the caller, and returns
// how many were signalled. Processes that exit while being scanned are skipped.
func (k *ProcessKiller) KillByName(name string) (int, error) {
	entries, err := afero.ReadDir(k.Fs, k.ProcRoot)
	if err != nil {
		return 0, errors.Wrapf(err, "error listing processes in %s", k.ProcRoot)
	}
	self := os.Getpid()
	killed := 0
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || !entry.IsDir() || pid == self {
			continue
		}
		comm, err := afero.ReadFile(k.Fs, filepath.Join(k.ProcRoot, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(comm)) != name {
			continue
		}
		if err := k.Kill(pid); err != nil {
			if errors.Is(err, syscall.ESRCH) {
				continue
			}
			return killed, errors.Wrapf(err, "error killing process %d", pid)
		}
		log.WithField("pid", pid).Debugf("Killed %s", name)
		killed++
	}
	return killed, nil
}
