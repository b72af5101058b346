package backend

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Shell runs the per-run command lines.
const Shell = "/bin/sh"

// Executor runs one process to completion.
type Executor interface {
	Execute(ctx context.Context, argv []string) error
}

// ProcessExecutor runs processes with os/exec.
type ProcessExecutor struct {
	// Where the process output goes. Defaults to the launcher's own stdout/stderr.
	Stdout io.Writer
	Stderr io.Writer
	// Working directory; empty means the current one.
	Dir string
}

func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *ProcessExecutor) Execute(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("no command given")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Dir = e.Dir
	log.Debugf("Executing %s", strings.Join(argv, " "))
	return cmd.Run()
}

// ShellArgv returns the argv running command through the shell, at lowered priority when niceness > 0.
func ShellArgv(command string, niceness int) []string {
	return Niced(niceness, Shell, "-c", command)
}

// Niced prefixes argv with nice when niceness > 0.
func Niced(niceness int, argv ...string) []string {
	if niceness <= 0 {
		return argv
	}
	return append([]string{"nice", "-n", strconv.Itoa(niceness)}, argv...)
}

// ExitCode extracts the exit status from an error returned by an Executor.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
