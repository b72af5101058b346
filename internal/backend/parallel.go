package backend

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

// JobListRunner executes every line of a job-list file as an independent job
// and returns once all of them have been consumed.
type JobListRunner interface {
	RunJobList(ctx context.Context, path string) error
}

// Parallel runs jobs on a bounded local worker pool.
// The commands are written one per line to a job-list file, which serves as the pool's work queue
// and is deleted once the pool has drained it.
type Parallel struct {
	name       string
	Fs         afero.Fs
	ScratchDir string
	Runner     JobListRunner
}

func NewParallel(name string, fs afero.Fs, scratchDir string, runner JobListRunner) *Parallel {
	return &Parallel{name: name, Fs: fs, ScratchDir: scratchDir, Runner: runner}
}

func (p *Parallel) Name() string {
	return p.name
}

func (p *Parallel) StartIndex() int {
	return 0
}

// JobListPath is where the job list of this backend is written.
func (p *Parallel) JobListPath() string {
	return filepath.Join(p.ScratchDir, "jobs_"+p.name+".txt")
}

func (p *Parallel) Submit(ctx context.Context, command CommandTemplate, first, lastExclusive int) error {
	if err := validateSubmission(command, first, lastExclusive); err != nil {
		return err
	}
	if first == lastExclusive {
		return nil
	}
	logger := log.WithField("backend", p.name)

	var sb strings.Builder
	for i := first; i < lastExclusive; i++ {
		sb.WriteString(command.Expand(strconv.Itoa(i)))
		sb.WriteString("\n")
	}
	path := p.JobListPath()
	if err := afero.WriteFile(p.Fs, path, []byte(sb.String()), 0o644); err != nil {
		return errors.WithStack(&launcherrors.ErrDispatch{
			Backend: p.name,
			Message: "cannot write job list " + path,
			Cause:   err,
		})
	}
	logger.Debugf("Job list %s:\n%s", path, sb.String())

	logger.Infof("Running %d simulation jobs...", lastExclusive-first)
	runErr := p.Runner.RunJobList(ctx, path)
	if err := p.Fs.Remove(path); err != nil {
		logger.WithError(err).Warnf("Failed to remove job list %s", path)
	}
	return runErr
}

// GNUParallel hands the job list to GNU parallel.
type GNUParallel struct {
	// Name or path of the parallel executable.
	Tool     string
	Workers  int
	Niceness int
	Executor Executor
}

// Argv is the command line used to run the job list at path.
func (g *GNUParallel) Argv(path string) []string {
	argv := []string{g.Tool}
	if g.Workers > 0 {
		argv = append(argv, "--jobs", strconv.Itoa(g.Workers))
	}
	argv = append(argv, "-a", path)
	return Niced(g.Niceness, argv...)
}

// RunJobList treats failed jobs as the jobs' own business: GNU parallel exits with the number of
// failed jobs (capped at 101), which is logged but not returned. Any other failure means the
// list was not consumed and is returned as a dispatch error.
func (g *GNUParallel) RunJobList(ctx context.Context, path string) error {
	err := g.Executor.Execute(ctx, g.Argv(path))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.WithStack(ctx.Err())
	}
	if code, ok := ExitCode(err); ok && code >= 1 && code <= 101 {
		log.WithField("tool", g.Tool).Warnf("%d job(s) failed", code)
		return nil
	}
	return errors.WithStack(&launcherrors.ErrDispatch{
		Backend: g.Tool,
		Message: "worker pool did not run the job list " + path,
		Cause:   err,
	})
}
