package backend

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

const maxJobLineLength = 1024 * 1024

// ProcessPool runs a job list with an in-process pool of at most Workers concurrent processes.
// Each line runs through the shell as its own process; a failing job is logged and doesn't stop the others.
type ProcessPool struct {
	Fs       afero.Fs
	Workers  int
	Niceness int
	Executor Executor
}

func (p *ProcessPool) RunJobList(ctx context.Context, path string) error {
	data, err := afero.ReadFile(p.Fs, path)
	if err != nil {
		return errors.WithStack(&launcherrors.ErrDispatch{
			Backend: "pool",
			Message: "cannot read job list " + path,
			Cause:   err,
		})
	}
	jobs, err := readJobs(data)
	if err != nil {
		return errors.WithStack(&launcherrors.ErrDispatch{
			Backend: "pool",
			Message: "cannot read job list " + path,
			Cause:   err,
		})
	}

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var failed int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.Executor.Execute(ctx, ShellArgv(job, p.Niceness)); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				atomic.AddInt64(&failed, 1)
				log.WithField("job", i).WithError(err).Warnf("Job failed: %s", job)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.WithStack(err)
	}
	if n := atomic.LoadInt64(&failed); n > 0 {
		log.Warnf("%d of %d job(s) failed", n, len(jobs))
	}
	return nil
}

// readJobs splits a job list into its non-empty lines. Lines longer than maxJobLineLength
// are an error rather than being dropped along with everything after them.
func readJobs(data []byte) ([]string, error) {
	var jobs []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxJobLineLength)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			jobs = append(jobs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
