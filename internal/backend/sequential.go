package backend

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sequential runs every job in ascending index order, waiting for each to finish.
// A failing run is logged and the remaining runs still go ahead.
type Sequential struct {
	name     string
	Executor Executor
}

func NewSequential(name string, executor Executor) *Sequential {
	return &Sequential{name: name, Executor: executor}
}

func (s *Sequential) Name() string {
	return s.name
}

func (s *Sequential) StartIndex() int {
	return 0
}

func (s *Sequential) Submit(ctx context.Context, command CommandTemplate, first, lastExclusive int) error {
	if err := validateSubmission(command, first, lastExclusive); err != nil {
		return err
	}
	logger := log.WithField("backend", s.name)

	failed := 0
	for i := first; i < lastExclusive; i++ {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		cmd := command.Expand(strconv.Itoa(i))
		logger.Info(cmd)
		if err := s.Executor.Execute(ctx, ShellArgv(cmd, 0)); err != nil {
			if ctx.Err() != nil {
				return errors.WithStack(ctx.Err())
			}
			failed++
			entry := logger.WithField("run", i).WithError(err)
			if code, ok := ExitCode(err); ok {
				entry = entry.WithField("exitCode", code)
			}
			entry.Warn("Run failed")
		}
	}
	if failed > 0 {
		logger.Warnf("%d of %d runs failed", failed, lastExclusive-first)
	}
	return nil
}
