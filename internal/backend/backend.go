// Package backend dispatches the runs of a batch for execution.
//
// A Backend receives one command template containing RunIndexToken and a range of run positions.
// Sequential and Parallel expand the token locally, once per position; Cluster forwards a single
// array-job submission and lets the scheduler substitute its own task index.
package backend

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

// RunIndexToken is replaced by the run index in a CommandTemplate.
const RunIndexToken = "{i}"

// CommandTemplate is a shell command in which every RunIndexToken stands for the run index.
type CommandTemplate string

// NewCommandTemplate checks that s refers to the run index.
func NewCommandTemplate(s string) (CommandTemplate, error) {
	if !strings.Contains(s, RunIndexToken) {
		return "", errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "command",
			Value:   s,
			Message: "command must contain the run index token " + RunIndexToken,
		})
	}
	return CommandTemplate(s), nil
}

// Expand replaces the run index token with index. index is a string so that it can also be
// a scheduler variable such as ${PBS_ARRAYID}.
func (c CommandTemplate) Expand(index string) string {
	return strings.ReplaceAll(string(c), RunIndexToken, index)
}

// Backend hands jobs over for execution.
type Backend interface {
	// Name identifies the batch to the backend; used for job names and scratch files.
	Name() string
	// StartIndex is the number of the first run: 0 for local backends, 1 for cluster array jobs.
	// Artifacts must be numbered from it so that the index seen by a job matches its files.
	StartIndex() int
	// Submit dispatches positions first..lastExclusive-1. Positions are 0-based; translating them
	// to the backend's own numbering is the backend's job. Returns once the jobs are handed off.
	Submit(ctx context.Context, command CommandTemplate, first, lastExclusive int) error
}

func validateSubmission(command CommandTemplate, first, lastExclusive int) error {
	if first < 0 || lastExclusive < first {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "range",
			Value:   [2]int{first, lastExclusive},
			Message: "expected 0 <= first <= lastExclusive",
		})
	}
	if _, err := NewCommandTemplate(string(command)); err != nil {
		return err
	}
	return nil
}
