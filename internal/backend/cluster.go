package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	commonslices "github.com/pg4sim/pg4launch/internal/common/slices"
	"github.com/pg4sim/pg4launch/internal/render"
)

const (
	// SubmissionFileName is the scratch file the submission document is written to.
	SubmissionFileName = "job_submit"
	// ArrayIndexVariable is set by PBS to the index of each array task.
	ArrayIndexVariable = "${PBS_ARRAYID}"
)

const submissionTemplate = `#!/bin/bash
#PBS -j oe
#PBS -N {{.jobname}}
{{- if .queue}}
#PBS -q {{.queue}}
{{- end}}
#PBS -t {{.array}}
{{.exports}}source ${HOME}/.bashrc
{{.command}}
`

var submissionRenderer = mustRenderer("submission", submissionTemplate)

func mustRenderer(name, text string) *render.Renderer {
	r, err := render.New(name, text)
	if err != nil {
		panic(err)
	}
	return r
}

// Cluster submits a batch as a single PBS array job.
// The command is forwarded unexpanded except for the run index, which becomes the scheduler's
// per-task index variable; the scheduler substitutes it when each task starts.
type Cluster struct {
	name string
	// Submission client, usually qsub.
	Client   string
	Queue    string
	Priority int
	// Environment variables copied into the submission document; jobs don't inherit the submitting shell's environment.
	Exports    []string
	LookupEnv  func(string) (string, bool)
	Fs         afero.Fs
	ScratchDir string
	Executor   Executor
}

func NewCluster(name string, fs afero.Fs, executor Executor) *Cluster {
	return &Cluster{
		name:      name,
		Client:    DefaultClusterClient,
		Queue:     DefaultQueue,
		Priority:  DefaultPriority,
		LookupEnv: os.LookupEnv,
		Fs:        fs,
		Executor:  executor,
	}
}

func (c *Cluster) Name() string {
	return c.name
}

func (c *Cluster) StartIndex() int {
	return 1
}

// SubmissionPath is the fixed scratch path of the submission document.
func (c *Cluster) SubmissionPath() string {
	return filepath.Join(c.ScratchDir, SubmissionFileName)
}

// BuildDocument returns the submission document for positions first..lastExclusive-1,
// i.e. array tasks first+1..lastExclusive.
func (c *Cluster) BuildDocument(command CommandTemplate, first, lastExclusive int) (string, error) {
	if err := validateSubmission(command, first, lastExclusive); err != nil {
		return "", err
	}
	return submissionRenderer.Render(map[string]interface{}{
		"jobname": c.name,
		"queue":   c.Queue,
		"array":   fmt.Sprintf("%d-%d", first+1, lastExclusive),
		"exports": c.exportLines(),
		"command": command.Expand(ArrayIndexVariable),
	})
}

func (c *Cluster) exportLines() string {
	lookup := c.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var sb strings.Builder
	for _, name := range commonslices.Unique(c.Exports) {
		if value, ok := lookup(name); ok {
			fmt.Fprintf(&sb, "export %s=%s\n", name, shellQuote(value))
		}
	}
	return sb.String()
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (c *Cluster) Submit(ctx context.Context, command CommandTemplate, first, lastExclusive int) error {
	doc, err := c.BuildDocument(command, first, lastExclusive)
	if err != nil {
		return err
	}
	if first == lastExclusive {
		return nil
	}
	logger := log.WithField("backend", c.name)

	path := c.SubmissionPath()
	if err := afero.WriteFile(c.Fs, path, []byte(doc), 0o644); err != nil {
		return errors.WithStack(&launcherrors.ErrDispatch{
			Backend: c.name,
			Message: "cannot write submission document " + path,
			Cause:   err,
		})
	}
	logger.Debugf("Submission document %s:\n%s", path, doc)

	argv := []string{c.Client, "-p", strconv.Itoa(c.Priority), path}
	if err := c.Executor.Execute(ctx, argv); err != nil {
		// The document is left in place so the rejected submission can be inspected.
		return errors.WithStack(&launcherrors.ErrDispatch{
			Backend: c.name,
			Message: fmt.Sprintf("%s rejected the submission (document kept at %s)", c.Client, path),
			Cause:   err,
		})
	}
	logger.Infof("Submitted array job %s with tasks %d-%d", c.name, first+1, lastExclusive)

	if err := c.Fs.Remove(path); err != nil {
		logger.WithError(err).Warnf("Failed to remove submission document %s", path)
	}
	return nil
}
