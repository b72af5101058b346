// Package launcherrors contains the error types returned while preparing and dispatching a batch.
// Callers at the edge of the program (the CLI) look for these types with KindFromError
// in order to decide how to report a failure and which exit code to use.
//
// If several problems are found at once (e.g., when validating a configuration file),
// the function finding them should return an error of type multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates the individual errors.
package launcherrors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrInvalidArgument is a generic error to be returned on invalid configuration.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "sweep"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrMissingEnvironment is returned when a required environment variable is not set.
type ErrMissingEnvironment struct {
	Variable string
}

func (err *ErrMissingEnvironment) Error() string {
	return fmt.Sprintf("environment variable %s is not set", err.Variable)
}

// ErrUnresolvedPlaceholder is returned when a template refers to a setting that doesn't exist.
type ErrUnresolvedPlaceholder struct {
	Template string // Path or name of the template
	Cause    string // Message reported by the template engine
}

func (err *ErrUnresolvedPlaceholder) Error() string {
	return fmt.Sprintf("template %s has an unresolved placeholder: %s", err.Template, err.Cause)
}

// ErrDirectory is returned when a workspace directory can't be created.
type ErrDirectory struct {
	Path  string
	Cause error
}

func (err *ErrDirectory) Error() string {
	return fmt.Sprintf("cannot create directory %s: %s", err.Path, err.Cause)
}

func (err *ErrDirectory) Unwrap() error {
	return err.Cause
}

// ErrDispatch is returned when a backend fails to hand a batch over for execution,
// e.g., because the scheduler client rejected the submission.
type ErrDispatch struct {
	Backend string
	Message string
	Cause   error
}

func (err *ErrDispatch) Error() (s string) {
	s = fmt.Sprintf("backend %s failed to dispatch jobs", err.Backend)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	if err.Cause != nil {
		s = s + fmt.Sprintf(": %s", err.Cause)
	}
	return
}

func (err *ErrDispatch) Unwrap() error {
	return err.Cause
}

// Kind classifies an error chain for reporting.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindDirectory
	KindDispatch
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDirectory:
		return "directory"
	case KindDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// ExitCode is the process exit code the CLI uses for errors of this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindConfiguration:
		return 2
	case KindDirectory:
		return 3
	case KindDispatch:
		return 4
	default:
		return 1
	}
}

// KindFromError maps error types to a Kind.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
// For a multierror, the kind of the first classified error wins.
func KindFromError(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			if kind := KindFromError(e); kind != KindUnknown {
				return kind
			}
		}
		return KindUnknown
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return KindConfiguration
		}
	}
	{
		var e *ErrMissingEnvironment
		if errors.As(err, &e) {
			return KindConfiguration
		}
	}
	{
		var e *ErrUnresolvedPlaceholder
		if errors.As(err, &e) {
			return KindConfiguration
		}
	}
	{
		var e *ErrDirectory
		if errors.As(err, &e) {
			return KindDirectory
		}
	}
	{
		var e *ErrDispatch
		if errors.As(err, &e) {
			return KindDispatch
		}
	}

	return KindUnknown
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return KindFromError(err) == KindConfiguration
}

// FormatMultiError renders a multierror as a list with one problem per line,
// which reads better on a terminal than the default bullet format.
func FormatMultiError(es []error) string {
	lines := make([]string, len(es))
	for i, e := range es {
		lines[i] = "  " + e.Error()
	}
	return fmt.Sprintf("%d configuration problem(s):\n%s", len(es), strings.Join(lines, "\n"))
}
