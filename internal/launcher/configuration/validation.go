package configuration

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(SweepConfigValidation, SweepConfig{})
	return validate
}

// SweepConfigValidation checks that a sweep has exactly one source of values.
func SweepConfigValidation(sl validator.StructLevel) {
	s := sl.Current().Interface().(SweepConfig)
	switch {
	case len(s.Values) > 0 && s.LogRange != nil:
		sl.ReportError(s.Values, "Values", "Values", "excluded_with", "LogRange")
	case len(s.Values) == 0 && s.LogRange == nil:
		sl.ReportError(s.Values, "Values", "Values", "required_without", "LogRange")
	}
}

// Validate checks c and returns every problem found, not just the first.
// Problems are *launcherrors.ErrInvalidArgument values collected in a multierror.
// Batches are checked after they have been merged over the presets, so an entry
// only needs the fields it changes.
func (c LauncherConfiguration) Validate() error {
	validate := newValidator()
	var result *multierror.Error
	result = appendValidationErrors(result, "", validate.Struct(c))

	seen := make(map[string]bool, len(c.Batches))
	for _, batch := range c.Batches {
		if seen[batch.Name] {
			result = multierror.Append(result, &launcherrors.ErrInvalidArgument{
				Name:    "Batches.Name",
				Value:   batch.Name,
				Message: "batch names must be unique",
			})
		}
		seen[batch.Name] = true
	}

	batches, err := ResolveBatches(c.Batches)
	if err != nil {
		return finish(multierror.Append(result, err))
	}
	for _, name := range BatchNames(batches) {
		prefix := fmt.Sprintf("Batches[%s].", name)
		result = appendValidationErrors(result, prefix, validate.Struct(batches[name]))
	}
	return finish(result)
}

// Validate checks a single, fully resolved batch.
func (b BatchConfig) Validate() error {
	var result *multierror.Error
	result = appendValidationErrors(result, "", newValidator().Struct(b))
	return finish(result)
}

func finish(result *multierror.Error) error {
	if result == nil {
		return nil
	}
	result.ErrorFormat = launcherrors.FormatMultiError
	return errors.WithStack(result)
}

func appendValidationErrors(result *multierror.Error, prefix string, err error) *multierror.Error {
	if err == nil {
		return result
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return multierror.Append(result, err)
	}
	for _, fe := range validationErrors {
		result = multierror.Append(result, &launcherrors.ErrInvalidArgument{
			Name:    prefix + stripTypeName(fe.Namespace()),
			Value:   fe.Value(),
			Message: describe(fe),
		})
	}
	return result
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is not set", fe.Param())
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", fe.Param())
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fe.Param())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("must be %s %s", comparisons[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "at least",
	"lt":  "less than",
	"lte": "at most",
}

// stripTypeName turns "LauncherConfiguration.Backend.Workers" into "Backend.Workers".
func stripTypeName(namespace string) string {
	if idx := strings.Index(namespace, "."); idx != -1 {
		return namespace[idx+1:]
	}
	return namespace
}
