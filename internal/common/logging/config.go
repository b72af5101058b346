package logging

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var validLogFormats = map[string]bool{
	"text":    true,
	"json":    true,
	"command": true,
}

// Config defines logging configuration for the launcher.
type Config struct {
	// Log level, e.g. INFO, ERROR etc
	Level string `yaml:"level"`
	// Logging format: command (bare messages), text or json
	Format string `yaml:"format"`
}

// Configure applies c to the global logrus logger.
func Configure(c Config) error {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c.Format)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(formatter)
	return nil
}

func newFormatter(format string) (log.Formatter, error) {
	if format == "" {
		format = "command"
	}
	if _, ok := validLogFormats[format]; !ok {
		formats := maps.Keys(validLogFormats)
		slices.Sort(formats)
		return nil, errors.Errorf("unknown log format: %s.  Valid formats are %s", format, formats)
	}
	switch format {
	case "json":
		return &log.JSONFormatter{}, nil
	case "text":
		return &log.TextFormatter{FullTimestamp: true}, nil
	default:
		return &CommandLineFormatter{ShowLevel: true}, nil
	}
}

// ParseLevel parses a log level. The empty string means info.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "trace":
		return log.TraceLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}
