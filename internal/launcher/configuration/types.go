package configuration

import (
	"github.com/pg4sim/pg4launch/internal/backend"
)

const (
	// DefaultSweepKey is the setting a sweep assigns when no key is configured.
	DefaultSweepKey = "gun_energy"
	// DefaultRecLevel is the reconstruction level passed to templates when a batch doesn't set one.
	DefaultRecLevel = 2
	// DefaultOutputSuffix is the extension of simulation output files.
	DefaultOutputSuffix = "root"
)

type LauncherConfiguration struct {
	// Options shared by all backends.
	Backend backend.Config `yaml:"backend"`
	// One of panic, fatal, error, warning, info, debug or trace. Empty means info.
	LogLevel string `yaml:"logLevel,omitempty"`
	// One of command, text or json. Empty means command.
	LogFormat string `yaml:"logFormat,omitempty"`
	// Batch definitions. Entries named like a preset are merged over it.
	Batches []BatchConfig `yaml:"batches,omitempty" validate:"-"`
}

// BatchConfig describes one named batch of simulation runs.
type BatchConfig struct {
	// Used for the workspace directories, the job name and the backend name.
	Name string `yaml:"name" validate:"required,excludesall=/\\"`
	// Events simulated by each run.
	Events int `yaml:"events" validate:"gt=0"`
	// Runs launched when the command line doesn't say otherwise.
	Runs int `yaml:"runs" validate:"gte=0"`
	// Path of the macro template. A leading ~ is expanded.
	Template string `yaml:"template" validate:"required"`
	// Reconstruction level; DefaultRecLevel if nil.
	RecLevel *int `yaml:"recLevel,omitempty" validate:"omitempty,gte=0"`
	// Extension of the output files, without the dot.
	OutputSuffix string `yaml:"outputSuffix,omitempty" validate:"omitempty,alphanum"`
	// Extra commands the template can place before /run/initialize.
	Preinit string `yaml:"preinit,omitempty"`
	// Additional template settings. They take precedence over the built-in ones.
	Settings map[string]interface{} `yaml:"settings,omitempty"`
	Sweep    *SweepConfig           `yaml:"sweep,omitempty"`
	// Overrides the configured backend kind for this batch.
	Backend backend.Kind `yaml:"backend,omitempty"`
}

// SweepConfig assigns one value of a parameter to each run of a batch.
// Exactly one of Values and LogRange must be set.
type SweepConfig struct {
	// Setting that receives the value; DefaultSweepKey if empty.
	Key      string          `yaml:"key,omitempty"`
	Values   []float64       `yaml:"values,omitempty"`
	LogRange *LogRangeConfig `yaml:"logRange,omitempty"`
	// Randomise which run gets which value.
	Shuffle bool `yaml:"shuffle,omitempty"`
	// Seed for Shuffle. Zero means a different order on every launch.
	Seed int64 `yaml:"seed,omitempty"`
}

// LogRangeConfig is Count values spaced evenly in log-space from From to To.
type LogRangeConfig struct {
	Count int     `yaml:"count" validate:"gte=1"`
	From  float64 `yaml:"from" validate:"gt=0"`
	To    float64 `yaml:"to" validate:"gt=0"`
}

// SweepKey returns the configured key or the default one.
func (s *SweepConfig) SweepKey() string {
	if s == nil || s.Key == "" {
		return DefaultSweepKey
	}
	return s.Key
}

// Len is the number of values the sweep produces.
func (s *SweepConfig) Len() int {
	switch {
	case s == nil:
		return 0
	case s.LogRange != nil:
		return s.LogRange.Count
	default:
		return len(s.Values)
	}
}

// WithDefaults returns a copy of b with unset optional fields filled in.
func (b BatchConfig) WithDefaults() BatchConfig {
	if b.RecLevel == nil {
		level := DefaultRecLevel
		b.RecLevel = &level
	}
	if b.OutputSuffix == "" {
		b.OutputSuffix = DefaultOutputSuffix
	}
	return b
}

// Copy returns a deep copy of b, so the caller can hold on to it while the original changes.
func (b BatchConfig) Copy() BatchConfig {
	if b.RecLevel != nil {
		level := *b.RecLevel
		b.RecLevel = &level
	}
	if b.Settings != nil {
		settings := make(map[string]interface{}, len(b.Settings))
		for k, v := range b.Settings {
			settings[k] = v
		}
		b.Settings = settings
	}
	if b.Sweep != nil {
		sweep := *b.Sweep
		if sweep.Values != nil {
			sweep.Values = append([]float64(nil), sweep.Values...)
		}
		if sweep.LogRange != nil {
			logRange := *sweep.LogRange
			sweep.LogRange = &logRange
		}
		b.Sweep = &sweep
	}
	return b
}
