package configuration

import (
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Presets returns the built-in batches, keyed by name.
// A fresh map is returned on every call so callers may modify it.
func Presets() map[string]BatchConfig {
	return map[string]BatchConfig{
		"P2k_IBD": {
			Name: "P2k_IBD", Events: 1000000, Runs: 360,
			Template: "Templates/P2k_IBD.mac", OutputSuffix: "h5",
		},
		"DIMA-Co60": {
			Name: "DIMA-Co60", Events: 1000000, Runs: 96,
			Template: "Templates/DIMA_Co60.mac", OutputSuffix: "h5",
		},
		"P20_IBD": {
			Name: "P20_IBD", Events: 20000, Runs: 40,
			Template: "Templates/P2k_IBD.mac", OutputSuffix: "h5",
		},
	}
}

// ResolveBatches merges configured batches over the presets by name.
// Fields set in a configured batch win; unset ones come from the preset of the same name.
// Batches that don't name a preset are taken as they are. Defaults are applied last.
func ResolveBatches(configured []BatchConfig) (map[string]BatchConfig, error) {
	rv := Presets()
	for _, batch := range configured {
		batch = batch.Copy()
		if preset, ok := rv[batch.Name]; ok {
			if err := mergo.Merge(&batch, preset); err != nil {
				return nil, errors.Wrapf(err, "error merging batch %s over its preset", batch.Name)
			}
		}
		rv[batch.Name] = batch
	}
	for name, batch := range rv {
		rv[name] = batch.WithDefaults()
	}
	return rv, nil
}

// BatchNames returns the names of batches in sorted order.
func BatchNames(batches map[string]BatchConfig) []string {
	names := maps.Keys(batches)
	slices.Sort(names)
	return names
}
