package config

import "context"

// LoadOptions carry the CLI-level choices that affect loading.
type LoadOptions struct {
	// ConfigPath points at an explicit global config file. Empty means
	// search ./.sweepx.hcl then $HOME/.config/sweepx.hcl.
	ConfigPath string

	// FarmOverride selects a farm_config by name, overriding the farm
	// attribute of both the experiment and the global config.
	FarmOverride string
}

// Loader is the interface for a format-specific specification loader.
type Loader interface {
	// Load reads the global config and the experiment document at expPath,
	// merges them, and returns the unified model.
	Load(ctx context.Context, expPath string, opts LoadOptions) (*Model, error)

	// LogRoot resolves the configured log root without an experiment
	// document, for operations that only scan existing run directories.
	LogRoot(ctx context.Context, configPath string) (string, error)
}
