package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/sweepx/internal/config"
	"github.com/vk/sweepx/internal/ctxlog"
	"github.com/vk/sweepx/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL specification loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the global config (when one exists) and the experiment document,
// merges them, and returns the unified model.
func (l *Loader) Load(ctx context.Context, expPath string, opts config.LoadOptions) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()

	global, globalPath, err := l.loadGlobal(parser, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if globalPath != "" {
		logger.Debug("Global config loaded.", "path", globalPath)
	} else {
		logger.Debug("No global config found, relying on the experiment document alone.")
	}

	hclFile, diags := parser.ParseHCLFile(expPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse experiment file %s: %w", expPath, diags)
	}

	var exp schema.Experiment
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &exp); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode experiment file %s: %w", expPath, diags)
	}

	model, err := l.translate(&exp, global, expName(expPath), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expPath, err)
	}

	logger.Debug("Experiment model assembled.",
		"experiment", model.Experiment,
		"hparam_blocks", len(model.Blocks),
		"farm", farmName(model.Farm),
	)
	return model, nil
}

// LogRoot resolves the configured log root from the global config alone.
func (l *Loader) LogRoot(ctx context.Context, configPath string) (string, error) {
	global, path, err := l.loadGlobal(hclparse.NewParser(), configPath)
	if err != nil {
		return "", err
	}
	if global.LogRoot == "" {
		if path == "" {
			return "", errors.New("no global config found and no logroot given")
		}
		return "", fmt.Errorf("logroot is not set in %s", path)
	}
	ctxlog.FromContext(ctx).Debug("Resolved log root.", "logroot", global.LogRoot, "config", path)
	return global.LogRoot, nil
}

// loadGlobal parses the global config file at explicitPath, or at the first
// of the default search locations that exists. A missing global config is not
// an error; interactive runs can be fully described by the experiment file.
func (l *Loader) loadGlobal(parser *hclparse.Parser, explicitPath string) (*schema.Global, string, error) {
	path := explicitPath
	if path == "" {
		for _, candidate := range defaultConfigPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return &schema.Global{}, "", nil
	}

	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, "", fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	var global schema.Global
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &global); diags.HasErrors() {
		return nil, "", fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	return &global, path, nil
}

func defaultConfigPaths() []string {
	paths := []string{".sweepx.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sweepx.hcl"))
	}
	return paths
}

// expName derives the experiment name from the document's file name.
func expName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func farmName(f *config.Farm) string {
	if f == nil {
		return ""
	}
	return f.Name
}
