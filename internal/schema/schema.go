// Package schema holds the HCL tag structs that mirror the on-disk layout of
// experiment documents and the global config. They are decoded by the loader
// in internal/hcl and translated into the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// HParams is one `hparams` block. The body is left raw because the set of
// hyperparameter names is user-defined; the loader extracts the attributes
// in declaration order.
type HParams struct {
	Body hcl.Body `hcl:",remain"`
}

// Resources is a `resources` block of arbitrary flag attributes.
type Resources struct {
	Body hcl.Body `hcl:",remain"`
}

// Experiment is the top-level structure of an experiment document.
type Experiment struct {
	Cmd        string         `hcl:"cmd"`
	PythonPath hcl.Expression `hcl:"pythonpath,optional"`
	LogRoot    string         `hcl:"logroot,optional"`
	Farm       string         `hcl:"farm,optional"`
	Replicas   int            `hcl:"replicas,optional"`
	CodeIgnore []string       `hcl:"code_ignore,optional"`
	HParams    []*HParams     `hcl:"hparams,block"`
	Resources  *Resources     `hcl:"resources,block"`
}

// FarmConfig is one `farm_config` block in the global config, describing a
// batch-submission target.
type FarmConfig struct {
	Name      string     `hcl:"name,label"`
	SubmitCmd string     `hcl:"submit_cmd"`
	Resources *Resources `hcl:"resources,block"`
}

// Global is the top-level structure of the global config file
// (./.sweepx.hcl or ~/.config/sweepx.hcl).
type Global struct {
	LogRoot string        `hcl:"logroot,optional"`
	Farm    string        `hcl:"farm,optional"`
	Farms   []*FarmConfig `hcl:"farm_config,block"`
}
