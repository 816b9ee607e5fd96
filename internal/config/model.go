package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Reserved control keys recognized inside an hparams block. They share the
// namespace with user hyperparameters but are split out during translation,
// never string-sniffed at expansion time.
const (
	KeyTag  = "tag"
	KeySkip = "skip"
)

// LogdirVar is the name of the evaluation-context variable that stands in
// for a run's unique output directory inside hparam and pythonpath
// expressions.
const LogdirVar = "logdir"

// HParam is a single named hyperparameter with its unevaluated expression.
// Expressions are kept raw so the expander can evaluate them once per run
// with the run's logdir bound.
type HParam struct {
	Name string
	Expr hcl.Expression
}

// HParamBlock is one ordered hyperparameter declaration. Params preserves
// the attribute declaration order of the source document; that order drives
// the cartesian-product ordering contract.
type HParamBlock struct {
	Params []HParam

	// Tag and Skip are the block's control-key expressions, nil when the
	// block does not declare them.
	Tag  hcl.Expression
	Skip hcl.Expression
}

// Resource is one farm resource flag, ordered as declared.
type Resource struct {
	Name string
	Expr hcl.Expression
}

// Farm describes one batch-submission target.
type Farm struct {
	Name      string
	SubmitCmd string
	Resources []Resource
}

// Model is the unified representation of one experiment: the merge of the
// global config and the experiment document.
type Model struct {
	// Experiment is the experiment name, derived from the spec's source
	// file basename.
	Experiment string

	// Cmd is the base command line the hyperparameter args are appended to.
	Cmd string

	// PythonPath optionally sets the search path for the launched process.
	// It may reference the logdir variable.
	PythonPath hcl.Expression

	// LogRoot is the parent of all experiment directories.
	LogRoot string

	// Blocks is the hparams overlay sequence. Blocks[0] supplies defaults
	// for every later block.
	Blocks []*HParamBlock

	// Resources are experiment-level overrides merged on top of the
	// selected farm's resources.
	Resources []Resource

	// Farm is the selected submission target, nil when none is configured.
	Farm *Farm

	// Replicas launches each expanded combination this many times, every
	// replica in its own run_<i> subdirectory. Zero means one.
	Replicas int

	// CodeIgnore lists glob patterns excluded from code staging.
	CodeIgnore []string
}

// MergeResources overlays the experiment's resource declarations on top of
// the farm's, key-wise: overridden keys keep the farm's position, new keys
// append in declaration order.
func MergeResources(base, overlay []Resource) []Resource {
	merged := make([]Resource, len(base))
	copy(merged, base)
	for _, r := range overlay {
		replaced := false
		for i := range merged {
			if merged[i].Name == r.Name {
				merged[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, r)
		}
	}
	return merged
}
