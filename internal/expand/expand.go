package expand

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sweepx/internal/config"
)

// Arg is one resolved command-line argument. Flag args render as a bare
// --key; value args render as --key value.
type Arg struct {
	Key   string
	Value string
	Flag  bool
}

// ResolvedRun is one concrete assignment of every hyperparameter, annotated
// with its generated name and output directory. It carries no back-reference
// to the spec it came from.
type ResolvedRun struct {
	Name    string
	Tag     string
	Logdir  string
	Args    []Arg
	HParams map[string]any
}

// Namer generates a unique run directory name for the given tag. Expansion
// goes through this interface so that name generation stays an explicit
// registry object rather than process-wide state.
type Namer interface {
	Generate(tag string) (string, error)
}

// Options carry the expansion-scope inputs that are not part of the
// hyperparameter declaration itself.
type Options struct {
	Experiment  string
	LogRoot     string
	TagOverride string
	Namer       Namer

	// Replicas launches every combination this many times, each replica in
	// its own run_<i> subdirectory. Values below 1 mean a single launch.
	Replicas int
}

// Expand resolves a block sequence into the ordered run list: block sequence
// order first, then cartesian-product order within each block. Any error
// aborts the whole expansion with no runs returned.
func Expand(blocks []*config.HParamBlock, opts Options) ([]ResolvedRun, error) {
	if opts.Namer == nil {
		return nil, errors.New("expand: a Namer is required")
	}

	var runs []ResolvedRun
	for i := range blocks {
		blockRuns, err := expandBlock(effectiveBlock(blocks, i), opts)
		if err != nil {
			return nil, err
		}
		runs = append(runs, blockRuns...)
	}
	return runs, nil
}

// effectiveBlock computes the block at position i after inheritance: block 0
// supplies defaults, the block at i overrides key-by-key. Overridden keys
// keep the base's position; new keys append in overlay order. The control
// keys follow the same rule.
func effectiveBlock(blocks []*config.HParamBlock, i int) *config.HParamBlock {
	base := blocks[0]
	if i == 0 {
		return base
	}
	overlay := blocks[i]

	eff := &config.HParamBlock{
		Params: make([]config.HParam, len(base.Params)),
		Tag:    base.Tag,
		Skip:   base.Skip,
	}
	copy(eff.Params, base.Params)

	for _, p := range overlay.Params {
		replaced := false
		for j := range eff.Params {
			if eff.Params[j].Name == p.Name {
				eff.Params[j] = p
				replaced = true
				break
			}
		}
		if !replaced {
			eff.Params = append(eff.Params, p)
		}
	}
	if overlay.Tag != nil {
		eff.Tag = overlay.Tag
	}
	if overlay.Skip != nil {
		eff.Skip = overlay.Skip
	}
	return eff
}

// expandBlock expands a single effective block into runs.
func expandBlock(block *config.HParamBlock, opts Options) ([]ResolvedRun, error) {
	pctx := placeholderContext()

	skip, err := evalSkip(block, pctx)
	if err != nil {
		return nil, err
	}
	if skip {
		// A skipped block consumes no name slots: names are generated
		// lazily, only for emitted runs.
		return nil, nil
	}

	shape, err := classify(block, pctx)
	if err != nil {
		return nil, err
	}

	var runs []ResolvedRun
	for _, choice := range shape.combinations() {
		combo, err := resolveCombination(block, shape, choice, opts)
		if err != nil {
			return nil, err
		}
		runs = append(runs, combo...)
	}
	return runs, nil
}

// resolveCombination binds one cartesian-product element to its concrete
// runs: one per replica. The combination generates a single name; replicas
// share it and nest their output directories beneath it.
func resolveCombination(block *config.HParamBlock, shape *blockShape, choice []int, opts Options) ([]ResolvedRun, error) {
	tag, err := evalTag(block, shape, choice, opts.TagOverride)
	if err != nil {
		return nil, err
	}

	name, err := opts.Namer.Generate(tag)
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(opts.LogRoot, opts.Experiment, name)

	replicas := opts.Replicas
	if replicas < 1 {
		replicas = 1
	}

	runs := make([]ResolvedRun, 0, replicas)
	for i := 0; i < replicas; i++ {
		runName, logdir := name, baseDir
		if replicas > 1 {
			runName = fmt.Sprintf("%s_run_%d", name, i)
			logdir = filepath.Join(baseDir, fmt.Sprintf("run_%d", i))
		}
		run, err := resolveRun(block, shape, choice, runName, tag, logdir)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// resolveRun evaluates every key against the run's concrete logdir and
// encodes the command-line arguments.
func resolveRun(block *config.HParamBlock, shape *blockShape, choice []int, name, tag, logdir string) (ResolvedRun, error) {
	fctx := logdirContext(logdir)
	run := ResolvedRun{
		Name:    name,
		Tag:     tag,
		Logdir:  logdir,
		HParams: make(map[string]any, len(block.Params)),
	}

	for pi, p := range block.Params {
		val, diags := p.Expr.Value(fctx)
		if diags.HasErrors() {
			return ResolvedRun{}, invalidSpec(p.Name, "unresolvable reference: %s", diags.Error())
		}
		if vi, varying := shape.varyIndex[pi]; varying {
			val = val.Index(cty.NumberIntVal(int64(choice[vi])))
		}
		if !val.IsKnown() {
			return ResolvedRun{}, invalidSpec(p.Name, "value could not be fully resolved")
		}

		run.HParams[p.Name] = rawValue(val)

		arg, emit, err := encodeArg(p.Name, val)
		if err != nil {
			return ResolvedRun{}, err
		}
		if emit {
			run.Args = append(run.Args, arg)
		}
	}
	return run, nil
}

// evalSkip resolves the block's skip control key. A non-boolean skip value
// is a spec error, not a truthy coercion.
func evalSkip(block *config.HParamBlock, ctx *hcl.EvalContext) (bool, error) {
	if block.Skip == nil {
		return false, nil
	}
	val, diags := block.Skip.Value(ctx)
	if diags.HasErrors() {
		return false, invalidSpec(config.KeySkip, "unresolvable reference: %s", diags.Error())
	}
	if !val.IsKnown() || val.IsNull() || !val.Type().Equals(cty.Bool) {
		return false, invalidSpec(config.KeySkip, "must be a boolean")
	}
	return val.True(), nil
}

// evalTag resolves the block's tag for one product element. The tag may
// interpolate the run's resolved hyperparameters; it may not reference the
// logdir variable, since the tag is an input to directory naming. A tag
// declared in the block wins over the command-line override.
func evalTag(block *config.HParamBlock, shape *blockShape, choice []int, override string) (string, error) {
	if block.Tag == nil {
		return override, nil
	}

	vars := make(map[string]cty.Value, len(block.Params))
	for pi, p := range block.Params {
		val := shape.values[pi]
		if vi, varying := shape.varyIndex[pi]; varying {
			val = val.Index(cty.NumberIntVal(int64(choice[vi])))
		}
		if val.IsKnown() && !val.IsNull() {
			vars[p.Name] = val
		}
	}

	val, diags := block.Tag.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return "", invalidSpec(config.KeyTag, "unresolvable reference: %s", diags.Error())
	}
	if !val.IsKnown() {
		return "", invalidSpec(config.KeyTag, "may not reference %s", config.LogdirVar)
	}
	str, err := encodeString(val)
	if err != nil || str == "" {
		return "", invalidSpec(config.KeyTag, "must be a non-empty string")
	}
	return str, nil
}

// placeholderContext binds logdir to an unknown string so that expressions
// can be classified before any directory name exists.
func placeholderContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			config.LogdirVar: cty.UnknownVal(cty.String),
		},
	}
}

// logdirContext binds logdir to the run's concrete output directory.
func logdirContext(logdir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			config.LogdirVar: cty.StringVal(logdir),
		},
	}
}
