package hcl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/sweepx/internal/config"
	"github.com/vk/sweepx/internal/schema"
)

// translate merges the decoded experiment and global documents into the
// format-agnostic model. The experiment overrides the global config key-wise.
func (l *Loader) translate(exp *schema.Experiment, global *schema.Global, name string, opts config.LoadOptions) (*config.Model, error) {
	model := &config.Model{
		Experiment: name,
		Cmd:        exp.Cmd,
		CodeIgnore: exp.CodeIgnore,
	}

	if isExprDefined(exp.PythonPath) {
		model.PythonPath = exp.PythonPath
	}

	model.LogRoot = exp.LogRoot
	if model.LogRoot == "" {
		model.LogRoot = global.LogRoot
	}
	if model.LogRoot == "" {
		return nil, errors.New("logroot is not set in the experiment or the global config")
	}

	if exp.Replicas < 0 {
		return nil, fmt.Errorf("replicas must not be negative, got %d", exp.Replicas)
	}
	model.Replicas = exp.Replicas

	if len(exp.HParams) == 0 {
		return nil, errors.New("experiment declares no hparams block")
	}
	for i, block := range exp.HParams {
		translated, err := l.translateHParams(block)
		if err != nil {
			return nil, fmt.Errorf("hparams block %d: %w", i+1, err)
		}
		model.Blocks = append(model.Blocks, translated)
	}

	if exp.Resources != nil {
		res, err := orderedAttributes(exp.Resources.Body)
		if err != nil {
			return nil, fmt.Errorf("resources block: %w", err)
		}
		for _, attr := range res {
			model.Resources = append(model.Resources, config.Resource{Name: attr.Name, Expr: attr.Expr})
		}
	}

	farm, err := selectFarm(global, exp, opts.FarmOverride)
	if err != nil {
		return nil, err
	}
	model.Farm = farm

	return model, nil
}

// translateHParams extracts one hparams block's attributes in declaration
// order and splits out the reserved control keys.
func (l *Loader) translateHParams(block *schema.HParams) (*config.HParamBlock, error) {
	attrs, err := orderedAttributes(block.Body)
	if err != nil {
		return nil, err
	}

	out := &config.HParamBlock{}
	for _, attr := range attrs {
		switch attr.Name {
		case config.KeyTag:
			out.Tag = attr.Expr
		case config.KeySkip:
			out.Skip = attr.Expr
		default:
			out.Params = append(out.Params, config.HParam{Name: attr.Name, Expr: attr.Expr})
		}
	}
	return out, nil
}

// selectFarm resolves the farm_config to use: the CLI override wins, then
// the experiment's farm attribute, then the global default. Naming a farm
// that has no farm_config block is an error; naming none is not.
func selectFarm(global *schema.Global, exp *schema.Experiment, override string) (*config.Farm, error) {
	name := override
	if name == "" {
		name = exp.Farm
	}
	if name == "" {
		name = global.Farm
	}
	if name == "" {
		return nil, nil
	}

	for _, fc := range global.Farms {
		if fc.Name != name {
			continue
		}
		farm := &config.Farm{Name: fc.Name, SubmitCmd: fc.SubmitCmd}
		if fc.Resources != nil {
			attrs, err := orderedAttributes(fc.Resources.Body)
			if err != nil {
				return nil, fmt.Errorf("farm_config %q resources: %w", name, err)
			}
			for _, attr := range attrs {
				farm.Resources = append(farm.Resources, config.Resource{Name: attr.Name, Expr: attr.Expr})
			}
		}
		return farm, nil
	}
	return nil, fmt.Errorf("farm %q selected but no farm_config block defines it", name)
}

// orderedAttributes lists a body's attributes sorted by their position in the
// source file. HCL hands attributes back as a map; the source byte offset is
// the only way to recover declaration order, which the expansion ordering
// contract depends on.
func orderedAttributes(body hcl.Body) ([]*hcl.Attribute, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	list := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		list = append(list, attr)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Range.Start.Byte < list[j].Range.Start.Byte
	})
	return list, nil
}

// isExprDefined reports whether an optional expression was actually present
// in the source. The decoder populates omitted optional fields with non-nil,
// zero-width expressions, so a nil check alone is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	return rng.End.Byte > rng.Start.Byte
}
