// Package command composes the final, shell-ready command string for a
// resolved run: the interactive form that executes the base command from the
// run's staged code directory, and the batch form that wraps it in the
// selected farm's submission command with its resource flags.
package command

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/sweepx/internal/config"
	"github.com/vk/sweepx/internal/expand"
)

// Command is one fully composed command plus its target output directory.
type Command struct {
	String string
	Dir    string
	Job    string
}

// Builder turns resolved runs into commands. It is a pure function of its
// inputs and safe to reuse across runs of the same experiment.
type Builder struct {
	Experiment string
	BaseCmd    string
	PythonPath hcl.Expression    // nil: default to <logdir>/code
	Farm       *config.Farm      // nil: interactive only
	Resources  []config.Resource // experiment-level overrides
}

// Build composes the command for one run. When interactive is false a farm
// must be configured; the run is wrapped in the farm's submit command.
func (b *Builder) Build(run expand.ResolvedRun, interactive bool) (Command, error) {
	train := b.BaseCmd
	if args := JoinArgs(run.Args); args != "" {
		train += " " + args
	}

	pythonPath, err := b.pythonPath(run.Logdir)
	if err != nil {
		return Command{}, err
	}

	// Runs always execute from the staged code copy so that later edits to
	// the launch directory cannot change an in-flight run.
	wrapped := fmt.Sprintf("cd %s/code; PYTHONPATH=%s %s", run.Logdir, pythonPath, train)

	job := b.Experiment + "_" + run.Name
	if interactive {
		return Command{String: wrapped, Dir: run.Logdir, Job: job}, nil
	}

	if b.Farm == nil {
		return Command{}, fmt.Errorf("run %s: batch submission requested but no farm is configured", run.Name)
	}

	resources := config.MergeResources(b.Farm.Resources, b.Resources)
	resourceArgs, err := encodeResources(resources, run.Logdir)
	if err != nil {
		return Command{}, fmt.Errorf("run %s: %w", run.Name, err)
	}

	var sb strings.Builder
	sb.WriteString(b.Farm.SubmitCmd)
	if resourceArgs != "" {
		sb.WriteString(" ")
		sb.WriteString(resourceArgs)
	}
	fmt.Fprintf(&sb, " --name %s --command ' %s '", job, wrapped)

	return Command{String: sb.String(), Dir: run.Logdir, Job: job}, nil
}

// pythonPath resolves the experiment's pythonpath expression against the
// run's logdir, defaulting to the staged code directory.
func (b *Builder) pythonPath(logdir string) (string, error) {
	if b.PythonPath == nil {
		return logdir + "/code", nil
	}
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{config.LogdirVar: cty.StringVal(logdir)},
	}
	val, diags := b.PythonPath.Value(ctx)
	if diags.HasErrors() {
		return "", fmt.Errorf("pythonpath: %w", diags)
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("pythonpath: %w", err)
	}
	return str.AsString(), nil
}

// JoinArgs renders resolved args in declared order: bare --key for flags,
// --key value otherwise.
func JoinArgs(args []expand.Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Flag {
			parts = append(parts, "--"+a.Key)
		} else {
			parts = append(parts, "--"+a.Key+" "+a.Value)
		}
	}
	return strings.Join(parts, " ")
}

// encodeResources renders farm resource flags: a boolean true becomes a bare
// flag, a list repeats the flag per element, anything else is --key value.
// Resource values may reference the run's logdir.
func encodeResources(resources []config.Resource, logdir string) (string, error) {
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{config.LogdirVar: cty.StringVal(logdir)},
	}

	var parts []string
	for _, r := range resources {
		val, diags := r.Expr.Value(ctx)
		if diags.HasErrors() {
			return "", fmt.Errorf("resource %q: %w", r.Name, diags)
		}
		rendered, err := encodeResource(r.Name, val)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered...)
	}
	return strings.Join(parts, " "), nil
}

func encodeResource(name string, val cty.Value) ([]string, error) {
	switch {
	case val.IsNull():
		return nil, nil
	case val.Type().Equals(cty.Bool):
		if val.True() {
			return []string{"--" + name}, nil
		}
		return nil, nil
	case val.Type().IsTupleType() || val.Type().IsListType():
		var parts []string
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			str, err := convert.Convert(elem, cty.String)
			if err != nil {
				return nil, fmt.Errorf("resource %q: %w", name, err)
			}
			parts = append(parts, "--"+name+" "+str.AsString())
		}
		return parts, nil
	default:
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		return []string{"--" + name + " " + str.AsString()}, nil
	}
}
