package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/sweepx/internal/command"
	"github.com/vk/sweepx/internal/config"
	"github.com/vk/sweepx/internal/ctxlog"
	"github.com/vk/sweepx/internal/expand"
	"github.com/vk/sweepx/internal/naming"
	"github.com/vk/sweepx/internal/runfile"
	"github.com/vk/sweepx/internal/stage"
	"github.com/vk/sweepx/internal/submit"
)

// Run expands the experiment at opts.ExpPath and executes or submits every
// resolved run. Expansion is all-or-nothing and happens before any directory
// is created; submission is fail-fast.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	model, err := a.loader.Load(ctx, opts.ExpPath, config.LoadOptions{
		ConfigPath:   opts.ConfigPath,
		FarmOverride: opts.Farm,
	})
	if err != nil {
		return err
	}

	// With no farm configured every run is interactive.
	interactive := opts.Interactive || model.Farm == nil

	expDir := filepath.Join(model.LogRoot, model.Experiment)
	namer := naming.New(expDir, opts.PlainNames)

	runs, err := expand.Expand(model.Blocks, expand.Options{
		Experiment:  model.Experiment,
		LogRoot:     model.LogRoot,
		TagOverride: opts.Tag,
		Namer:       namer,
		Replicas:    model.Replicas,
	})
	if err != nil {
		return err
	}
	a.logger.Info("Spec expanded.", "experiment", model.Experiment, "runs", len(runs))

	builder := &command.Builder{
		Experiment: model.Experiment,
		BaseCmd:    model.Cmd,
		PythonPath: model.PythonPath,
		Farm:       model.Farm,
		Resources:  model.Resources,
	}

	var executor submit.Executor
	if opts.DryRun {
		executor = &submit.DryRun{Out: a.outW}
	} else {
		executor = &submit.Shell{Stdout: a.outW, Stderr: a.errW}
	}

	srcRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	for _, run := range runs {
		cmd, err := builder.Build(run, interactive)
		if err != nil {
			return err
		}

		if opts.DryRun {
			// Listing mode: print every command, touch nothing.
			if err := executor.Submit(ctx, cmd); err != nil {
				return err
			}
			continue
		}

		if err := a.launch(ctx, run, cmd, srcRoot, model, executor, interactive); err != nil {
			return err
		}
	}
	return nil
}

// launch prepares one run directory and hands the command to the executor.
func (a *App) launch(ctx context.Context, run expand.ResolvedRun, cmd command.Command, srcRoot string, model *config.Model, executor submit.Executor, interactive bool) error {
	if err := stage.CodeDir(ctx, run.Logdir, srcRoot, model.CodeIgnore); err != nil {
		return fmt.Errorf("run %s: %w", run.Name, err)
	}

	// The output and launch directories go into the record so a summary can
	// tell where each run lives and where it came from.
	run.HParams["logdir"] = run.Logdir
	run.HParams["srcdir"] = srcRoot
	if err := runfile.WriteHParams(run.Logdir, run.HParams); err != nil {
		return fmt.Errorf("run %s: %w", run.Name, err)
	}
	if err := runfile.WriteSubmitCmd(run.Logdir, cmd.String); err != nil {
		return fmt.Errorf("run %s: %w", run.Name, err)
	}

	if interactive {
		a.logger.Info("Running job.", "job", cmd.Job)
	} else {
		a.logger.Info("Submitting job.", "job", cmd.Job)
	}
	return executor.Submit(ctx, cmd)
}
