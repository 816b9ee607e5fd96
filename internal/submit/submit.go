// Package submit hands composed commands to the operating system. It is the
// "run or submit" collaborator: the interesting work of composing the
// command has already happened by the time this package sees it.
package submit

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/vk/sweepx/internal/command"
	"github.com/vk/sweepx/internal/ctxlog"
)

// Error wraps a rejected submission with the job that triggered it.
type Error struct {
	Job string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("submission of %s failed: %v", e.Job, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Executor runs or prints one composed command.
type Executor interface {
	Submit(ctx context.Context, cmd command.Command) error
}

// Shell executes commands through the system shell from the run's target
// directory, streaming output as it arrives.
type Shell struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Submit runs the command. Failures are surfaced, never swallowed; the
// caller decides whether to abort remaining runs.
func (s *Shell) Submit(ctx context.Context, cmd command.Command) error {
	ctxlog.FromContext(ctx).Info("Executing command.", "job", cmd.Job)

	proc := exec.CommandContext(ctx, "sh", "-c", cmd.String)
	proc.Dir = cmd.Dir
	proc.Stdout = s.Stdout
	proc.Stderr = s.Stderr
	if err := proc.Run(); err != nil {
		return &Error{Job: cmd.Job, Err: err}
	}
	return nil
}

// DryRun prints each command instead of executing it.
type DryRun struct {
	Out io.Writer
}

func (d *DryRun) Submit(_ context.Context, cmd command.Command) error {
	_, err := fmt.Fprintln(d.Out, cmd.String)
	return err
}
