package submit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sweepx/internal/command"
)

func TestDryRunPrintsCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := &DryRun{Out: &out}
	require.NoError(t, d.Submit(context.Background(), command.Command{String: "echo hi", Job: "exp_run"}))
	assert.Equal(t, "echo hi\n", out.String())
}

func TestShellStreamsOutput(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	s := &Shell{Stdout: &out, Stderr: &errOut}
	require.NoError(t, s.Submit(context.Background(), command.Command{String: "echo hello", Job: "exp_run"}))
	assert.Equal(t, "hello\n", out.String())
}

func TestShellSurfacesFailure(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	s := &Shell{Stdout: &out, Stderr: &errOut}
	err := s.Submit(context.Background(), command.Command{String: "exit 3", Job: "exp_run"})

	var subErr *Error
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "exp_run", subErr.Job)
}

func TestShellRunsFromCommandDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out, errOut bytes.Buffer
	s := &Shell{Stdout: &out, Stderr: &errOut}
	require.NoError(t, s.Submit(context.Background(), command.Command{String: "pwd", Dir: dir, Job: "exp_run"}))
	assert.Contains(t, out.String(), dir)
}
