package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sweepx/internal/cli"
	"github.com/vk/sweepx/internal/runfile"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"--help"}))
	assert.Contains(t, out.String(), "sweepx run")
}

func TestRunUnknownCommand(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"frobnicate"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunMissingExperimentFile(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"run", "-n", filepath.Join(t.TempDir(), "absent.hcl")})
	require.Error(t, err)
}

func TestDryRunPrintsEveryCommandInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logRoot := filepath.Join(dir, "logs")
	expPath := filepath.Join(dir, "resnet.hcl")
	doc := fmt.Sprintf(`
cmd     = "python train.py"
logroot = %q

hparams {
  lr     = [0.01, 0.02]
  solver = ["sgd", "adam"]
}
`, logRoot)
	require.NoError(t, os.WriteFile(expPath, []byte(doc), 0o644))

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"run", "-n", expPath}))

	output := out.String()
	want := []string{
		"--lr 0.01 --solver sgd",
		"--lr 0.01 --solver adam",
		"--lr 0.02 --solver sgd",
		"--lr 0.02 --solver adam",
	}
	last := -1
	for _, args := range want {
		idx := strings.Index(output, args)
		require.GreaterOrEqual(t, idx, 0, "missing command %q in output:\n%s", args, output)
		assert.Greater(t, idx, last, "command %q out of order", args)
		last = idx
	}
	assert.Equal(t, 4, strings.Count(output, "python train.py"))

	// Listing mode must not touch the filesystem.
	_, err := os.Stat(logRoot)
	assert.True(t, os.IsNotExist(err))
}

func TestDryRunReplicasGetOwnDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logRoot := filepath.Join(dir, "logs")
	expPath := filepath.Join(dir, "resnet.hcl")
	doc := fmt.Sprintf(`
cmd      = "python train.py"
logroot  = %q
replicas = 2

hparams {
  lr = 0.01
}
`, logRoot)
	require.NoError(t, os.WriteFile(expPath, []byte(doc), 0o644))

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"run", "-n", expPath}))

	output := out.String()
	assert.Equal(t, 2, strings.Count(output, "python train.py"))
	assert.Contains(t, output, "/run_0/code")
	assert.Contains(t, output, "/run_1/code")
}

func TestInteractiveRunStagesAndExecutes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logRoot := filepath.Join(dir, "logs")
	expPath := filepath.Join(dir, "smoke.hcl")
	doc := fmt.Sprintf(`
cmd     = "true"
logroot = %q

hparams {
  lr = 0.01
}
`, logRoot)
	require.NoError(t, os.WriteFile(expPath, []byte(doc), 0o644))

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"run", expPath}))

	expDir := filepath.Join(logRoot, "smoke")
	entries, err := os.ReadDir(expDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	runDir := filepath.Join(expDir, entries[0].Name())
	hparams, err := runfile.ReadHParams(runDir)
	require.NoError(t, err)
	assert.Equal(t, 0.01, hparams["lr"])
	assert.Equal(t, runDir, hparams["logdir"])
	assert.NotEmpty(t, hparams["srcdir"])

	submitCmd, err := os.ReadFile(filepath.Join(runDir, runfile.SubmitFile))
	require.NoError(t, err)
	assert.Contains(t, string(submitCmd), "true")

	// The code snapshot holds a copy of the launch directory.
	_, err = os.Stat(filepath.Join(runDir, "code"))
	require.NoError(t, err)
}

func TestSumRendersTable(t *testing.T) {
	t.Parallel()

	logRoot := t.TempDir()
	expDir := filepath.Join(logRoot, "resnet")
	for i, lr := range []float64{0.01, 0.02} {
		runDir := filepath.Join(expDir, fmt.Sprintf("run-%d", i))
		require.NoError(t, os.MkdirAll(runDir, 0o755))
		require.NoError(t, runfile.WriteHParams(runDir, map[string]any{"lr": lr}))
		require.NoError(t, runfile.AppendMetrics(runDir, runfile.MetricEntry{
			Phase: "val", Index: 1, Timestamp: 100,
			Values: map[string]float64{"loss": 2 - lr},
		}))
	}

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"sum", "-logroot", logRoot, "resnet"}))

	output := out.String()
	assert.Contains(t, output, "run1")
	assert.Contains(t, output, "run2")
	assert.Contains(t, output, "lr")
	assert.Contains(t, output, "loss")
}

func TestSumEmptyExperiment(t *testing.T) {
	t.Parallel()

	logRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(logRoot, "ghost"), 0o755))

	var out, errOut bytes.Buffer
	require.NoError(t, run(&out, &errOut, []string{"sum", "-logroot", logRoot, "ghost"}))
	assert.Contains(t, out.String(), "No valid runs found for ghost")
}
