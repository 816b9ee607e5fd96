package command

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sweepx/internal/config"
	"github.com/vk/sweepx/internal/expand"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func sampleRun() expand.ResolvedRun {
	return expand.ResolvedRun{
		Name:   "r1",
		Logdir: "/logs/exp/r1",
		Args: []expand.Arg{
			{Key: "lr", Value: "0.01"},
			{Key: "amp", Flag: true},
		},
	}
}

func TestBuildInteractive(t *testing.T) {
	t.Parallel()

	b := &Builder{Experiment: "exp", BaseCmd: "python train.py"}
	cmd, err := b.Build(sampleRun(), true)
	require.NoError(t, err)

	assert.Equal(t,
		"cd /logs/exp/r1/code; PYTHONPATH=/logs/exp/r1/code python train.py --lr 0.01 --amp",
		cmd.String)
	assert.Equal(t, "/logs/exp/r1", cmd.Dir)
	assert.Equal(t, "exp_r1", cmd.Job)
}

func TestBuildResolvesPythonPath(t *testing.T) {
	t.Parallel()

	b := &Builder{
		Experiment: "exp",
		BaseCmd:    "python train.py",
		PythonPath: parseExpr(t, `"${logdir}/src"`),
	}
	cmd, err := b.Build(sampleRun(), true)
	require.NoError(t, err)
	assert.Contains(t, cmd.String, "PYTHONPATH=/logs/exp/r1/src ")
}

func TestBuildBatchWrapsSubmitCommand(t *testing.T) {
	t.Parallel()

	b := &Builder{
		Experiment: "exp",
		BaseCmd:    "python train.py",
		Farm: &config.Farm{
			Name:      "bigfarm",
			SubmitCmd: "sbatch",
			Resources: []config.Resource{
				{Name: "gpus", Expr: parseExpr(t, "2")},
				{Name: "partition", Expr: parseExpr(t, `"batch"`)},
			},
		},
	}

	cmd, err := b.Build(sampleRun(), false)
	require.NoError(t, err)
	assert.Equal(t,
		"sbatch --gpus 2 --partition batch --name exp_r1 --command "+
			"' cd /logs/exp/r1/code; PYTHONPATH=/logs/exp/r1/code python train.py --lr 0.01 --amp '",
		cmd.String)
}

func TestBuildBatchAppliesResourceOverrides(t *testing.T) {
	t.Parallel()

	b := &Builder{
		Experiment: "exp",
		BaseCmd:    "python train.py",
		Farm: &config.Farm{
			SubmitCmd: "sbatch",
			Resources: []config.Resource{
				{Name: "gpus", Expr: parseExpr(t, "2")},
				{Name: "partition", Expr: parseExpr(t, `"batch"`)},
			},
		},
		Resources: []config.Resource{
			{Name: "gpus", Expr: parseExpr(t, "8")},
		},
	}

	cmd, err := b.Build(sampleRun(), false)
	require.NoError(t, err)
	// Overridden keys keep the farm's position.
	assert.Contains(t, cmd.String, "sbatch --gpus 8 --partition batch ")
}

func TestBuildBatchResourceEncodings(t *testing.T) {
	t.Parallel()

	b := &Builder{
		Experiment: "exp",
		BaseCmd:    "python train.py",
		Farm: &config.Farm{
			SubmitCmd: "submit_job",
			Resources: []config.Resource{
				{Name: "exclusive", Expr: parseExpr(t, "true")},
				{Name: "disabled", Expr: parseExpr(t, "false")},
				{Name: "mount", Expr: parseExpr(t, `["/data", logdir]`)},
			},
		},
	}

	cmd, err := b.Build(sampleRun(), false)
	require.NoError(t, err)
	assert.Contains(t, cmd.String, "--exclusive ")
	assert.NotContains(t, cmd.String, "--disabled")
	assert.Contains(t, cmd.String, "--mount /data --mount /logs/exp/r1 ")
}

func TestBuildBatchWithoutFarmFails(t *testing.T) {
	t.Parallel()

	b := &Builder{Experiment: "exp", BaseCmd: "python train.py"}
	_, err := b.Build(sampleRun(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no farm")
}

func TestJoinArgsOrdering(t *testing.T) {
	t.Parallel()

	args := []expand.Arg{
		{Key: "b", Value: "2"},
		{Key: "a", Flag: true},
		{Key: "c", Value: "x"},
	}
	assert.Equal(t, "--b 2 --a --c x", JoinArgs(args))
}
