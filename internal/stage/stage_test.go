package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeDirSnapshotsSource(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "train.py"), []byte("pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "weights.pth"), nil, 0o644))

	logdir := filepath.Join(t.TempDir(), "resnet", "run1")
	require.NoError(t, CodeDir(context.Background(), logdir, src, nil))

	assert.FileExists(t, filepath.Join(logdir, "code", "train.py"))
	assert.NoFileExists(t, filepath.Join(logdir, "code", "weights.pth"), "checkpoints are not staged")
}

func TestCodeDirExtraIgnore(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "train.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.md"), nil, 0o644))

	logdir := filepath.Join(t.TempDir(), "run1")
	require.NoError(t, CodeDir(context.Background(), logdir, src, []string{"*.md"}))

	assert.FileExists(t, filepath.Join(logdir, "code", "train.py"))
	assert.NoFileExists(t, filepath.Join(logdir, "code", "notes.md"))
}
