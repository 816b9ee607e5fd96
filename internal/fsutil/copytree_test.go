package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func TestCopyTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	mustWrite(t, filepath.Join(src, "train.py"), "print('hi')\n", 0o644)
	mustWrite(t, filepath.Join(src, "scripts", "eval.sh"), "#!/bin/sh\n", 0o755)

	dst := filepath.Join(t.TempDir(), "code")
	require.NoError(t, CopyTree(src, dst, nil))

	got, err := os.ReadFile(filepath.Join(dst, "train.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(got))

	info, err := os.Stat(filepath.Join(dst, "scripts", "eval.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyTreeIgnorePatterns(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	mustWrite(t, filepath.Join(src, "train.py"), "", 0o644)
	mustWrite(t, filepath.Join(src, "model.pth"), "", 0o644)
	mustWrite(t, filepath.Join(src, "__pycache__", "train.cpython-311.pyc"), "", 0o644)
	mustWrite(t, filepath.Join(src, ".git", "HEAD"), "", 0o644)

	dst := filepath.Join(t.TempDir(), "code")
	require.NoError(t, CopyTree(src, dst, []string{".git", "*.pyc", "__pycache__", "*.pth"}))

	assert.FileExists(t, filepath.Join(dst, "train.py"))
	assert.NoFileExists(t, filepath.Join(dst, "model.pth"))
	assert.NoDirExists(t, filepath.Join(dst, "__pycache__"))
	assert.NoDirExists(t, filepath.Join(dst, ".git"))
}

func TestCopyTreeMissingSourceFails(t *testing.T) {
	t.Parallel()

	err := CopyTree(filepath.Join(t.TempDir(), "absent"), t.TempDir(), nil)
	require.Error(t, err)
}
