// Package stage copies the launch directory into a run's code directory so
// the run executes a frozen snapshot of the source tree.
package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/sweepx/internal/ctxlog"
	"github.com/vk/sweepx/internal/fsutil"
)

// defaultIgnore lists patterns that are never worth staging: VCS state,
// bytecode, and checkpoints.
var defaultIgnore = []string{".git", "*.pyc", "__pycache__", "*.pth"}

// CodeDir stages srcRoot into <logdir>/code, creating the run directory in
// the process. Extra patterns extend the default ignore list.
func CodeDir(ctx context.Context, logdir, srcRoot string, extraIgnore []string) error {
	logger := ctxlog.FromContext(ctx)

	target := filepath.Join(logdir, "code")
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	ignore := append(append([]string{}, defaultIgnore...), extraIgnore...)
	logger.Debug("Staging code.", "src", srcRoot, "dst", target)
	if err := fsutil.CopyTree(srcRoot, target, ignore); err != nil {
		return fmt.Errorf("staging code into %s: %w", target, err)
	}
	return nil
}
