package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/sweepx/internal/ctxlog"
	"github.com/vk/sweepx/internal/summary"
)

// defaultIgnore lists record keys that never belong in a summary: they vary
// per run by construction and would drown out the real hyperparameters.
var defaultIgnore = []string{"logdir", "srcdir"}

// Sum summarizes each named experiment under the configured log root.
func (a *App) Sum(ctx context.Context, opts SumOptions) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	logRoot := opts.LogRoot
	if logRoot == "" {
		var err error
		logRoot, err = a.loader.LogRoot(ctx, opts.ConfigPath)
		if err != nil {
			return err
		}
	}

	ignore := make(map[string]struct{})
	for _, key := range defaultIgnore {
		ignore[key] = struct{}{}
	}
	for _, key := range opts.Ignore {
		ignore[key] = struct{}{}
	}

	for _, exp := range opts.Experiments {
		root := filepath.Join(logRoot, exp)
		table, err := summary.Summarize(ctx, root, summary.Options{
			SortKey:   opts.SortKey,
			Ascending: opts.Ascending,
			Ignore:    ignore,
		})
		if err != nil {
			return err
		}
		if len(table.Rows) == 0 {
			fmt.Fprintf(a.outW, "No valid runs found for %s\n", exp)
			continue
		}

		table.Render(a.outW)

		if opts.CSVPath != "" {
			if err := writeCSVFile(table, opts.CSVPath); err != nil {
				return err
			}
			a.logger.Info("CSV dump written.", "path", opts.CSVPath)
		}
	}
	return nil
}

func writeCSVFile(table *summary.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
