package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/sweepx/internal/ctxlog"
	"github.com/vk/sweepx/internal/runfile"
)

// emptyCell renders where a run has no value for a column. Absence is never
// an error and never drops the row.
const emptyCell = "-"

// Derived column names.
const (
	colEpoch     = "epoch"
	colEpochTime = "epoch_time"
)

// valPhases are the phase names treated as validation for snapshot
// selection.
var valPhases = map[string]bool{
	"val":        true,
	"validate":   true,
	"validation": true,
	"test":       true,
}

// Options select sorting and column filtering for a summary.
type Options struct {
	// SortKey names the column to sort by. When it names a metric, the best
	// value of that metric across each run's history is added as an extra
	// "<key>-best" column and used for sorting.
	SortKey string

	// Ascending flips the default descending sort.
	Ascending bool

	// Ignore drops the named columns from the output.
	Ignore map[string]struct{}
}

// runData is one valid run's sparse view: its launch-time hyperparameters
// and its reconciled metric cells (including derived fields).
type runData struct {
	dir     string
	hparams map[string]any
	metrics map[string]string
}

// Summarize builds the summary table for one experiment directory. Each
// immediate subdirectory is a candidate run; invalid runs degrade the report
// rather than aborting it.
func Summarize(ctx context.Context, root string, opts Options) (*Table, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("experiment directory %s: %w", root, err)
	}

	var runs []runData
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		hparams, err := runfile.ReadHParams(dir)
		if err != nil {
			var missing *runfile.MissingRunDataError
			if errors.As(err, &missing) {
				logger.Warn("Skipping run without hyperparameter record.", "dir", dir)
				continue
			}
			return nil, err
		}

		history, err := runfile.ReadMetrics(dir)
		if err != nil {
			logger.Warn("Skipping run with unreadable metric history.", "dir", dir, "error", err)
			continue
		}

		runs = append(runs, runData{
			dir:     dir,
			hparams: hparams,
			metrics: metricCells(history, opts.SortKey),
		})
	}

	table := buildTable(runs, opts)
	if err := sortRows(table, opts); err != nil {
		return nil, err
	}
	labelRows(table)
	return table, nil
}

// metricCells reduces one run's history to its rendered metric columns: the
// current snapshot's values, the derived epoch and epoch_time fields, and
// the best value of sortKey when one is requested.
func metricCells(history []runfile.MetricEntry, sortKey string) map[string]string {
	cells := make(map[string]string)
	current, ok := currentSnapshot(history)
	if !ok {
		return cells
	}

	for key, val := range current.Values {
		cells[key] = formatFloat(val)
	}
	cells[colEpoch] = strconv.Itoa(current.Index)
	if t, ok := epochTime(history, current.Phase); ok {
		cells[colEpochTime] = t
	}

	if sortKey != "" {
		if best, ok := bestValue(history, current.Phase, sortKey); ok {
			cells[sortKey+"-best"] = formatFloat(best)
		}
	}
	return cells
}

// currentSnapshot picks the highest-index validation-phase entry, falling
// back to the highest-index entry overall when the run logged no validation
// phase at all.
func currentSnapshot(history []runfile.MetricEntry) (runfile.MetricEntry, bool) {
	var best runfile.MetricEntry
	found := false
	sawVal := false

	for _, entry := range history {
		isVal := valPhases[entry.Phase]
		switch {
		case isVal && !sawVal:
			// First validation entry displaces any non-validation pick.
			best, sawVal, found = entry, true, true
		case isVal == sawVal && (!found || entry.Index >= best.Index):
			best, found = entry, true
		}
	}
	return best, found
}

// epochTime computes the mean wall-clock delta between consecutive
// snapshots of the given phase, rendered as minutes:seconds.
func epochTime(history []runfile.MetricEntry, phase string) (string, bool) {
	var stamps []float64
	for _, entry := range history {
		if entry.Phase == phase {
			stamps = append(stamps, entry.Timestamp)
		}
	}
	if len(stamps) < 2 {
		return "", false
	}

	total := stamps[len(stamps)-1] - stamps[0]
	mean := total / float64(len(stamps)-1)
	if mean < 0 {
		return "", false
	}
	secs := int(mean + 0.5)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60), true
}

// bestValue finds the maximum of one metric across the history entries of
// the given phase.
func bestValue(history []runfile.MetricEntry, phase, key string) (float64, bool) {
	var best float64
	found := false
	for _, entry := range history {
		if entry.Phase != phase {
			continue
		}
		if val, ok := entry.Values[key]; ok && (!found || val > best) {
			best, found = val, true
		}
	}
	return best, found
}

// buildTable reconciles the runs' heterogeneous key sets into one column
// set: hyperparameter keys that vary across at least two runs, then every
// metric key present in any run, minus the ignored columns. Both groups are
// sorted alphabetically so repeated summaries of an unchanged tree render
// byte-identically.
func buildTable(runs []runData, opts Options) *Table {
	hparamCols := varyingHParams(runs, opts.Ignore)

	metricSet := make(map[string]struct{})
	for _, run := range runs {
		for key := range run.metrics {
			if _, ignored := opts.Ignore[key]; !ignored {
				metricSet[key] = struct{}{}
			}
		}
	}
	metricCols := make([]string, 0, len(metricSet))
	for key := range metricSet {
		metricCols = append(metricCols, key)
	}
	sort.Strings(metricCols)

	columns := append(hparamCols, metricCols...)

	table := &Table{Columns: columns}
	for _, run := range runs {
		row := make([]string, 0, len(columns)+1)
		row = append(row, run.dir) // replaced by a positional label after sorting
		for _, col := range hparamCols {
			if val, ok := run.hparams[col]; ok {
				row = append(row, formatValue(val))
			} else {
				row = append(row, emptyCell)
			}
		}
		for _, col := range metricCols {
			if val, ok := run.metrics[col]; ok {
				row = append(row, val)
			} else {
				row = append(row, emptyCell)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// varyingHParams returns the hyperparameter keys whose value differs across
// at least two runs, sorted. A key absent from one run but present in
// another counts as differing.
func varyingHParams(runs []runData, ignore map[string]struct{}) []string {
	if len(runs) < 2 {
		return nil
	}

	keys := make(map[string]struct{})
	for _, run := range runs {
		for key := range run.hparams {
			keys[key] = struct{}{}
		}
	}

	var varying []string
	for key := range keys {
		if _, ignored := ignore[key]; ignored {
			continue
		}
		first, firstOK := runs[0].hparams[key]
		for _, run := range runs[1:] {
			val, ok := run.hparams[key]
			if ok != firstOK || formatValue(val) != formatValue(first) {
				varying = append(varying, key)
				break
			}
		}
	}
	sort.Strings(varying)
	return varying
}

// sortRows orders the table by the sort key's column: numeric when every
// present value parses as a number, lexicographic otherwise. The sort is
// stable, so tied rows keep the original directory listing order. Rows
// missing the sort column always sink to the bottom. Without an explicit
// key the first loss-named column, if any, is used.
func sortRows(table *Table, opts Options) error {
	if len(table.Rows) == 0 {
		return nil
	}

	var col int
	if opts.SortKey == "" {
		col = defaultSortColumn(table)
		if col < 0 {
			return nil
		}
	} else {
		col = columnIndex(table, opts.SortKey)
		if col < 0 {
			col = columnIndex(table, opts.SortKey+"-best")
		}
		if col < 0 {
			return fmt.Errorf("sort key %q matches no column", opts.SortKey)
		}
	}

	numeric := true
	for _, row := range table.Rows {
		if row[col] == emptyCell {
			continue
		}
		if _, err := strconv.ParseFloat(row[col], 64); err != nil {
			numeric = false
			break
		}
	}

	less := func(a, b string) bool {
		switch {
		case a == emptyCell:
			return false
		case b == emptyCell:
			return true
		}
		if numeric {
			fa, _ := strconv.ParseFloat(a, 64)
			fb, _ := strconv.ParseFloat(b, 64)
			if opts.Ascending {
				return fa < fb
			}
			return fa > fb
		}
		if opts.Ascending {
			return a < b
		}
		return a > b
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return less(table.Rows[i][col], table.Rows[j][col])
	})
	return nil
}

// labelRows replaces the directory placeholder in each row with the
// positional run label in sorted output order.
func labelRows(table *Table) {
	for i := range table.Rows {
		table.Rows[i][0] = fmt.Sprintf("run%d", i+1)
	}
}

// defaultSortColumn picks the first column with "loss" in its name, so an
// unsorted summary still surfaces the most interesting runs first.
func defaultSortColumn(table *Table) int {
	for i, col := range table.Columns {
		if strings.Contains(col, "loss") {
			return i + 1
		}
	}
	return -1
}

func columnIndex(table *Table, name string) int {
	for i, col := range table.Columns {
		if col == name {
			return i + 1 // account for the leading run-label cell
		}
	}
	return -1
}

// formatValue renders a hyperparameter record value for display.
func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return emptyCell
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
