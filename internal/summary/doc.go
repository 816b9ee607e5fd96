// Package summary scans an experiment's run directories, reconciles the
// differing hyperparameter sets and metric schemas across runs into one
// column set, selects the most relevant metric snapshot per run, and renders
// a sorted, fixed-width table.
//
// Aggregation is best-effort: a run missing its hyperparameter record is
// skipped with a warning and degrades the report instead of failing it.
package summary
