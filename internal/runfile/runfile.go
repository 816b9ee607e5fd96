// Package runfile defines the on-disk record format of a run directory: the
// write-once hyperparameter record, the append-only metric history, and the
// recorded submit command. The summarizer reads these records back; external
// training processes append to the metric history through the same format.
package runfile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside a run directory. They are a compatibility contract with
// existing tooling and must not change.
const (
	HParamsFile = "hparams.json"
	MetricsFile = "metrics.jsonl"
	SubmitFile  = "submit_cmd.sh"
)

// MissingRunDataError marks a run directory that lacks a required record.
// The summarizer treats it as recoverable: skip the run, keep the report.
type MissingRunDataError struct {
	Dir     string
	Missing string
}

func (e *MissingRunDataError) Error() string {
	return fmt.Sprintf("run %s is missing %s", e.Dir, e.Missing)
}

// MetricEntry is one snapshot in a run's metric history.
type MetricEntry struct {
	Phase     string             `json:"phase"`
	Index     int                `json:"index"`
	Timestamp float64            `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// WriteHParams persists the hyperparameter record for a run. The record is
// write-once: an existing file is left untouched so that re-submissions
// cannot rewrite history.
func WriteHParams(dir string, hparams map[string]any) error {
	path := filepath.Join(dir, HParamsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.MarshalIndent(hparams, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", HParamsFile, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadHParams loads a run's hyperparameter record as a flat key/value map.
func ReadHParams(dir string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(dir, HParamsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingRunDataError{Dir: dir, Missing: HParamsFile}
		}
		return nil, err
	}

	var hparams map[string]any
	if err := json.Unmarshal(data, &hparams); err != nil {
		return nil, fmt.Errorf("run %s: corrupt %s: %w", dir, HParamsFile, err)
	}
	return hparams, nil
}

// AppendMetrics appends entries to a run's metric history.
func AppendMetrics(dir string, entries ...MetricEntry) error {
	f, err := os.OpenFile(filepath.Join(dir, MetricsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("appending to %s: %w", MetricsFile, err)
		}
	}
	return nil
}

// ReadMetrics loads a run's metric history in append order. A missing
// history is not an error: a freshly launched run simply has no metrics yet.
func ReadMetrics(dir string) ([]MetricEntry, error) {
	f, err := os.Open(filepath.Join(dir, MetricsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []MetricEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry MetricEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("run %s: corrupt %s: %w", dir, MetricsFile, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteSubmitCmd records the exact composed command for a run.
func WriteSubmitCmd(dir, cmd string) error {
	return os.WriteFile(filepath.Join(dir, SubmitFile), []byte(cmd+"\n"), 0o755)
}
