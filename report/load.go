// Package report reads what runs and sweeps left on disk: it decodes Log Stores, tells
// plain experiments from sweeps, summarizes series and draws them.
package report

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/YuminosukeSato/mltrack/internal/fsutil"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/sweep"
	"github.com/YuminosukeSato/mltrack/tracking"
)

// Record is one decoded observation. Time is in seconds since the run started.
type Record struct {
	Value float64 `json:"value" yaml:"value"`
	Step  int64   `json:"step" yaml:"step"`
	Time  float64 `json:"time" yaml:"time"`
}

// Run is the decoded Log Store of one run.
type Run struct {
	Name    string              `json:"name" yaml:"name"`
	Path    string              `json:"path" yaml:"path"`
	Metrics map[string][]Record `json:"metrics" yaml:"metrics"`
}

// SweepLog is a sweep directory: its descriptor and the runs of its trials.
type SweepLog struct {
	Name       string           `json:"name" yaml:"name"`
	Descriptor sweep.Descriptor `json:"sweep_config" yaml:"sweep_config"`
	Runs       []Run            `json:"experiment_data" yaml:"experiment_data"`
}

// Index lists the entries of a log directory.
type Index struct {
	Experiments []string `json:"experiments" yaml:"experiments"`
	Sweeps      []string `json:"sweeps" yaml:"sweeps"`
}

// LoadRun decodes the Log Store at path.
func LoadRun(path string) (Run, error) {
	store, err := tracking.OpenStore(path)
	if err != nil {
		return Run{}, err
	}
	series, err := store.Load()
	if err != nil {
		return Run{}, err
	}

	run := Run{
		Name:    strings.TrimSuffix(filepath.Base(path), tracking.StoreExt),
		Path:    path,
		Metrics: make(map[string][]Record, len(series)),
	}
	for metric, events := range series {
		records := make([]Record, len(events))
		for i, ev := range events {
			records[i] = Record{Value: ev.Value, Step: ev.Step, Time: ev.Seconds()}
		}
		run.Metrics[metric] = records
	}
	return run, nil
}

// Discover splits the subdirectories of logdir into plain experiments and sweeps. A sweep
// directory holds an experiment_description.json.
func Discover(logdir string) (Index, error) {
	var idx Index
	entries, err := os.ReadDir(logdir)
	if err != nil {
		return idx, errors.NewIOFailure("list", logdir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(logdir, e.Name(), tracking.DescriptorFileName)); err == nil {
			idx.Sweeps = append(idx.Sweeps, e.Name())
		} else {
			idx.Experiments = append(idx.Experiments, e.Name())
		}
	}
	return idx, nil
}

// LoadExperiments decodes the Log Store of each named experiment directory under logdir.
// Directories without a Log Store are skipped.
func LoadExperiments(logdir string, names []string) ([]Run, error) {
	var runs []Run
	for _, name := range names {
		paths, err := storeFiles(filepath.Join(logdir, name))
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			continue
		}
		run, err := LoadRun(paths[0])
		if err != nil {
			return nil, err
		}
		run.Name = name
		runs = append(runs, run)
	}
	return runs, nil
}

// LoadSweep reads a sweep directory.
func LoadSweep(dir string) (SweepLog, error) {
	sl := SweepLog{Name: filepath.Base(dir)}

	desc, err := sweep.ReadDescriptor(filepath.Join(dir, tracking.DescriptorFileName))
	if err != nil {
		return sl, err
	}
	sl.Descriptor = desc

	paths, err := storeFiles(dir)
	if err != nil {
		return sl, err
	}
	for _, p := range paths {
		run, err := LoadRun(p)
		if err != nil {
			return sl, err
		}
		sl.Runs = append(sl.Runs, run)
	}
	return sl, nil
}

// AllMetrics returns the sorted union of metric names across runs.
func AllMetrics(runs []Run) []string {
	seen := make(map[string]struct{})
	for _, r := range runs {
		for m := range r.Metrics {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// storeFiles lists the Log Stores directly inside dir, sorted by name. Subdirectories such
// as the sweep scratch directory are not searched.
func storeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOFailure("list", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || fsutil.IsTempName(name) || !strings.HasSuffix(name, tracking.StoreExt) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
