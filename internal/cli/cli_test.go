package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
	"github.com/YuminosukeSato/mltrack/sweep"
	"github.com/YuminosukeSato/mltrack/tracking"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func recordRun(t *testing.T, logdir string) {
	t.Helper()
	lg, err := tracking.New(logdir)
	require.NoError(t, err)
	for step, v := range []float64{0.9, 0.5, 0.7} {
		require.NoError(t, lg.Record("loss", v, step))
	}
	require.NoError(t, lg.Close())
}

func TestReportCommand(t *testing.T) {
	logdir := t.TempDir()
	recordRun(t, logdir)

	out, _, err := runCommand(t, "--logdir", logdir, "report", "--goal", "min")
	require.NoError(t, err)
	assert.Contains(t, out, "Experiments (1)")
	assert.Contains(t, out, "loss")
	assert.NotContains(t, out, "Sweeps")

	out, _, err = runCommand(t, "--logdir", logdir, "report", "-o", "JSON")
	require.NoError(t, err)
	var data reportData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	require.Len(t, data.Experiments, 1)
	assert.Equal(t, 3, data.Experiments[0].Count)
	assert.Equal(t, []string{"loss"}, data.AllMetrics)

	out, _, err = runCommand(t, "--logdir", logdir, "report", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "all_metrics:")

	_, _, err = runCommand(t, "--logdir", logdir, "report", "-o", "xml")
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestRootWithoutRunSweepPrintsReport(t *testing.T) {
	logdir := t.TempDir()
	recordRun(t, logdir)

	out, _, err := runCommand(t, "--logdir", logdir)
	require.NoError(t, err)
	assert.Contains(t, out, "Experiments (1)")
}

func TestRootRunSweep(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "train.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	cfg := `{
		"main_script_name": "` + script + `",
		"interpreter": "/bin/sh",
		"hyperparameters": {"lr": {"type": "uniform", "min": 0.1, "max": 0.2}},
		"max_runs": 2,
		"optimization_metric": null,
		"optimization_goal": "max",
		"early_stopping_patience": 3
	}`
	cfgPath := filepath.Join(dir, sweep.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	logdir := filepath.Join(dir, "runs")
	_, errOut, err := runCommand(t, "--logdir", logdir, "--run_sweep", "--config", cfgPath, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Sweep finished")

	matches, err := filepath.Glob(filepath.Join(logdir, sweep.DirPrefix+"*", tracking.DescriptorFileName))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	desc, err := sweep.ReadDescriptor(matches[0])
	require.NoError(t, err)
	assert.Len(t, desc.SampledHyperparameters, 2)

	out, _, err := runCommand(t, "--logdir", logdir, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Sweeps (1)")
}

func TestSweepCommandMissingConfig(t *testing.T) {
	_, _, err := runCommand(t, "--logdir", t.TempDir(), "sweep", "--config", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	code, suggestion := classify(err)
	assert.Equal(t, log.ErrorConfiguration, code)
	assert.NotEmpty(t, suggestion)
}

func TestPlotCommand(t *testing.T) {
	logdir := t.TempDir()
	recordRun(t, logdir)
	file := filepath.Join(t.TempDir(), "loss.svg")

	out, _, err := runCommand(t, "--logdir", logdir, "plot", "loss", "--file", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Wrote "))
	_, err = os.Stat(file)
	assert.NoError(t, err)

	_, _, err = runCommand(t, "--logdir", logdir, "plot", "acc", "--file", file)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := runCommand(t, "--log-level", "verbose", "report")
	assert.True(t, errors.IsConfiguration(err))
}

func TestClassify(t *testing.T) {
	code, _ := classify(errors.NewIOFailure("read", "x", os.ErrPermission))
	assert.Equal(t, log.ErrorIO, code)
	code, _ = classify(errors.NewSubprocessFailure(1, "python", 2, nil))
	assert.Equal(t, log.ErrorSubprocess, code)
	code, _ = classify(errors.New("boom"))
	assert.Equal(t, "UNKNOWN", code)
}
