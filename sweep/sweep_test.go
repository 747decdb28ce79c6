package sweep

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
	"github.com/YuminosukeSato/mltrack/tracking"
)

// countingScript appends its arguments to a file next to it and fails on its second run.
const countingScript = `#!/bin/sh
dir=$(dirname "$0")
echo "$@" >> "$dir/launches"
n=$(wc -l < "$dir/launches")
if [ "$n" -eq 2 ]; then
	exit 1
fi
exit 0
`

func newTestSweep(t *testing.T, cfg *Config, logdir string, opts ...Option) (*Sweep, *log.TestLogger) {
	t.Helper()
	tl, _ := log.NewTestLogger(log.LevelDebug)
	opts = append([]Option{WithLogger(tl), WithOutput(io.Discard, io.Discard)}, opts...)
	s, err := New(cfg, logdir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, tl
}

func TestSweepWithoutEarlyStopping(t *testing.T) {
	scriptDir := t.TempDir()
	script := filepath.Join(scriptDir, "train.sh")
	require.NoError(t, os.WriteFile(script, []byte(countingScript), 0o755))

	cfg := &Config{
		MainScriptName: script,
		Interpreter:    "/bin/sh",
		MaxRuns:        3,
		Hyperparameters: map[string]HyperparameterSpec{
			"lr":        {Type: "choice", Candidates: []any{0.1}},
			"optimizer": {Type: "choice", Candidates: []any{"adam"}},
		},
	}
	logdir := t.TempDir()
	s, tl := newTestSweep(t, cfg, logdir)
	assert.Nil(t, s.Monitor())
	assert.True(t, strings.HasPrefix(filepath.Base(s.Dir()), DirPrefix))

	require.NoError(t, s.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(scriptDir, "launches"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, "--logdir "+s.Dir()+" --lr 0.1 --optimizer adam", line)
	}

	_, err = os.Stat(filepath.Join(s.Dir(), earlystop.ScratchDirName))
	assert.True(t, os.IsNotExist(err), "no scratch directory without early stopping")

	desc, err := ReadDescriptor(filepath.Join(s.Dir(), tracking.DescriptorFileName))
	require.NoError(t, err)
	assert.Len(t, desc.SampledHyperparameters, 3)
	assert.Equal(t, NotApplicable, desc.OptimizationMetric)
	assert.Equal(t, NotApplicable, desc.OptimizationGoal)
	assert.Equal(t, HyperparameterDesc{Type: "choice", Desc: "Choice[0.1]"}, desc.Hyperparameters["lr"])
	assert.Equal(t, "adam", desc.SampledHyperparameters[0]["optimizer"])

	trials := s.Trials()
	require.Len(t, trials, 3)
	assert.NoError(t, trials[0].Err)
	assert.True(t, errors.IsSubprocessFailure(trials[1].Err))
	assert.Equal(t, 1, trials[1].ExitCode)
	assert.NoError(t, trials[2].Err)
	assert.True(t, tl.ContainsMessage("Trial failed"))
}

func TestSweepEarlyStopping(t *testing.T) {
	t.Setenv(helperEnv, "1")

	metric := "acc"
	cfg := &Config{
		MainScriptName:        "train",
		Interpreter:           os.Args[0],
		MaxRuns:               2,
		OptimizationMetric:    &metric,
		OptimizationGoal:      "max",
		EarlyStoppingPatience: 2,
		Hyperparameters: map[string]HyperparameterSpec{
			"mode": {Type: "choice", Candidates: []any{"decay"}},
		},
	}
	s, tl := newTestSweep(t, cfg, t.TempDir())
	require.NotNil(t, s.Monitor())

	sig, err := earlystop.ReadSignal(earlystop.SignalPath(s.Dir()))
	require.NoError(t, err)
	assert.Equal(t, "acc", sig.MetricName)
	assert.Equal(t, float64(earlystop.InitialValue), sig.CurrValue)

	start := time.Now()
	require.NoError(t, s.Run(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second, "trials should have been stopped early")

	trials := s.Trials()
	require.Len(t, trials, 2)
	for _, tr := range trials {
		assert.True(t, tr.EarlyStopped, "trial %d", tr.Index)
		assert.NoError(t, tr.Err)
	}
	assert.Equal(t, 2, s.Monitor().Stops())
	assert.True(t, tl.ContainsMessage("Early stopping"))

	desc := s.Descriptor()
	assert.Equal(t, "acc", desc.OptimizationMetric)
	assert.Equal(t, "max", desc.OptimizationGoal)
	assert.Equal(t, 2, desc.EarlyStoppingPatience)
	assert.Len(t, desc.SampledHyperparameters, 2)

	runs, err := filepath.Glob(filepath.Join(s.Dir(), "*"+tracking.StoreExt))
	require.NoError(t, err)
	assert.Len(t, runs, 2, "each trial writes its Log Store into the sweep directory")

	require.NoError(t, s.Close())
	_, err = os.Stat(filepath.Join(s.Dir(), earlystop.ScratchDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestSweepInterrupted(t *testing.T) {
	t.Setenv(helperEnv, "1")

	cfg := &Config{
		MainScriptName: "train",
		Interpreter:    os.Args[0],
		MaxRuns:        3,
		Hyperparameters: map[string]HyperparameterSpec{
			"mode": {Type: "choice", Candidates: []any{"hang"}},
		},
	}
	s, _ := newTestSweep(t, cfg, t.TempDir(), WithGracePeriod(2*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	trials := s.Trials()
	require.Len(t, trials, 1)
	assert.Len(t, s.Descriptor().SampledHyperparameters, 1)
}

func TestSweepInterruptedStopsForkedWorkers(t *testing.T) {
	scriptDir := t.TempDir()
	script := filepath.Join(scriptDir, "train.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 30 &\nsleep 30 &\nwait\n"), 0o755))

	cfg := &Config{
		MainScriptName: script,
		Interpreter:    "/bin/sh",
		MaxRuns:        2,
		Hyperparameters: map[string]HyperparameterSpec{
			"lr": {Type: "choice", Candidates: []any{0.1}},
		},
	}
	s, tl := newTestSweep(t, cfg, t.TempDir(), WithGracePeriod(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.False(t, tl.ContainsMessage("Trial ignored SIGTERM, killing it"))
	require.Len(t, s.Trials(), 1)
}

func TestSweepStartFailureContinues(t *testing.T) {
	cfg := &Config{
		MainScriptName: "train.py",
		Interpreter:    "/nonexistent/python",
		MaxRuns:        2,
	}
	s, _ := newTestSweep(t, cfg, t.TempDir())

	require.NoError(t, s.Run(context.Background()))
	trials := s.Trials()
	require.Len(t, trials, 2)
	for _, tr := range trials {
		assert.True(t, errors.IsSubprocessFailure(tr.Err))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	logdir := t.TempDir()
	_, err := New(&Config{MainScriptName: "train.py", MaxRuns: 1, EarlyStopping: ptr(true), OptimizationGoal: "max"}, logdir)
	assert.True(t, errors.IsConfiguration(err))

	entries, err := os.ReadDir(logdir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is created for an invalid configuration")
}

func TestSweepDirCollision(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC) }
	cfg := &Config{MainScriptName: "train.py", MaxRuns: 1}
	logdir := t.TempDir()

	a, _ := newTestSweep(t, cfg, logdir, WithClock(clock))
	b, _ := newTestSweep(t, cfg, logdir, WithClock(clock))
	assert.Equal(t, filepath.Join(logdir, "Experiment_May-01_09-30-00"), a.Dir())
	assert.Equal(t, filepath.Join(logdir, "Experiment_May-01_09-30-00_1"), b.Dir())
}
