// Package sweep runs hyperparameter sweeps: it samples an assignment per trial, launches the
// training script with it as a subprocess and, when early stopping is enabled, lets an
// earlystop.Monitor kill trials whose optimization metric stops improving.
//
// Trials run one at a time. Every assignment is recorded in the sweep's
// experiment_description.json before the sweep waits on the trial, so an interrupted sweep
// still shows what it attempted. A failing trial is logged and the sweep moves on.
package sweep

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
	"github.com/YuminosukeSato/mltrack/tracking"
)

const (
	// DirPrefix starts the name of every sweep directory.
	DirPrefix = "Experiment_"
	// DefaultGracePeriod is how long an interrupted trial gets to exit after SIGTERM before
	// it is killed.
	DefaultGracePeriod = 10 * time.Second
)

// Trial is the outcome of one launched subprocess.
type Trial struct {
	Index        int
	Assignment   map[string]any
	PID          int
	ExitCode     int
	EarlyStopped bool
	Err          error
}

// Option configures a Sweep.
type Option func(*Sweep)

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) Option {
	return func(s *Sweep) {
		s.logger = l
	}
}

// WithOutput redirects the trials' standard output and error. The default is the sweep's
// own.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Sweep) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweep) {
		s.now = now
	}
}

// WithGracePeriod sets how long an interrupted trial may take to exit after SIGTERM.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Sweep) {
		s.grace = d
	}
}

// Sweep is one hyperparameter sweep.
type Sweep struct {
	cfg      *Config
	samplers map[string]Sampler
	names    []string

	logger log.Logger
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	grace  time.Duration

	dir     string
	desc    *DescriptorFile
	signal  *earlystop.SignalFile
	monitor *earlystop.Monitor

	mu     sync.Mutex
	trials []Trial
}

// New validates cfg and prepares a sweep directory Experiment_<timestamp> under logdir. It
// writes the descriptor and, when early stopping is enabled, the initial Signal File. No
// subprocess is launched until Run.
func New(cfg *Config, logdir string, opts ...Option) (*Sweep, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("sweep", "no configuration", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	samplers, err := cfg.Samplers()
	if err != nil {
		return nil, err
	}

	s := &Sweep{
		cfg:      cfg,
		samplers: samplers,
		names:    cfg.HyperparameterNames(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		now:      time.Now,
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Named("sweep")
	}

	s.dir, err = makeSweepDir(logdir, DirPrefix+s.now().Format(tracking.RunNameLayout))
	if err != nil {
		return nil, err
	}
	s.logger = s.logger.With(log.SweepDirKey, s.dir)

	s.desc, err = CreateDescriptor(s.dir, NewDescriptor(cfg, samplers))
	if err != nil {
		return nil, err
	}

	if cfg.EarlyStoppingEnabled() {
		s.signal, err = earlystop.CreateSignalFile(earlystop.SignalPath(s.dir), cfg.Metric())
		if err != nil {
			return nil, err
		}
		s.monitor, err = earlystop.NewMonitor(s.signal.Path(), cfg.Goal(), cfg.EarlyStoppingPatience,
			earlystop.WithMonitorLogger(s.logger.With(log.ComponentKey, "monitor")))
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the sweep directory.
func (s *Sweep) Dir() string {
	return s.dir
}

// Descriptor returns the current descriptor content.
func (s *Sweep) Descriptor() Descriptor {
	return s.desc.Descriptor()
}

// Monitor returns the early-stopping monitor, or nil when early stopping is off.
func (s *Sweep) Monitor() *earlystop.Monitor {
	return s.monitor
}

// Trials returns the outcomes of the trials run so far.
func (s *Sweep) Trials() []Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Trial(nil), s.trials...)
}

// Run launches max_runs trials one after another. It returns early when ctx is canceled,
// after the current trial has been terminated, or when the early-stopping monitor hits a
// fatal error. Trial failures are logged and do not stop the sweep.
func (s *Sweep) Run(ctx context.Context) error {
	s.logger.Info("Sweep started",
		log.MaxRunsKey, s.cfg.MaxRuns,
		log.MetricKey, s.cfg.Metric(),
	)

	if s.monitor != nil {
		w, werr := earlystop.NewWatcher(filepath.Dir(s.signal.Path()), earlystop.SignalFileName)
		if werr != nil {
			return werr
		}
		mctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.monitor.Run(mctx, w)
		}()
		defer func() {
			cancel()
			if cerr := w.Close(); cerr != nil {
				s.logger.Warn("Closing the signal watch failed", cerr)
			}
			wg.Wait()
		}()
	}

	for i := 0; i < s.cfg.MaxRuns; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.monitor != nil {
			if merr := s.monitor.Err(); merr != nil {
				return merr
			}
		}

		trial, terr := s.runTrial(ctx, i)
		s.mu.Lock()
		s.trials = append(s.trials, trial)
		s.mu.Unlock()
		if terr != nil {
			return terr
		}
	}

	if s.monitor != nil {
		if merr := s.monitor.Err(); merr != nil {
			return merr
		}
	}
	s.logger.Info("Sweep finished", log.MaxRunsKey, s.cfg.MaxRuns)
	return nil
}

// runTrial returns an error only for conditions that must abort the sweep.
func (s *Sweep) runTrial(ctx context.Context, i int) (Trial, error) {
	trial := Trial{Index: i, Assignment: s.sample(), PID: -1, ExitCode: -1}
	args := s.args(trial.Assignment)
	logger := s.logger.With(log.TrialKey, i+1)
	logger.Info("Trial started", log.HyperParamsKey, trial.Assignment)

	if err := s.desc.Append(trial.Assignment); err != nil {
		return trial, err
	}

	proc, err := StartProcess(s.cfg.Interpreter, args, s.stdout, s.stderr)
	if err != nil {
		trial.Err = errors.NewSubprocessFailure(i+1, s.cfg.Interpreter, -1, err)
		logger.Error("Trial failed to start", trial.Err, log.ErrorCodeKey, log.ErrorSubprocess)
		return trial, nil
	}
	trial.PID = proc.PID()
	logger = logger.With(log.PIDKey, trial.PID)
	logger.Debug("Trial launched", log.CommandKey, proc.Command())

	stopsBefore := 0
	if s.monitor != nil {
		stopsBefore = s.monitor.Stops()
		s.monitor.Supervise(proc)
		defer s.monitor.Release()
	}

	werr := proc.Wait(ctx)
	if !proc.Exited() {
		// the wait was interrupted; terminate and give the trial a grace period
		s.stop(proc, logger)
		trial.ExitCode = proc.ExitCode()
		trial.Err = werr
		return trial, werr
	}

	trial.ExitCode = proc.ExitCode()
	if s.monitor != nil && s.monitor.Stops() > stopsBefore {
		trial.EarlyStopped = true
		logger.Info("Trial stopped early", log.MetricKey, s.cfg.Metric())
		return trial, nil
	}
	if werr != nil {
		trial.Err = errors.NewSubprocessFailure(i+1, proc.Command(), trial.ExitCode, werr)
		logger.Error("Trial failed", trial.Err,
			log.ExitCodeKey, trial.ExitCode,
			log.ErrorCodeKey, log.ErrorSubprocess,
		)
		return trial, nil
	}
	logger.Info("Trial finished", log.ExitCodeKey, trial.ExitCode)
	return trial, nil
}

func (s *Sweep) stop(proc *Process, logger log.Logger) {
	if err := proc.Terminate(); err != nil {
		logger.Warn("Terminate failed", err)
	}
	select {
	case <-proc.Done():
		return
	case <-time.After(s.grace):
	}
	logger.Warn("Trial ignored SIGTERM, killing it")
	if err := proc.Kill(); err != nil {
		logger.Error("Kill failed", err)
	}
	<-proc.Done()
}

func (s *Sweep) sample() map[string]any {
	assignment := make(map[string]any, len(s.names))
	for _, name := range s.names {
		assignment[name] = s.samplers[name].Sample()
	}
	return assignment
}

// args builds "<main_script> --logdir <dir> --<name> <value> ...".
func (s *Sweep) args(assignment map[string]any) []string {
	args := make([]string, 0, 3+2*len(s.names))
	args = append(args, s.cfg.MainScriptName, "--logdir", s.dir)
	for _, name := range s.names {
		args = append(args, "--"+name, FormatValue(assignment[name]))
	}
	return args
}

// Close removes the sweep's scratch directory. Failures are reported as warnings.
func (s *Sweep) Close() error {
	if s.signal == nil {
		return nil
	}
	scratch := filepath.Dir(s.signal.Path())
	if err := os.RemoveAll(scratch); err != nil {
		errors.Warn(errors.NewCleanupWarning(scratch, err))
	}
	return nil
}

func makeSweepDir(logdir, name string) (string, error) {
	if err := os.MkdirAll(logdir, 0o755); err != nil {
		return "", errors.NewIOFailure("mkdir", logdir, err)
	}
	dir := filepath.Join(logdir, name)
	for i := 1; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.NewIOFailure("mkdir", dir, err)
		}
		dir = filepath.Join(logdir, fmt.Sprintf("%s_%d", name, i))
	}
}
