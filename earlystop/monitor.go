package earlystop

import (
	"context"
	"sync"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
)

// Process is the supervised training subprocess.
type Process interface {
	// Kill terminates the process forcefully. Killing an exited process is a no-op.
	Kill() error
	PID() int
}

// Monitor reads the Signal File on every change notification, runs the patience state
// machine of the current trial and kills the supervised process once patience runs out.
//
// The sweep installs a fresh Tracker for each trial through Supervise, so no state leaks
// from one trial into the next.
type Monitor struct {
	path        string
	goal        Goal
	maxPatience int
	logger      log.Logger

	mu      sync.Mutex
	tracker *Tracker
	proc    Process
	lastSeq uint64
	stops   int
	err     error
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the logger. The default is the process logger.
func WithMonitorLogger(l log.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = l
	}
}

// NewMonitor creates a monitor for the Signal File at path.
func NewMonitor(path string, goal Goal, maxPatience int, opts ...MonitorOption) (*Monitor, error) {
	if maxPatience < 1 {
		return nil, errors.NewConfigurationError("early_stopping_patience", "must be at least 1", nil)
	}
	if goal != GoalMax && goal != GoalMin {
		return nil, errors.NewConfigurationError("optimization_goal", "expected \"max\" or \"min\"", nil)
	}
	m := &Monitor{
		path:        path,
		goal:        goal,
		maxPatience: maxPatience,
		tracker:     NewTracker(goal, maxPatience),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Named("monitor")
	}
	m.logger = m.logger.With(log.GoalKey, string(goal), log.MaxPatienceKey, maxPatience)
	return m, nil
}

// Supervise starts a trial: p becomes the supervised process and the patience state is
// replaced by a fresh Tracker.
func (m *Monitor) Supervise(p Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker = NewTracker(m.goal, m.maxPatience)
	m.proc = p
}

// Release ends supervision of the current process. The process must have exited: every
// Signal File write made so far is marked as seen, so notifications still queued for the
// finished trial are not counted against the next one. An unreadable Signal File is left
// for Handle to report.
func (m *Monitor) Release() {
	sig, err := ReadSignal(m.path)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.proc = nil
	if err == nil && sig.Seq > m.lastSeq {
		m.lastSeq = sig.Seq
	}
}

// Stops returns how many processes the monitor has killed.
func (m *Monitor) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// State returns a copy of the current trial's patience state.
func (m *Monitor) State() Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tracker
}

// Err returns the fatal error that stopped the monitor, if any.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Observe feeds one value into the current trial. It returns true when the value exhausted
// patience, in which case the supervised process has been killed and the state reset.
// Values arriving while no process is supervised are dropped.
func (m *Monitor) Observe(metric string, v float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil {
		m.logger.Debug("Value ignored, no supervised process", log.MetricKey, metric, log.ValueKey, v)
		return false
	}

	stop := m.tracker.Observe(v)
	m.logger.Debug("Signal observed",
		log.MetricKey, metric,
		log.ValueKey, v,
		log.PatienceKey, m.tracker.PatienceCount,
		log.BestValueKey, m.tracker.Best,
	)
	if !stop {
		return false
	}

	m.logger.Info("Early stopping",
		log.MetricKey, metric,
		log.BestValueKey, m.tracker.Best,
		log.PIDKey, m.proc.PID(),
	)
	if err := m.proc.Kill(); err != nil {
		m.logger.Error("Kill failed", err, log.PIDKey, m.proc.PID())
	}
	m.stops++
	m.tracker.Reset()
	m.proc = nil
	return true
}

// Handle processes one change notification: it reads the Signal File and, when the write
// counter advanced, observes the new value. A Signal File that cannot be parsed is fatal.
//
// The Signal File holds a single value, so writes are not all observed: when several
// writes land before one read, only the latest is seen and it counts once toward patience.
func (m *Monitor) Handle() error {
	sig, err := ReadSignal(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	fresh := sig.Seq > m.lastSeq
	if fresh {
		m.lastSeq = sig.Seq
	}
	m.mu.Unlock()

	if !fresh {
		m.logger.Debug("Spurious notification ignored", log.SeqKey, sig.Seq)
		return nil
	}
	m.Observe(sig.MetricName, sig.CurrValue)
	return nil
}

// Run consumes watcher events until ctx is done or a fatal error occurs. On a fatal error
// the supervised process is killed so the sweep's wait returns, and the error is kept for
// Err.
func (m *Monitor) Run(ctx context.Context, w *Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err := errors.SafeExecute("monitor", m.Handle); err != nil {
				m.fail(err)
				return err
			}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			m.logger.Warn("Watch error", err)
		}
	}
}

func (m *Monitor) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.logger.Error("Early-stopping monitor stopped", err)
	if m.proc != nil {
		if kerr := m.proc.Kill(); kerr != nil {
			m.logger.Error("Kill failed", kerr, log.PIDKey, m.proc.PID())
		}
		m.proc = nil
	}
}
