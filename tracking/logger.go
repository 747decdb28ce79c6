// Package tracking records time-series metrics for one training run.
//
// A Logger keeps one Buffer per metric and persists them into a single Log Store file
// named after the run's start time. Buffers are flushed when they fill up and, independently,
// by a Timer some interval after the first unflushed record. When the log directory belongs
// to a hyperparameter sweep with early stopping, the Logger also republishes every value of
// the optimization metric into the sweep's Signal File.
//
//	lg, err := tracking.New("runs", tracking.WithMaxEvents(50))
//	if err != nil {
//	    return err
//	}
//	defer lg.Close()
//
//	for epoch := 0; epoch < 10; epoch++ {
//	    if err := lg.Record("loss", loss, epoch); err != nil {
//	        return err
//	    }
//	}
package tracking

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
)

const (
	// RunNameLayout formats a run's start time into its directory and file name.
	RunNameLayout = "Jan-02_15-04-05"
	// StoreExt is the Log Store file extension.
	StoreExt = ".dat"
	// DescriptorFileName marks a sweep directory.
	DescriptorFileName = "experiment_description.json"
)

// Logger is the Experiment Logger of one run. It is safe for concurrent use.
type Logger struct {
	maxEvents int
	interval  time.Duration
	logger    log.Logger
	now       func() time.Time

	// mu serializes Record, timer flushes and Close, so at most one flush touches the
	// Store at a time.
	mu       sync.Mutex
	runDir   string
	store    *Store
	buffers  map[string]*Buffer
	timer    *Timer
	initTime time.Time
	closed   bool

	signal *earlystop.SignalFile
}

// New creates the run directory and an empty Log Store under logdir.
//
// If logdir is a sweep directory (it holds the sweep's scratch directory or its
// experiment_description.json), the Log Store is written directly into it; otherwise a
// directory named after the start time is created. If the sweep has early stopping enabled,
// the Logger republishes the optimization metric into the sweep's Signal File.
func New(logdir string, opts ...Option) (*Logger, error) {
	if err := errors.CheckName("tracking.New", "logdir", logdir); err != nil {
		return nil, err
	}

	l := &Logger{
		maxEvents: DefaultMaxEvents,
		interval:  DefaultLogInterval,
		now:       time.Now,
		buffers:   make(map[string]*Buffer),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxEvents < 1 {
		return nil, errors.NewInvalidArgumentError("tracking.New", "max_events", l.maxEvents, "must be at least 1")
	}
	if l.interval <= 0 {
		return nil, errors.NewInvalidArgumentError("tracking.New", "log_interval", l.interval, "must be positive")
	}
	if l.logger == nil {
		l.logger = log.Named("tracking")
	}

	if err := os.MkdirAll(logdir, 0o755); err != nil {
		return nil, errors.NewIOFailure("mkdir", logdir, err)
	}
	l.initTime = l.now()
	stamp := l.initTime.Format(RunNameLayout)

	signalPath := earlystop.SignalPath(logdir)
	if exists(signalPath) {
		sf, err := earlystop.OpenSignalFile(signalPath)
		if err != nil {
			return nil, err
		}
		l.signal = sf
	}

	l.runDir = logdir
	if l.signal == nil && !exists(filepath.Join(logdir, DescriptorFileName)) && !exists(filepath.Join(logdir, earlystop.ScratchDirName)) {
		l.runDir = filepath.Join(logdir, stamp)
	}
	if err := os.MkdirAll(l.runDir, 0o755); err != nil {
		return nil, errors.NewIOFailure("mkdir", l.runDir, err)
	}

	store, err := CreateStore(uniquePath(l.runDir, stamp, StoreExt))
	if err != nil {
		return nil, err
	}
	l.store = store
	l.timer = NewTimer(l.interval, l.onTimer)
	l.logger = l.logger.With(log.StorePathKey, store.Path())

	fields := []any{log.RunDirKey, l.runDir, log.CapacityKey, l.maxEvents, log.IntervalKey, l.interval.String()}
	if l.signal != nil {
		fields = append(fields, log.MetricKey, l.signal.MetricName())
	}
	l.logger.Debug("Run started", fields...)
	return l, nil
}

// RunDir returns the directory holding the Log Store.
func (l *Logger) RunDir() string {
	return l.runDir
}

// StorePath returns the Log Store path.
func (l *Logger) StorePath() string {
	return l.store.Path()
}

// Store returns the Log Store.
func (l *Logger) Store() *Store {
	return l.store
}

// EarlyStopping reports whether values are mirrored into a Signal File, and for which metric.
func (l *Logger) EarlyStopping() (string, bool) {
	if l.signal == nil {
		return "", false
	}
	return l.signal.MetricName(), true
}

// Metrics returns the names of the metrics recorded so far, sorted.
func (l *Logger) Metrics() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.buffers))
	for name := range l.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record appends one value of metric at step.
func (l *Logger) Record(metric string, value float64, step int) error {
	if err := errors.CheckName("Record", "metric_name", metric); err != nil {
		return err
	}
	if err := errors.CheckScalar("Record", "value", value); err != nil {
		return err
	}
	return l.record(metric, value, int64(step))
}

// RecordAny is Record for dynamically typed callers. value must be an integer or floating
// point number and step an integer; nothing is converted across those kinds.
func (l *Logger) RecordAny(metric string, value, step any) error {
	v, err := toFloat(value)
	if err != nil {
		return err
	}
	s, err := toInt(step)
	if err != nil {
		return err
	}
	if err := errors.CheckName("Record", "metric_name", metric); err != nil {
		return err
	}
	if err := errors.CheckScalar("Record", "value", v); err != nil {
		return err
	}
	return l.record(metric, v, s)
}

func (l *Logger) record(metric string, value float64, step int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.ErrClosed
	}

	buf, ok := l.buffers[metric]
	if !ok {
		buf = NewBuffer(metric, l.maxEvents, l.store)
		l.buffers[metric] = buf
	}

	ev := MetricEvent{Value: value, Step: step, Elapsed: l.now().Sub(l.initTime)}
	if err := buf.Add(ev); err != nil {
		return errors.Wrapf(err, "flush %q", metric)
	}

	if l.signal != nil && metric == l.signal.MetricName() {
		if err := l.signal.Publish(value); err != nil {
			return errors.Wrapf(err, "publish %q", metric)
		}
	}

	if !l.timer.Armed() {
		l.timer.Start()
	}
	return nil
}

// Flush writes every pending event to the Log Store.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *Logger) flushLocked() error {
	names := make([]string, 0, len(l.buffers))
	for name := range l.buffers {
		names = append(names, name)
	}
	sort.Strings(names)

	var result error
	for _, name := range names {
		buf := l.buffers[name]
		n := buf.Len()
		if err := buf.Flush(); err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "flush %q", name))
			continue
		}
		if n > 0 {
			l.logger.Debug("Buffer flushed", log.MetricKey, name, log.EventsKey, n)
		}
	}
	return result
}

// onTimer runs on the timer's goroutine. It disarms the timer and flushes everything; the
// next Record arms a new cycle.
func (l *Logger) onTimer() {
	l.timer.Reset()
	if err := errors.SafeExecute("flush-timer", l.Flush); err != nil {
		l.logger.Error("Periodic flush failed", err)
	}
}

// Close flushes every buffer and cancels the timer. Events recorded before Close are
// never lost on a normal shutdown. Close is idempotent.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	err := l.flushLocked()
	l.mu.Unlock()

	l.timer.Cancel()
	l.logger.Debug("Run closed", log.DurationMsKey, l.now().Sub(l.initTime).Milliseconds())
	return err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// uniquePath returns dir/name+ext, or dir/name_N+ext if that file exists already. Trials of
// a sweep can start within the same second.
func uniquePath(dir, name, ext string) string {
	path := filepath.Join(dir, name+ext)
	for i := 1; exists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
	return path
}

func toFloat(value any) (float64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	default:
		return 0, errors.NewInvalidArgumentError("Record", "value", value,
			fmt.Sprintf("expected float or int, got %T", value))
	}
}

func toInt(step any) (int64, error) {
	rv := reflect.ValueOf(step)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), nil
	default:
		return 0, errors.NewInvalidArgumentError("Record", "step", step,
			fmt.Sprintf("expected int, got %T", step))
	}
}
