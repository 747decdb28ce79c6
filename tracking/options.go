package tracking

import (
	"time"

	"github.com/YuminosukeSato/mltrack/pkg/log"
)

const (
	// DefaultMaxEvents is the default Metric Buffer capacity.
	DefaultMaxEvents = 100
	// DefaultLogInterval is the default flush timer interval.
	DefaultLogInterval = 500 * time.Millisecond
)

// Option configures a Logger.
type Option func(*Logger)

// WithMaxEvents sets the capacity of every Metric Buffer.
func WithMaxEvents(n int) Option {
	return func(l *Logger) {
		l.maxEvents = n
	}
}

// WithLogInterval sets how long after the first unflushed record the flush timer fires.
func WithLogInterval(d time.Duration) Option {
	return func(l *Logger) {
		l.interval = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}
