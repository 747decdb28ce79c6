package tracking

import "time"

// MetricEvent is one observation of a metric. It is immutable once created.
type MetricEvent struct {
	Value float64
	Step  int64
	// Elapsed is the time since the owning logger was created.
	Elapsed time.Duration
}

// Seconds returns Elapsed in seconds, the unit used on disk.
func (e MetricEvent) Seconds() float64 {
	return e.Elapsed.Seconds()
}
