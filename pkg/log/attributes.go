package log

// Run and metric context.
const (
	// ComponentKey identifies the package or goroutine emitting the message.
	// Examples: "tracking", "flush-timer", "monitor", "sweep"
	ComponentKey = "ml.component"

	// RunDirKey is the directory holding a run's Log Store.
	RunDirKey = "run.dir"

	// StorePathKey is the path of a Log Store file.
	StorePathKey = "run.store"

	// MetricKey names a metric.
	MetricKey = "metric.name"

	// ValueKey is a recorded metric value.
	ValueKey = "metric.value"

	// StepKey is the training step or epoch of a value.
	StepKey = "metric.step"

	// EventsKey is the number of events written by a flush.
	EventsKey = "data.events"

	// CapacityKey is a Metric Buffer's capacity.
	CapacityKey = "data.capacity"

	// IntervalKey is the flush timer interval.
	IntervalKey = "perf.interval"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Sweep and early-stopping context.
const (
	SweepDirKey    = "sweep.dir"
	TrialKey       = "sweep.trial"
	MaxRunsKey     = "sweep.max_runs"
	CommandKey     = "sweep.command"
	PIDKey         = "infra.pid"
	ExitCodeKey    = "sweep.exit_code"
	HyperParamsKey = "model.hyperparams"

	// GoalKey is "max" or "min".
	GoalKey = "earlystop.goal"

	// PatienceKey is the current patience count.
	PatienceKey = "earlystop.patience"

	// MaxPatienceKey is the patience limit.
	MaxPatienceKey = "earlystop.max_patience"

	// BestValueKey is the best value seen in the current trial.
	BestValueKey = "earlystop.best"

	// SeqKey is the Signal File write counter.
	SeqKey = "earlystop.seq"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard values.
const (
	ErrorInvalidArgument = "INVALID_ARGUMENT"
	ErrorConfiguration   = "CONFIGURATION"
	ErrorSubprocess      = "SUBPROCESS_FAILURE"
	ErrorIO              = "IO_FAILURE"
)
