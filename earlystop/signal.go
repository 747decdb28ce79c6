package earlystop

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/mltrack/internal/fsutil"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

const (
	// ScratchDirName is the sweep-scoped directory that holds the Signal File. Its presence
	// inside a log directory tells a training process that it runs under a sweep.
	ScratchDirName = "_temp"
	// SignalFileName is the Signal File's base name.
	SignalFileName = "_temp.dat"

	// InitialValue is the placeholder written before any trial reports.
	InitialValue = -1
)

// Signal is the Signal File content. Seq counts writes so that the monitor can tell a new
// value from a repeated notification for the same write.
type Signal struct {
	MetricName string  `json:"metric_name"`
	CurrValue  float64 `json:"curr_value"`
	Seq        uint64  `json:"seq"`
}

type rawSignal struct {
	MetricName *string  `json:"metric_name"`
	CurrValue  *float64 `json:"curr_value"`
	Seq        uint64   `json:"seq"`
}

// SignalPath returns the Signal File path inside a sweep directory.
func SignalPath(sweepDir string) string {
	return filepath.Join(sweepDir, ScratchDirName, SignalFileName)
}

// SignalFile is a handle on a Signal File.
type SignalFile struct {
	path   string
	metric string
}

// CreateSignalFile writes the initial {metric_name, curr_value: -1} document, creating the
// scratch directory if needed.
func CreateSignalFile(path, metric string) (*SignalFile, error) {
	if err := errors.CheckName("CreateSignalFile", "metric_name", metric); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewIOFailure("mkdir", filepath.Dir(path), err)
	}
	f := &SignalFile{path: path, metric: metric}
	if err := f.write(Signal{MetricName: metric, CurrValue: InitialValue}); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenSignalFile opens an existing Signal File and reads the metric it carries.
func OpenSignalFile(path string) (*SignalFile, error) {
	sig, err := ReadSignal(path)
	if err != nil {
		return nil, err
	}
	return &SignalFile{path: path, metric: sig.MetricName}, nil
}

// Path returns the file path.
func (f *SignalFile) Path() string {
	return f.path
}

// MetricName returns the optimization metric the file carries.
func (f *SignalFile) MetricName() string {
	return f.metric
}

// Read parses the current content.
func (f *SignalFile) Read() (Signal, error) {
	return ReadSignal(f.path)
}

// Publish overwrites curr_value with value and bumps the write counter.
func (f *SignalFile) Publish(value float64) error {
	sig, err := f.Read()
	if err != nil {
		return err
	}
	sig.CurrValue = value
	sig.Seq++
	return f.write(sig)
}

func (f *SignalFile) write(sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return errors.NewIOFailure("encode", f.path, err)
	}
	return fsutil.WriteFileAtomic(f.path, data, 0o644)
}

// ReadSignal reads and validates a Signal File. A missing file is an IOFailure; content that
// does not parse or lacks metric_name/curr_value is a ConfigurationError.
func ReadSignal(path string) (Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Signal{}, errors.NewIOFailure("read", path, err)
	}

	var raw rawSignal
	if err := json.Unmarshal(data, &raw); err != nil {
		return Signal{}, errors.NewConfigurationError(path, "signal file is not valid JSON", err)
	}
	if raw.MetricName == nil || *raw.MetricName == "" {
		return Signal{}, errors.NewConfigurationError(path, "signal file has no metric_name", nil)
	}
	if raw.CurrValue == nil {
		return Signal{}, errors.NewConfigurationError(path, "signal file has no numeric curr_value", nil)
	}
	return Signal{MetricName: *raw.MetricName, CurrValue: *raw.CurrValue, Seq: raw.Seq}, nil
}
