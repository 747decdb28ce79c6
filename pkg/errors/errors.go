// Package errors provides the error types and warning plumbing shared by every mltrack package.
// Errors carry stack traces through cockroachdb/errors and can render themselves as structured
// zerolog objects.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("mltrack-warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the structured warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition. The zerolog sink wins over the plain handler when both are set.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// CleanupWarning reports a failed best-effort cleanup, such as removing a scratch directory.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w *CleanupWarning) Error() string {
	return fmt.Sprintf("cleanup of %s failed: %v", w.Path, w.Err)
}

func (w *CleanupWarning) Unwrap() error {
	return w.Err
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *CleanupWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", w.Path).
		AnErr("cause", w.Err).
		Str("type", "CleanupWarning")
}

// NewCleanupWarning creates a CleanupWarning.
func NewCleanupWarning(path string, err error) *CleanupWarning {
	return &CleanupWarning{Path: path, Err: err}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// InvalidArgumentError is returned synchronously when a caller passes a malformed metric name,
// a non-numeric value or a non-integer step. Values are never coerced.
type InvalidArgumentError struct {
	Op     string
	Param  string
	Value  interface{}
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("mltrack: %s: invalid %s: %s (got: %v)", e.Op, e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param_name", e.Param).
		Interface("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError creates an InvalidArgumentError with a stack trace.
func NewInvalidArgumentError(op, param string, value interface{}, reason string) error {
	err := &InvalidArgumentError{Op: op, Param: param, Value: value, Reason: reason}
	return errors.WithStack(err)
}

// ConfigurationError is fatal: a missing or malformed sweep configuration, an early-stopping
// request without a metric, or a Signal File the monitor cannot parse.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mltrack: configuration %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("mltrack: configuration %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Str("reason", e.Reason).
		AnErr("cause", e.Err).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(source, reason string, err error) error {
	cfgErr := &ConfigurationError{Source: source, Reason: reason, Err: err}
	return errors.WithStack(cfgErr)
}

// SubprocessFailure describes a training subprocess that exited with an error status.
// The sweep logs it and moves on.
type SubprocessFailure struct {
	Trial    int
	Command  string
	ExitCode int
	Err      error
}

func (e *SubprocessFailure) Error() string {
	return fmt.Sprintf("mltrack: trial %d: %q exited with code %d: %v", e.Trial, e.Command, e.ExitCode, e.Err)
}

func (e *SubprocessFailure) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *SubprocessFailure) MarshalZerologObject(event *zerolog.Event) {
	event.Int("trial", e.Trial).
		Str("command", e.Command).
		Int("exit_code", e.ExitCode).
		AnErr("cause", e.Err).
		Str("type", "SubprocessFailure")
}

// NewSubprocessFailure creates a SubprocessFailure with a stack trace.
func NewSubprocessFailure(trial int, command string, exitCode int, err error) error {
	sf := &SubprocessFailure{Trial: trial, Command: command, ExitCode: exitCode, Err: err}
	return errors.WithStack(sf)
}

// IOFailure wraps a failed access to the Log Store, the Signal File or the descriptor.
// Disk writes are never retried.
type IOFailure struct {
	Op   string
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("mltrack: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *IOFailure) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "IOFailure")
}

// NewIOFailure creates an IOFailure with a stack trace.
func NewIOFailure(op, path string, err error) error {
	ioErr := &IOFailure{Op: op, Path: path, Err: err}
	return errors.WithStack(ioErr)
}

// IsInvalidArgument reports whether err is or wraps an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsSubprocessFailure reports whether err is or wraps a SubprocessFailure.
func IsSubprocessFailure(err error) bool {
	var target *SubprocessFailure
	return errors.As(err, &target)
}

// IsIOFailure reports whether err is or wraps an IOFailure.
func IsIOFailure(err error) bool {
	var target *IOFailure
	return errors.As(err, &target)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// CombineErrors returns err, or other if err is nil. When both are set, other is kept as a
// secondary error of err.
func CombineErrors(err, other error) error {
	return errors.CombineErrors(err, other)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrClosed is returned when recording into a logger that was already closed.
	ErrClosed = New("logger closed")

	// ErrCorruptSeries is returned when a stored series cannot be decoded.
	ErrCorruptSeries = New("corrupt series encoding")
)
