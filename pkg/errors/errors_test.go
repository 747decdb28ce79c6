package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidArgumentError(t *testing.T) {
	err := NewInvalidArgumentError("Record", "step", "3", "must be an integer")

	assert.Equal(t, `mltrack: Record: invalid step: must be an integer (got: 3)`, err.Error())
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsConfiguration(err))

	formatted := fmt.Sprintf("%+v", err)
	assert.True(t, strings.Contains(formatted, "errors_test.go"), "expected stack trace in %q", formatted)
}

func TestNewConfigurationError(t *testing.T) {
	tests := []struct {
		name    string
		cause   error
		wantMsg string
	}{
		{
			name:    "with cause",
			cause:   fmt.Errorf("unexpected EOF"),
			wantMsg: "mltrack: configuration experiment_cfg.json: malformed JSON: unexpected EOF",
		},
		{
			name:    "without cause",
			wantMsg: "mltrack: configuration experiment_cfg.json: malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError("experiment_cfg.json", "malformed JSON", tt.cause)
			assert.Equal(t, tt.wantMsg, err.Error())

			var cfgErr *ConfigurationError
			require.True(t, As(err, &cfgErr))
			assert.Equal(t, "experiment_cfg.json", cfgErr.Source)
			if tt.cause != nil {
				assert.True(t, Is(err, tt.cause))
			}
		})
	}
}

func TestNewSubprocessFailure(t *testing.T) {
	cause := fmt.Errorf("exit status 2")
	err := NewSubprocessFailure(1, "python train.py", 2, cause)

	assert.True(t, IsSubprocessFailure(err))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "trial 1")
	assert.Contains(t, err.Error(), "exited with code 2")
}

func TestNewIOFailure(t *testing.T) {
	err := NewIOFailure("read", "/tmp/run.dat", fmt.Errorf("permission denied"))

	assert.True(t, IsIOFailure(err))
	assert.Equal(t, "mltrack: read /tmp/run.dat: permission denied", err.Error())
}

func TestWrapKeepsType(t *testing.T) {
	err := Wrap(NewIOFailure("write", "x", fmt.Errorf("disk full")), "flush loss")
	assert.True(t, IsIOFailure(err))
	assert.Contains(t, err.Error(), "flush loss")
}

func TestCheckScalar(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{name: "finite", value: 0.25},
		{name: "negative", value: -3},
		{name: "NaN", value: math.NaN(), wantErr: true},
		{name: "+Inf", value: math.Inf(1), wantErr: true},
		{name: "-Inf", value: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckScalar("Record", "value", tt.value)
			if tt.wantErr {
				assert.True(t, IsInvalidArgument(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckName(t *testing.T) {
	assert.NoError(t, CheckName("Record", "metric_name", "loss"))
	assert.True(t, IsInvalidArgument(CheckName("Record", "metric_name", "")))
	assert.True(t, IsInvalidArgument(CheckName("Record", "metric_name", "  \t")))
}

func TestWarnUsesZerologSinkFirst(t *testing.T) {
	var plain, structured []error
	SetWarningHandler(func(w error) { plain = append(plain, w) })
	SetZerologWarnFunc(func(w error) { structured = append(structured, w) })
	defer func() {
		SetZerologWarnFunc(nil)
		SetWarningHandler(func(error) {})
	}()

	Warn(NewCleanupWarning("/tmp/_temp", fmt.Errorf("busy")))
	assert.Len(t, structured, 1)
	assert.Empty(t, plain)

	SetZerologWarnFunc(nil)
	Warn(NewCleanupWarning("/tmp/_temp", fmt.Errorf("busy")))
	assert.Len(t, plain, 1)
}
