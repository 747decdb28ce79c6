package earlystop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

func TestSignalFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := SignalPath(dir)
	assert.Equal(t, filepath.Join(dir, "_temp", "_temp.dat"), path)

	sf, err := CreateSignalFile(path, "val_acc")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"metric_name":"val_acc","curr_value":-1,"seq":0}`, string(data))

	require.NoError(t, sf.Publish(0.75))
	require.NoError(t, sf.Publish(0.5))

	opened, err := OpenSignalFile(path)
	require.NoError(t, err)
	assert.Equal(t, "val_acc", opened.MetricName())

	sig, err := opened.Read()
	require.NoError(t, err)
	assert.Equal(t, Signal{MetricName: "val_acc", CurrValue: 0.5, Seq: 2}, sig)
}

func TestReadSignalErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{name: "not json", content: "{oops", check: errors.IsConfiguration},
		{name: "missing metric", content: `{"curr_value": 1}`, check: errors.IsConfiguration},
		{name: "empty metric", content: `{"metric_name": "", "curr_value": 1}`, check: errors.IsConfiguration},
		{name: "missing value", content: `{"metric_name": "acc"}`, check: errors.IsConfiguration},
		{name: "non-numeric value", content: `{"metric_name": "acc", "curr_value": "high"}`, check: errors.IsConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), SignalFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := ReadSignal(path)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	_, err := ReadSignal(filepath.Join(t.TempDir(), "missing.dat"))
	assert.True(t, errors.IsIOFailure(err))
}

func TestSignalFileWithoutSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), SignalFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"metric_name":"acc","curr_value":0.3}`), 0o644))

	sig, err := ReadSignal(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sig.Seq)
	assert.Equal(t, 0.3, sig.CurrValue)
}

func TestCreateSignalFileRejectsBlankMetric(t *testing.T) {
	_, err := CreateSignalFile(SignalPath(t.TempDir()), "")
	assert.True(t, errors.IsInvalidArgument(err))
}
