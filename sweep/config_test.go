package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"main_script_name": "train.py",
		"hyperparameters": {
			"lr": {"type": "uniform", "min": 0.0001, "max": 0.01},
			"optimizer": {"type": "choice", "candidates": ["adam", "sgd"]}
		},
		"max_runs": 5,
		"optimization_metric": "val_acc",
		"optimization_goal": "MAX",
		"early_stopping_patience": 4
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "train.py", cfg.MainScriptName)
	assert.Equal(t, DefaultInterpreter, cfg.Interpreter)
	assert.Equal(t, []string{"lr", "optimizer"}, cfg.HyperparameterNames())
	assert.True(t, cfg.EarlyStoppingEnabled())
	assert.Equal(t, "val_acc", cfg.Metric())
	assert.Equal(t, earlystop.GoalMax, cfg.Goal())
	assert.Equal(t, 4, cfg.EarlyStoppingPatience)
}

func TestParseConfigEarlyStoppingSwitch(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"main_script_name": "train.py", "hyperparameters": {}, "max_runs": 1,
		"optimization_metric": "loss", "optimization_goal": "min", "early_stopping": false
	}`), "test")
	require.NoError(t, err)
	assert.False(t, cfg.EarlyStoppingEnabled())

	cfg, err = ParseConfig([]byte(`{
		"main_script_name": "train.py", "hyperparameters": {}, "max_runs": 1,
		"optimization_metric": null, "optimization_goal": "max"
	}`), "test")
	require.NoError(t, err)
	assert.False(t, cfg.EarlyStoppingEnabled())

	cfg, err = ParseConfig([]byte(`{
		"main_script_name": "train.py", "hyperparameters": {}, "max_runs": 1,
		"optimization_metric": "loss", "optimization_goal": "min"
	}`), "test")
	require.NoError(t, err)
	assert.True(t, cfg.EarlyStoppingEnabled())
	assert.Equal(t, DefaultPatience, cfg.EarlyStoppingPatience)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "malformed", json: `{"main_script_name": `},
		{name: "no script", json: `{"hyperparameters": {}, "max_runs": 1}`},
		{name: "no runs", json: `{"main_script_name": "t.py", "max_runs": 0}`},
		{name: "unknown sampler", json: `{"main_script_name": "t.py", "max_runs": 1, "hyperparameters": {"lr": {"type": "normal"}}}`},
		{name: "bad flag name", json: `{"main_script_name": "t.py", "max_runs": 1, "hyperparameters": {"learning rate": {"type": "choice", "candidates": [1]}}}`},
		{name: "early stopping without metric", json: `{"main_script_name": "t.py", "max_runs": 1, "early_stopping": true, "optimization_goal": "max"}`},
		{name: "bad goal", json: `{"main_script_name": "t.py", "max_runs": 1, "optimization_metric": "acc", "optimization_goal": "up"}`},
		{name: "negative patience", json: `{"main_script_name": "t.py", "max_runs": 1, "optimization_metric": "acc", "optimization_goal": "max", "early_stopping_patience": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.json), "test")
			assert.True(t, errors.IsConfiguration(err), "got %v", err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsConfiguration(err))
}
