package sweep

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

const (
	// ConfigFileName is the sweep configuration looked up in the working directory.
	ConfigFileName = "experiment_cfg.json"
	// DefaultInterpreter runs the training script when the configuration names none.
	DefaultInterpreter = "python"
	// DefaultPatience applies when early stopping is on and no patience is configured.
	DefaultPatience = 3
)

// HyperparameterSpec is one entry of the configuration's hyperparameters object.
type HyperparameterSpec struct {
	Type       string   `json:"type"`
	Candidates []any    `json:"candidates,omitempty"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
}

// Config is the decoded experiment_cfg.json.
type Config struct {
	MainScriptName        string                        `json:"main_script_name"`
	Hyperparameters       map[string]HyperparameterSpec `json:"hyperparameters"`
	MaxRuns               int                           `json:"max_runs"`
	OptimizationMetric    *string                       `json:"optimization_metric"`
	OptimizationGoal      string                        `json:"optimization_goal"`
	EarlyStoppingPatience int                           `json:"early_stopping_patience"`
	// EarlyStopping switches monitoring explicitly. When absent, monitoring is on exactly
	// when an optimization metric is set.
	EarlyStopping *bool   `json:"early_stopping,omitempty"`
	Interpreter   string  `json:"interpreter,omitempty"`
	Seed          *uint64 `json:"seed,omitempty"`
}

// LoadConfig reads and validates a sweep configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(path, "cannot read sweep configuration", err)
	}
	return ParseConfig(data, path)
}

// ParseConfig decodes and validates a sweep configuration. source names it in errors.
func ParseConfig(data []byte, source string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigurationError(source, "malformed sweep configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MainScriptName) == "" {
		return errors.NewConfigurationError("main_script_name", "is required", nil)
	}
	if c.MaxRuns < 1 {
		return errors.NewConfigurationError("max_runs", fmt.Sprintf("must be at least 1, got %d", c.MaxRuns), nil)
	}
	if c.Interpreter == "" {
		c.Interpreter = DefaultInterpreter
	}
	for _, name := range c.HyperparameterNames() {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n=") {
			return errors.NewConfigurationError("hyperparameters", fmt.Sprintf("invalid flag name %q", name), nil)
		}
		if _, err := ParseSampler(name, c.Hyperparameters[name], nil); err != nil {
			return err
		}
	}

	if c.EarlyStopping != nil && *c.EarlyStopping && c.Metric() == "" {
		return errors.NewConfigurationError("optimization_metric", "early stopping requested without an optimization metric", nil)
	}
	if !c.EarlyStoppingEnabled() {
		return nil
	}
	goal, err := earlystop.ParseGoal(c.OptimizationGoal)
	if err != nil {
		return err
	}
	c.OptimizationGoal = string(goal)
	if c.EarlyStoppingPatience == 0 {
		c.EarlyStoppingPatience = DefaultPatience
	}
	if c.EarlyStoppingPatience < 1 {
		return errors.NewConfigurationError("early_stopping_patience",
			fmt.Sprintf("must be at least 1, got %d", c.EarlyStoppingPatience), nil)
	}
	return nil
}

// Metric returns the optimization metric, or "" if none is set.
func (c *Config) Metric() string {
	if c.OptimizationMetric == nil {
		return ""
	}
	return strings.TrimSpace(*c.OptimizationMetric)
}

// EarlyStoppingEnabled reports whether the sweep monitors the optimization metric.
func (c *Config) EarlyStoppingEnabled() bool {
	if c.EarlyStopping != nil {
		return *c.EarlyStopping && c.Metric() != ""
	}
	return c.Metric() != ""
}

// Goal returns the validated optimization goal.
func (c *Config) Goal() earlystop.Goal {
	return earlystop.Goal(c.OptimizationGoal)
}

// HyperparameterNames returns the hyperparameter names in sorted order, which is also the
// order of their command-line flags.
func (c *Config) HyperparameterNames() []string {
	names := make([]string, 0, len(c.Hyperparameters))
	for name := range c.Hyperparameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Samplers builds one sampler per hyperparameter. With a seed, every sampler gets its own
// deterministic source so that a sweep can be replayed.
func (c *Config) Samplers() (map[string]Sampler, error) {
	out := make(map[string]Sampler, len(c.Hyperparameters))
	for i, name := range c.HyperparameterNames() {
		var src rand.Source
		if c.Seed != nil {
			src = rand.NewPCG(*c.Seed, uint64(i))
		}
		s, err := ParseSampler(name, c.Hyperparameters[name], src)
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}
