package sweep

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/YuminosukeSato/mltrack/internal/fsutil"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/tracking"
)

// NotApplicable fills the optimization fields of a sweep without early stopping.
const NotApplicable = "/"

// HyperparameterDesc describes one hyperparameter in the descriptor.
type HyperparameterDesc struct {
	Type string `json:"hyp_type"`
	Desc string `json:"hyp_desc"`
}

// Descriptor is the content of experiment_description.json. It records the sweep definition
// and every assignment a trial was launched with.
type Descriptor struct {
	MainScriptName         string                        `json:"main_script_name"`
	Hyperparameters        map[string]HyperparameterDesc `json:"hyperparameters"`
	MaxRuns                int                           `json:"max_runs"`
	OptimizationMetric     string                        `json:"optimization_metric"`
	OptimizationGoal       string                        `json:"optimization_goal"`
	EarlyStoppingPatience  int                           `json:"early_stopping_patience,omitempty"`
	SampledHyperparameters []map[string]any              `json:"sampled_hyperparameters"`
}

// NewDescriptor builds the descriptor of a sweep with no trials yet.
func NewDescriptor(cfg *Config, samplers map[string]Sampler) Descriptor {
	d := Descriptor{
		MainScriptName:         cfg.MainScriptName,
		Hyperparameters:        make(map[string]HyperparameterDesc, len(samplers)),
		MaxRuns:                cfg.MaxRuns,
		OptimizationMetric:     NotApplicable,
		OptimizationGoal:       NotApplicable,
		SampledHyperparameters: []map[string]any{},
	}
	for name, s := range samplers {
		d.Hyperparameters[name] = HyperparameterDesc{Type: s.Kind(), Desc: s.Description()}
	}
	if cfg.EarlyStoppingEnabled() {
		d.OptimizationMetric = cfg.Metric()
		d.OptimizationGoal = cfg.OptimizationGoal
		d.EarlyStoppingPatience = cfg.EarlyStoppingPatience
	}
	return d
}

// DescriptorFile is the on-disk descriptor of a running sweep.
type DescriptorFile struct {
	path string

	mu   sync.Mutex
	desc Descriptor
}

// CreateDescriptor writes desc into dir.
func CreateDescriptor(dir string, desc Descriptor) (*DescriptorFile, error) {
	f := &DescriptorFile{path: filepath.Join(dir, tracking.DescriptorFileName), desc: desc}
	if f.desc.SampledHyperparameters == nil {
		f.desc.SampledHyperparameters = []map[string]any{}
	}
	if err := f.write(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file path.
func (f *DescriptorFile) Path() string {
	return f.path
}

// Descriptor returns a copy of the current content.
func (f *DescriptorFile) Descriptor() Descriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.desc
	d.SampledHyperparameters = append([]map[string]any(nil), f.desc.SampledHyperparameters...)
	return d
}

// Append records one sampled assignment and rewrites the file before returning.
func (f *DescriptorFile) Append(assignment map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.desc.SampledHyperparameters = append(f.desc.SampledHyperparameters, assignment)
	if err := f.write(); err != nil {
		f.desc.SampledHyperparameters = f.desc.SampledHyperparameters[:len(f.desc.SampledHyperparameters)-1]
		return err
	}
	return nil
}

func (f *DescriptorFile) write() error {
	data, err := json.Marshal(f.desc)
	if err != nil {
		return errors.NewIOFailure("encode", f.path, err)
	}
	return fsutil.WriteFileAtomic(f.path, data, 0o644)
}

// ReadDescriptor loads an experiment_description.json.
func ReadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, errors.NewIOFailure("read", path, err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, errors.NewIOFailure("parse", path, err)
	}
	return d, nil
}
