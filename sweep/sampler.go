package sweep

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// Sampler kinds as written in the sweep configuration and the descriptor.
const (
	KindChoice  = "choice"
	KindUniform = "uniform"
)

// Sampler draws one value of a hyperparameter per trial. The set of samplers is closed:
// Choice and Uniform are the only implementations.
type Sampler interface {
	// Kind returns the configuration type name.
	Kind() string
	// Description is the human-readable form stored in experiment_description.json.
	Description() string
	// Sample draws one value.
	Sample() any

	sampler()
}

// Choice picks one of Values with equal probability.
type Choice struct {
	Values []any
	dist   distuv.Categorical
}

// NewChoice creates a Choice sampler. src may be nil to use the global source.
func NewChoice(values []any, src rand.Source) (*Choice, error) {
	if len(values) == 0 {
		return nil, errors.NewConfigurationError("hyperparameters", "choice needs at least one candidate", nil)
	}
	weights := make([]float64, len(values))
	floats.AddConst(1, weights)
	return &Choice{
		Values: values,
		dist:   distuv.NewCategorical(weights, src),
	}, nil
}

func (c *Choice) Kind() string { return KindChoice }

func (c *Choice) Description() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = FormatValue(v)
	}
	return "Choice[" + strings.Join(parts, ", ") + "]"
}

func (c *Choice) Sample() any {
	return c.Values[int(c.dist.Rand())]
}

func (*Choice) sampler() {}

// Uniform draws a float from [Low, High).
type Uniform struct {
	Low, High float64
	dist      distuv.Uniform
}

// NewUniform creates a Uniform sampler. src may be nil to use the global source.
func NewUniform(low, high float64, src rand.Source) (*Uniform, error) {
	if errors.CheckScalar("hyperparameters", "min", low) != nil || errors.CheckScalar("hyperparameters", "max", high) != nil {
		return nil, errors.NewConfigurationError("hyperparameters", "uniform bounds must be finite", nil)
	}
	if !(low < high) {
		return nil, errors.NewConfigurationError("hyperparameters",
			fmt.Sprintf("uniform needs min < max, got min=%v max=%v", low, high), nil)
	}
	return &Uniform{
		Low:  low,
		High: high,
		dist: distuv.Uniform{Min: low, Max: high, Src: src},
	}, nil
}

func (u *Uniform) Kind() string { return KindUniform }

func (u *Uniform) Description() string {
	return fmt.Sprintf("Uniform(%s, %s)", FormatValue(u.Low), FormatValue(u.High))
}

func (u *Uniform) Sample() any {
	v := u.dist.Rand()
	// guard the open upper bound against rounding in Min + (Max-Min)*u
	if v >= u.High {
		v = u.Low
	}
	return v
}

func (*Uniform) sampler() {}

// ParseSampler builds the sampler a configuration entry describes. Unknown kinds are
// rejected.
func ParseSampler(name string, spec HyperparameterSpec, src rand.Source) (Sampler, error) {
	source := "hyperparameters." + name
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case KindChoice:
		s, err := NewChoice(spec.Candidates, src)
		if err != nil {
			return nil, errors.NewConfigurationError(source, "invalid choice", err)
		}
		return s, nil
	case KindUniform:
		if spec.Min == nil || spec.Max == nil {
			return nil, errors.NewConfigurationError(source, "uniform needs min and max", nil)
		}
		s, err := NewUniform(*spec.Min, *spec.Max, src)
		if err != nil {
			return nil, errors.NewConfigurationError(source, "invalid uniform", err)
		}
		return s, nil
	default:
		return nil, errors.NewConfigurationError(source, fmt.Sprintf("unknown sampler type %q", spec.Type), nil)
	}
}

// FormatValue renders a sampled value the way it is passed on the command line.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}
