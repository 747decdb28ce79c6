package earlystop

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// Goal is the optimization direction of the monitored metric.
type Goal string

const (
	GoalMax Goal = "max"
	GoalMin Goal = "min"
)

// ParseGoal accepts "max" or "min" in any case.
func ParseGoal(s string) (Goal, error) {
	switch Goal(strings.ToLower(strings.TrimSpace(s))) {
	case GoalMax:
		return GoalMax, nil
	case GoalMin:
		return GoalMin, nil
	default:
		return "", errors.NewConfigurationError("optimization_goal", fmt.Sprintf("expected \"max\" or \"min\", got %q", s), nil)
	}
}

// worst is the starting best value for a fresh trial.
func (g Goal) worst() float64 {
	if g == GoalMin {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func (g Goal) improves(v, best float64) bool {
	if g == GoalMin {
		return v < best
	}
	return v > best
}

// Tracker is the patience state of one trial. A value that equals the best so far is not an
// improvement.
type Tracker struct {
	Goal          Goal
	MaxPatience   int
	PatienceCount int
	Best          float64
}

// NewTracker returns a tracker in its initial state.
func NewTracker(goal Goal, maxPatience int) *Tracker {
	t := &Tracker{Goal: goal, MaxPatience: maxPatience}
	t.Reset()
	return t
}

// Reset restores {0, worst}.
func (t *Tracker) Reset() {
	t.PatienceCount = 0
	t.Best = t.Goal.worst()
}

// Observe applies one value and reports whether patience is exhausted.
func (t *Tracker) Observe(v float64) bool {
	if t.Goal.improves(v, t.Best) {
		t.PatienceCount = 0
		t.Best = v
	} else {
		t.PatienceCount++
	}
	return t.PatienceCount == t.MaxPatience
}
